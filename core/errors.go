package core

import "github.com/pkg/errors"

var (
	ErrForbidden = errors.New("permission denied")
	// ErrDuplicate is returned by repositories when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReference is returned by repositories when a write references a record that does not exist.
	ErrReference = errors.New("referenced record does not exist")
)

// ConstraintError names the constraint behind an ErrDuplicate or ErrReference.
type ConstraintError struct {
	Err        error
	Constraint string
}

func NewConstraintError(err error, constraint string) error {
	return &ConstraintError{Err: err, Constraint: constraint}
}

func (ce ConstraintError) Error() string {
	return ce.Constraint + ": " + ce.Err.Error()
}

// Cause lets errors.Cause reach ErrDuplicate or ErrReference.
func (ce ConstraintError) Cause() error { return ce.Err }

func (ce ConstraintError) Unwrap() error { return ce.Err }

// Constraint returns the name of the constraint err violated, or "" if it is unknown.
func Constraint(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is a ValidationError reporting msg on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{errors.New(msg), []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type notFound struct {
	message string
}

// NewNotFoundError returns an error matched by IsNotFound.
func NewNotFoundError(msg string) error {
	return &notFound{message: msg}
}

func (nf notFound) Error() string {
	return nf.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*notFound)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
