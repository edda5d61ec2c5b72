package user

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/shulehub/shule/core"
)

func TestDuplicateError(t *testing.T) {
	errOther := errors.New("connection reset")
	studentDup := core.NewConstraintError(core.ErrDuplicate, "student_user_id_key")

	tests := []struct {
		name      string
		err       error
		wantField string
		wantSame  bool
	}{
		{name: "username", err: core.NewConstraintError(core.ErrDuplicate, UsernameConstraint), wantField: "username"},
		{name: "email", err: core.NewConstraintError(core.ErrDuplicate, EmailConstraint), wantField: "email"},
		{name: "wrapped email", err: errors.Wrap(core.NewConstraintError(core.ErrDuplicate, EmailConstraint), "creating user"), wantField: "email"},
		{name: "other constraint", err: studentDup, wantSame: true},
		{name: "not a duplicate", err: errOther, wantSame: true},
		{name: "nil", err: nil, wantSame: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DuplicateError(tt.err)
			if tt.wantSame {
				assert.Equal(t, tt.err, got)
				return
			}
			vErr, ok := got.(*core.ValidationError)
			if assert.True(t, ok, "got %T", got) && assert.Len(t, vErr.Fields, 1) {
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			}
		})
	}
}
