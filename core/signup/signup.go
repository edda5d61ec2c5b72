// Package signup provisions self-registered accounts.
package signup

import (
	"context"
	"net/mail"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Request is the signup form.
type Request struct {
	Name      string `json:"name" validate:"max=100"`
	Username  string `json:"username" validate:"required,min=3,max=100,alphanum_"`
	Email     string `json:"email" validate:"required,email"`
	Password1 string `json:"password1" validate:"required"`
	Password2 string `json:"password2" validate:"required,eqfield=Password1"`
	Role      string `json:"role" validate:"required,oneof=student teacher"`
}

func (r *Request) Clean() {
	r.Name = core.CleanString(r.Name)
	r.Username = core.CleanString(r.Username, true /* lower */)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Role = core.CleanString(r.Role, true /* lower */)
}

// Result is the outcome of a successful signup.
type Result struct {
	User    user.User       `json:"user"`
	Student *school.Student `json:"student,omitempty"`
	Landing user.Landing    `json:"landing"`
}

// StudentStore is the part of school.Repository signup writes through.
type StudentStore interface {
	CreateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error)
	GetDepartment(ctx context.Context, id int, exec ...core.DBExecutor) (school.Department, error)
	QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]school.Department, error)
}

type Service struct {
	tx       core.Transactor
	usrSvc   user.Service
	students StudentStore
	mailSvc  core.EmailService
	conf     *core.Config
	validate *validator.Validate
}

func NewService(
	tx core.Transactor,
	usrSvc user.Service,
	students StudentStore,
	mailSvc core.EmailService,
	conf *core.Config,
	validate *validator.Validate,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(usrSvc, "usrSvc"),
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{
		tx:       tx,
		usrSvc:   usrSvc,
		students: students,
		mailSvc:  mailSvc,
		conf:     conf,
		validate: validate,
	}
}

// InitValidators registers the signup form validators.
func InitValidators(validate *validator.Validate, _ ut.Translator) {
	validate.RegisterStructValidation(requestStructValidation, Request{})
}

func requestStructValidation(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(Request)
	if !ok || req.Password1 == "" {
		return
	}
	if tag := user.CheckPasswordPolicy(req.Password1, req.Name, req.Username, req.Email); tag != "" {
		sl.ReportError(req.Password1, "password1", "Password1", tag, "")
	}
}

// Signup validates req then, in one transaction, creates the account in the requested role group
// and, for students, its Student record. Nothing is persisted when any step fails.
func (svc *Service) Signup(ctx context.Context, req Request) (Result, error) {
	req.Clean()
	if err := svc.validate.Struct(req); err != nil {
		return Result{}, err
	}
	if req.Name == "" {
		req.Name = req.Username
	}
	if err := svc.usrSvc.CheckUniqueness(ctx, req.Username, req.Email); err != nil {
		return Result{}, err
	}

	var res Result
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		usr, err := svc.usrSvc.Create(ctx, user.NewUser{
			Name:     req.Name,
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password1,
			Roles:    rolesFor(req.Role),
		}, exec)
		if err != nil {
			return errors.Wrap(err, "creating user")
		}
		res.User = usr

		if req.Role != RoleStudent {
			return nil
		}
		deptID, err := svc.defaultDepartment(ctx, exec)
		if err != nil {
			return errors.Wrap(err, "finding default department")
		}
		std, err := svc.students.CreateStudent(ctx, school.Student{
			Name:         req.Username,
			Age:          svc.conf.Signup.DefaultAge,
			Grade:        svc.conf.Signup.DefaultGrade,
			Email:        req.Email,
			DepartmentID: deptID,
			UserID:       &usr.ID,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "creating student")
		}
		res.Student = &std
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res.Landing = user.LandingFor(user.ActorFromUser(res.User))
	svc.sendWelcomeMail(res.User, req.Role)
	return res, nil
}

// defaultDepartment returns the configured signup department, or the first one, or nil if there is none.
func (svc *Service) defaultDepartment(ctx context.Context, exec core.DBExecutor) (*int, error) {
	if id := svc.conf.Signup.DefaultDepartmentID; id > 0 {
		dept, err := svc.students.GetDepartment(ctx, id, exec)
		if err == nil {
			return &dept.ID, nil
		}
		if !core.IsNotFound(err) {
			return nil, err
		}
	}

	depts, err := svc.students.QueryDepartments(ctx, exec)
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return nil, nil
	}
	return &depts[0].ID, nil
}

func (svc *Service) sendWelcomeMail(usr user.User, role string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"Name":     usr.Name,
			"Username": usr.Username,
			"Role":     role,
		},
	})
}

func rolesFor(role string) []string {
	switch role {
	case RoleTeacher:
		return []string{user.RoleTeacher}
	case RoleStudent:
		return []string{user.RoleStudent}
	default:
		return nil
	}
}
