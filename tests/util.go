// Package testutil provides in-memory fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/grading"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
	logsvc "github.com/shulehub/shule/services/logger"
	inmemdb "github.com/shulehub/shule/storage/database/inmem"
)

// Repos groups the in-memory repositories sharing one DB.
type Repos struct {
	DB         *inmemdb.DB
	Tx         core.Transactor
	Users      user.Repository
	School     school.Repository
	Attendance attendance.Repository
	Grading    grading.Repository
}

func NewRepos() Repos {
	db := inmemdb.Open()
	return Repos{
		DB:         db,
		Tx:         inmemdb.NewTransactor(db),
		Users:      inmemdb.NewUserRepository(db),
		School:     inmemdb.NewSchoolRepository(db),
		Attendance: inmemdb.NewAttendanceRepository(db),
		Grading:    inmemdb.NewGradingRepository(db),
	}
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(zerolog.Nop(), conf)
}

// NewValidator returns a validator with the core and user validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateDepartment(t *testing.T, repo school.Repository, name string) school.Department {
	t.Helper()
	dept, err := repo.CreateDepartment(context.Background(), school.Department{Name: name})
	if err != nil {
		t.Fatalf("CreateDepartment() failed: %v", err)
	}
	return dept
}

// CreateTeacher creates a Teacher, linked to usr unless it is nil.
func CreateTeacher(t *testing.T, repo school.Repository, name string, usr *user.User) school.Teacher {
	t.Helper()
	tchr := school.Teacher{Name: name}
	if usr != nil {
		tchr.UserID = &usr.ID
	}
	tchr, err := repo.CreateTeacher(context.Background(), tchr)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}

// CreateCourse creates a Course taught by tchr unless it is nil.
func CreateCourse(t *testing.T, repo school.Repository, name, code string, dept school.Department, tchr *school.Teacher) school.Course {
	t.Helper()
	crs := school.Course{Name: name, Code: code, Credits: 3, DepartmentID: dept.ID}
	if tchr != nil {
		crs.TeacherID = &tchr.ID
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

// CreateStudent creates a Student in dept and linked to usr, each unless nil.
func CreateStudent(t *testing.T, repo school.Repository, name, email string, dept *school.Department, usr *user.User) school.Student {
	t.Helper()
	std := school.Student{Name: name, Age: 18, Grade: "10", Email: email}
	if dept != nil {
		std.DepartmentID = &dept.ID
	}
	if usr != nil {
		std.UserID = &usr.ID
	}
	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func Enroll(t *testing.T, repo school.Repository, std school.Student, courses ...school.Course) {
	t.Helper()
	ids := make([]int, 0, len(courses))
	for _, crs := range courses {
		ids = append(ids, crs.ID)
	}
	if err := repo.SetStudentCourses(context.Background(), std.ID, ids); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
}

func CreateExam(t *testing.T, repo grading.Repository, name string, crs school.Course, date time.Time) grading.Exam {
	t.Helper()
	exam, err := repo.CreateExam(context.Background(), grading.Exam{Name: name, CourseID: crs.ID, Date: date})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return exam
}

func CreateGrade(t *testing.T, repo grading.Repository, std school.Student, exam grading.Exam, score float64) grading.Grade {
	t.Helper()
	grade, err := repo.CreateGrade(context.Background(), grading.Grade{
		StudentID: std.ID,
		ExamID:    exam.ID,
		CourseID:  exam.CourseID,
		Score:     score,
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return grade
}

// Actor returns the policy actor of usr.
func Actor(usr user.User) *user.Actor {
	return user.ActorFromUser(usr)
}
