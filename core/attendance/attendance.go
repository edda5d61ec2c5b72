// Package attendance records daily presence of students in courses.
package attendance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

const dateLayout = "2006-01-02"

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

var errAlreadyMarked = "attendance already marked for this student, course and date"

type Attendance struct {
	ID        int       `json:"id"`
	StudentID int       `json:"student_id"`
	CourseID  int       `json:"course_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
}

// Record is an Attendance along with the names of its student and course.
type Record struct {
	Attendance
	StudentName string `json:"student_name"`
	CourseName  string `json:"course_name"`
}

// NewAttendance contains information needed to mark an Attendance. Date defaults to today (UTC).
type NewAttendance struct {
	StudentID int    `json:"student_id" validate:"required"`
	CourseID  int    `json:"course_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
}

func (na *NewAttendance) Clean() {
	na.Date = core.CleanString(na.Date)
	na.Status = core.CleanString(na.Status, true /* lower */)
}

// Filter selects attendance records; empty fields are ignored.
type Filter struct {
	StudentID int
	CourseIDs []int
}

type Repository interface {
	// CreateAttendance returns core.ErrDuplicate if the (student, course, date) record already exists.
	CreateAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (Attendance, error)
	// QueryAttendance returns the records matching filter, most recent first.
	QueryAttendance(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Record, error)
}

type Service struct {
	repo     Repository
	dir      school.Directory
	validate *validator.Validate
	nowFunc  func() time.Time // mockable
}

func NewService(repo Repository, dir school.Directory, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(dir, "dir"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{repo: repo, dir: dir, validate: validate, nowFunc: time.Now}
}

// CourseOptions returns the courses the acting teacher may mark attendance for: exactly their own.
func (svc *Service) CourseOptions(ctx context.Context, actor *user.Actor) ([]school.Course, error) {
	tchr, err := svc.actingTeacher(ctx, actor)
	if err != nil {
		return nil, err
	}
	return svc.dir.TeacherCourses(ctx, tchr.ID)
}

// Mark records the attendance of a student in one of the acting teacher's courses.
// An existing record for the same student, course and date is never overwritten.
func (svc *Service) Mark(ctx context.Context, actor *user.Actor, na NewAttendance) (Attendance, error) {
	tchr, err := svc.actingTeacher(ctx, actor)
	if err != nil {
		return Attendance{}, err
	}

	na.Clean()
	if err = svc.validate.Struct(na); err != nil {
		return Attendance{}, err
	}

	crs, err := svc.dir.FindCourse(ctx, na.CourseID)
	if err != nil && !core.IsNotFound(err) {
		return Attendance{}, errors.Wrap(err, "finding course")
	}
	if err != nil || !crs.OwnedBy(tchr.ID) {
		return Attendance{}, core.NewFieldError("course_id", "select one of your courses")
	}
	if _, err = svc.dir.FindStudent(ctx, na.StudentID); err != nil {
		if core.IsNotFound(err) {
			return Attendance{}, core.NewFieldError("student_id", "student does not exist")
		}
		return Attendance{}, errors.Wrap(err, "finding student")
	}

	date := svc.nowFunc().UTC().Truncate(24 * time.Hour)
	if na.Date != "" {
		if date, err = time.Parse(dateLayout, na.Date); err != nil {
			return Attendance{}, core.NewFieldError("date", "invalid date, expected format is YYYY-MM-DD")
		}
	}

	att, err := svc.repo.CreateAttendance(ctx, Attendance{
		StudentID: na.StudentID,
		CourseID:  na.CourseID,
		Date:      date,
		Status:    na.Status,
	})
	if err != nil {
		if errors.Cause(err) == core.ErrDuplicate {
			return Attendance{}, core.NewValidationError(errors.New(errAlreadyMarked))
		}
		return Attendance{}, errors.Wrap(err, "creating attendance")
	}
	return att, nil
}

// List returns the attendance records of the acting teacher's courses. Admins see every record.
func (svc *Service) List(ctx context.Context, actor *user.Actor) ([]Record, error) {
	if actor.IsAdmin() {
		return svc.query(ctx, Filter{})
	}
	courses, err := svc.CourseOptions(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []Record{}, nil
	}
	ids := make([]int, 0, len(courses))
	for _, crs := range courses {
		ids = append(ids, crs.ID)
	}
	return svc.query(ctx, Filter{CourseIDs: ids})
}

// ListMine returns the attendance records of the acting student.
func (svc *Service) ListMine(ctx context.Context, actor *user.Actor) ([]Record, error) {
	if actor == nil || actor.Kind != user.RoleKindStudent {
		return nil, core.ErrForbidden
	}
	std, err := svc.dir.StudentOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	return svc.query(ctx, Filter{StudentID: std.ID})
}

func (svc *Service) query(ctx context.Context, filter Filter) ([]Record, error) {
	records, err := svc.repo.QueryAttendance(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (svc *Service) actingTeacher(ctx context.Context, actor *user.Actor) (school.Teacher, error) {
	if err := actor.Require(user.CapRecordAttendance); err != nil {
		return school.Teacher{}, err
	}
	tchr, err := svc.dir.TeacherOf(ctx, actor)
	if err != nil {
		if core.IsNotFound(err) {
			return school.Teacher{}, core.ErrForbidden
		}
		return school.Teacher{}, errors.Wrap(err, "finding teacher")
	}
	return tchr, nil
}
