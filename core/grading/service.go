// Package grading records exam grades and folds them into per-course and per-student summaries.
package grading

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

const dateLayout = "2006-01-02"

var (
	// errors
	ErrExamNotFound = core.NewNotFoundError("exam not found")

	errNotYourCourse   = "select one of your courses"
	errAlreadyGraded   = "a grade already exists for this student, exam and course"
	errExamNotInCourse = "exam does not belong to this course"
)

type Grade struct {
	ID        int     `json:"id"`
	StudentID int     `json:"student_id"`
	ExamID    int     `json:"exam_id"`
	CourseID  int     `json:"course_id"`
	Score     float64 `json:"score"`
}

// NewGrade contains information needed to record a Grade.
type NewGrade struct {
	StudentID int      `json:"student_id" validate:"required"`
	ExamID    int      `json:"exam_id" validate:"required"`
	CourseID  int      `json:"course_id" validate:"required"`
	Score     *float64 `json:"score" validate:"required,min=0"`
}

// NewExam contains information needed to create an Exam. Date defaults to today (UTC).
type NewExam struct {
	Name     string `json:"name" validate:"required,max=50"`
	CourseID int    `json:"course_id" validate:"required"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (ne *NewExam) Clean() {
	ne.Name = core.CleanString(ne.Name)
	ne.Date = core.CleanString(ne.Date)
}

// RowFilter selects the grade rows to aggregate; empty fields are ignored.
type RowFilter struct {
	StudentID int
	CourseIDs []int
}

type Repository interface {
	CreateExam(ctx context.Context, exam Exam, exec ...core.DBExecutor) (Exam, error)
	GetExam(ctx context.Context, id int, exec ...core.DBExecutor) (Exam, error)
	// QueryExams returns the exams of the courses, ordered by date then ID.
	QueryExams(ctx context.Context, courseIDs []int, exec ...core.DBExecutor) ([]Exam, error)
	// CreateGrade returns core.ErrDuplicate if the (student, exam, course) grade already exists.
	CreateGrade(ctx context.Context, grade Grade, exec ...core.DBExecutor) (Grade, error)
	QueryGradeRows(ctx context.Context, filter RowFilter, exec ...core.DBExecutor) ([]Row, error)
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

// CourseOptions returns the courses the acting teacher may grade: exactly their own.
func (svc *Service) CourseOptions(ctx context.Context, actor *user.Actor) ([]school.Course, error) {
	tchr, err := svc.actingTeacher(ctx, actor)
	if err != nil {
		return nil, err
	}
	return svc.dir.TeacherCourses(ctx, tchr.ID)
}

// CreateExam adds an exam to one of the acting teacher's courses.
func (svc *Service) CreateExam(ctx context.Context, actor *user.Actor, ne NewExam) (Exam, error) {
	tchr, err := svc.actingTeacher(ctx, actor)
	if err != nil {
		return Exam{}, err
	}
	ne.Clean()
	if err = svc.validate.Struct(ne); err != nil {
		return Exam{}, err
	}
	if err = svc.checkCourse(ctx, tchr, ne.CourseID); err != nil {
		return Exam{}, err
	}

	date := svc.nowFunc().UTC().Truncate(24 * time.Hour)
	if ne.Date != "" {
		if date, err = time.Parse(dateLayout, ne.Date); err != nil {
			return Exam{}, core.NewFieldError("date", "invalid date, expected format is YYYY-MM-DD")
		}
	}

	exam, err := svc.repo.CreateExam(ctx, Exam{Name: ne.Name, CourseID: ne.CourseID, Date: date})
	if err != nil {
		return Exam{}, errors.Wrap(err, "creating exam")
	}
	return exam, nil
}

// ListExams returns the exams of one of the acting teacher's courses, or of all of them when courseID is 0.
func (svc *Service) ListExams(ctx context.Context, actor *user.Actor, courseID int) ([]Exam, error) {
	courses, err := svc.CourseOptions(ctx, actor)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(courses))
	for _, crs := range courses {
		if courseID == 0 || crs.ID == courseID {
			ids = append(ids, crs.ID)
		}
	}
	if len(ids) == 0 {
		if courseID != 0 {
			return nil, core.NewFieldError("course", errNotYourCourse)
		}
		return []Exam{}, nil
	}

	exams, err := svc.repo.QueryExams(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	if exams == nil {
		exams = []Exam{}
	}
	return exams, nil
}

// Record stores the grade of a student for an exam of one of the acting teacher's courses.
// The score must lie within [0, exam max score]; an existing grade is never overwritten.
func (svc *Service) Record(ctx context.Context, actor *user.Actor, ng NewGrade) (Grade, error) {
	tchr, err := svc.actingTeacher(ctx, actor)
	if err != nil {
		return Grade{}, err
	}
	if err = svc.validate.Struct(ng); err != nil {
		return Grade{}, err
	}
	if err = svc.checkCourse(ctx, tchr, ng.CourseID); err != nil {
		return Grade{}, err
	}

	exam, err := svc.repo.GetExam(ctx, ng.ExamID)
	if err != nil {
		if core.IsNotFound(err) {
			return Grade{}, core.NewFieldError("exam_id", "exam does not exist")
		}
		return Grade{}, errors.Wrap(err, "getting exam")
	}
	if exam.CourseID != ng.CourseID {
		return Grade{}, core.NewFieldError("exam_id", errExamNotInCourse)
	}
	if maxScore := exam.MaxScore(); *ng.Score > maxScore {
		return Grade{}, core.NewFieldError("score", fmt.Sprintf("score cannot exceed %s for a %s", formatScore(maxScore), exam.Category()))
	}

	if _, err = svc.dir.FindStudent(ctx, ng.StudentID); err != nil {
		if core.IsNotFound(err) {
			return Grade{}, core.NewFieldError("student_id", "student does not exist")
		}
		return Grade{}, errors.Wrap(err, "finding student")
	}

	grade, err := svc.repo.CreateGrade(ctx, Grade{
		StudentID: ng.StudentID,
		ExamID:    ng.ExamID,
		CourseID:  ng.CourseID,
		Score:     *ng.Score,
	})
	if err != nil {
		if errors.Cause(err) == core.ErrDuplicate {
			return Grade{}, core.NewValidationError(errors.New(errAlreadyGraded))
		}
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	return grade, nil
}

// StudentReport summarizes the acting student's grades per course.
func (svc *Service) StudentReport(ctx context.Context, actor *user.Actor) (school.Student, []CourseSummary, error) {
	if actor == nil || actor.Kind != user.RoleKindStudent {
		return school.Student{}, nil, core.ErrForbidden
	}
	std, err := svc.dir.StudentOf(ctx, actor)
	if err != nil {
		return school.Student{}, nil, err
	}
	rows, err := svc.repo.QueryGradeRows(ctx, RowFilter{StudentID: std.ID})
	if err != nil {
		return school.Student{}, nil, errors.Wrap(err, "querying grades")
	}
	return std, SummarizeByCourse(rows), nil
}

// TeacherReport summarizes, per student, the grades of the acting teacher's courses.
func (svc *Service) TeacherReport(ctx context.Context, actor *user.Actor) ([]StudentSummary, error) {
	courses, err := svc.CourseOptions(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []StudentSummary{}, nil
	}
	ids := make([]int, 0, len(courses))
	for _, crs := range courses {
		ids = append(ids, crs.ID)
	}
	rows, err := svc.repo.QueryGradeRows(ctx, RowFilter{CourseIDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return SummarizeByStudent(rows), nil
}

func (svc *Service) checkCourse(ctx context.Context, tchr school.Teacher, courseID int) error {
	crs, err := svc.dir.FindCourse(ctx, courseID)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "finding course")
	}
	if err != nil || !crs.OwnedBy(tchr.ID) {
		return core.NewFieldError("course_id", errNotYourCourse)
	}
	return nil
}

func (svc *Service) actingTeacher(ctx context.Context, actor *user.Actor) (school.Teacher, error) {
	if err := actor.Require(user.CapRecordGrade); err != nil {
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

func formatScore(f float64) string {
	return fmt.Sprintf("%g", f)
}
