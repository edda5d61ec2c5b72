package school

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

var (
	// errors
	ErrDepartmentNotFound = core.NewNotFoundError("department not found")
	ErrCourseNotFound     = core.NewNotFoundError("course not found")
	ErrTeacherNotFound    = core.NewNotFoundError("teacher not found")
	ErrStudentNotFound    = core.NewNotFoundError("student not found")

	studentOrderingFields = map[string]string{
		"id":    "s.id",
		"name":  "s.name",
		"age":   "s.age",
		"grade": "s.grade",
		"email": "s.email",
	}
)

type (
	Repository interface {
		CreateDepartment(ctx context.Context, dept Department, exec ...core.DBExecutor) (Department, error)
		// QueryDepartments returns all departments ordered by ID.
		QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]Department, error)
		GetDepartment(ctx context.Context, id int, exec ...core.DBExecutor) (Department, error)
		UpdateDepartment(ctx context.Context, dept Department, exec ...core.DBExecutor) (Department, error)
		DeleteDepartment(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateTeacher(ctx context.Context, tchr Teacher, exec ...core.DBExecutor) (Teacher, error)
		QueryTeachers(ctx context.Context, exec ...core.DBExecutor) ([]Teacher, error)
		GetTeacher(ctx context.Context, filter TeacherGetFilter, exec ...core.DBExecutor) (Teacher, error)
		UpdateTeacher(ctx context.Context, tchr Teacher, exec ...core.DBExecutor) (Teacher, error)
		DeleteTeacher(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		// QueryCourses returns the courses matching filter ordered by name.
		QueryCourses(ctx context.Context, filter CourseFilter, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		// QueryStudents returns one page of the distinct students matching filter, and the total count of matches.
		QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]Student, int, error)
		GetStudent(ctx context.Context, filter StudentGetFilter, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error
		// StudentCourses returns the courses the student is enrolled in, ordered by name.
		StudentCourses(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]Course, error)
		SetStudentCourses(ctx context.Context, studentID int, courseIDs []int, exec ...core.DBExecutor) error
	}

	// Directory resolves the school records behind an account. It performs no authorization.
	Directory interface {
		TeacherOf(ctx context.Context, actor *user.Actor) (Teacher, error)
		StudentOf(ctx context.Context, actor *user.Actor) (Student, error)
		TeacherCourses(ctx context.Context, teacherID int) ([]Course, error)
		FindStudent(ctx context.Context, id int) (Student, error)
		FindCourse(ctx context.Context, id int) (Course, error)
	}

	TeacherDashboard struct {
		Teacher  *Teacher  `json:"teacher"`
		Courses  []Course  `json:"courses"`
		Students []Student `json:"students"`
	}

	StudentDashboard struct {
		Student Student  `json:"student"`
		Courses []Course `json:"courses"`
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		validate *validator.Validate
	}
)

var _ Directory = (*Service)(nil)

func NewService(repo Repository, tx core.Transactor, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{repo: repo, tx: tx, validate: validate}
}

// Departments

func (svc *Service) CreateDepartment(ctx context.Context, actor *user.Actor, nd NewDepartment) (Department, error) {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return Department{}, err
	}
	nd.Clean()
	if err := svc.validate.Struct(nd); err != nil {
		return Department{}, err
	}
	dept, err := svc.repo.CreateDepartment(ctx, Department{Name: nd.Name})
	return dept, translateWriteErr(err, "name", "a department with this name already exists")
}

func (svc *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx)
}

func (svc *Service) GetDepartment(ctx context.Context, id int) (Department, error) {
	return svc.repo.GetDepartment(ctx, id)
}

func (svc *Service) UpdateDepartment(ctx context.Context, actor *user.Actor, id int, nd NewDepartment) (Department, error) {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return Department{}, err
	}
	nd.Clean()
	if err := svc.validate.Struct(nd); err != nil {
		return Department{}, err
	}
	dept, err := svc.repo.UpdateDepartment(ctx, Department{ID: id, Name: nd.Name})
	return dept, translateWriteErr(err, "name", "a department with this name already exists")
}

// DeleteDepartment deletes the department along with its courses. Its students are kept, without department.
func (svc *Service) DeleteDepartment(ctx context.Context, actor *user.Actor, id int) error {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return err
	}
	return svc.repo.DeleteDepartment(ctx, id)
}

// Teachers

func (svc *Service) CreateTeacher(ctx context.Context, actor *user.Actor, nt NewTeacher) (Teacher, error) {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return Teacher{}, err
	}
	nt.Clean()
	if err := svc.validate.Struct(nt); err != nil {
		return Teacher{}, err
	}
	tchr, err := svc.repo.CreateTeacher(ctx, Teacher{Name: nt.Name, UserID: nt.UserID})
	return tchr, translateWriteErr(err, "user_id", "this account is already linked to a teacher")
}

func (svc *Service) ListTeachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *Service) GetTeacher(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, TeacherGetFilter{ID: id})
}

func (svc *Service) UpdateTeacher(ctx context.Context, actor *user.Actor, id int, nt NewTeacher) (Teacher, error) {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return Teacher{}, err
	}
	nt.Clean()
	if err := svc.validate.Struct(nt); err != nil {
		return Teacher{}, err
	}
	tchr, err := svc.repo.UpdateTeacher(ctx, Teacher{ID: id, Name: nt.Name, UserID: nt.UserID})
	return tchr, translateWriteErr(err, "user_id", "this account is already linked to a teacher")
}

// DeleteTeacher deletes the teacher. Its courses are kept, without teacher.
func (svc *Service) DeleteTeacher(ctx context.Context, actor *user.Actor, id int) error {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return err
	}
	return svc.repo.DeleteTeacher(ctx, id)
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, actor *user.Actor, nc NewCourse) (Course, error) {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return Course{}, err
	}
	crs, err := svc.cleanCourse(ctx, nc)
	if err != nil {
		return Course{}, err
	}
	crs, err = svc.repo.CreateCourse(ctx, crs)
	return crs, translateWriteErr(err, "code", "a course with this code already exists")
}

func (svc *Service) ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) GetCourse(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) UpdateCourse(ctx context.Context, actor *user.Actor, id int, nc NewCourse) (Course, error) {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return Course{}, err
	}
	crs, err := svc.cleanCourse(ctx, nc)
	if err != nil {
		return Course{}, err
	}
	crs.ID = id
	crs, err = svc.repo.UpdateCourse(ctx, crs)
	return crs, translateWriteErr(err, "code", "a course with this code already exists")
}

// DeleteCourse deletes the course along with its exams, grades, attendance records and enrollments.
func (svc *Service) DeleteCourse(ctx context.Context, actor *user.Actor, id int) error {
	if err := actor.Require(user.CapManageCatalogue); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) cleanCourse(ctx context.Context, nc NewCourse) (Course, error) {
	nc.Clean()
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, err
	}
	if _, err := svc.repo.GetDepartment(ctx, nc.DepartmentID); err != nil {
		if core.IsNotFound(err) {
			return Course{}, core.NewFieldError("department_id", "department does not exist")
		}
		return Course{}, errors.Wrap(err, "getting department")
	}
	if nc.TeacherID != nil {
		if _, err := svc.repo.GetTeacher(ctx, TeacherGetFilter{ID: *nc.TeacherID}); err != nil {
			if core.IsNotFound(err) {
				return Course{}, core.NewFieldError("teacher_id", "teacher does not exist")
			}
			return Course{}, errors.Wrap(err, "getting teacher")
		}
	}
	return Course{
		Name:         nc.Name,
		Code:         nc.Code,
		Credits:      nc.Credits,
		DepartmentID: nc.DepartmentID,
		TeacherID:    nc.TeacherID,
	}, nil
}

// Students

// ListStudents returns a page of the students matching filter.
func (svc *Service) ListStudents(ctx context.Context, actor *user.Actor, filter StudentFilter, ordering []core.DBOrdering, page core.Page) (StudentPage, error) {
	if err := actor.Require(user.CapViewStudent); err != nil {
		return StudentPage{}, err
	}
	filter.Clean()
	page = page.Clean(DefaultPageSize, MaxPageSize)
	ordering = core.CleanOrdering(ordering, studentOrderingFields)

	students, count, err := svc.repo.QueryStudents(ctx, filter, ordering, page)
	if err != nil {
		return StudentPage{}, errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []Student{}
	}
	return StudentPage{Count: count, Page: page.Number, PageSize: page.Size, Results: students}, nil
}

func (svc *Service) CreateStudent(ctx context.Context, actor *user.Actor, ns NewStudent) (Student, error) {
	if err := actor.Require(user.CapAddStudent); err != nil {
		return Student{}, err
	}
	std, err := svc.cleanStudent(ctx, ns)
	if err != nil {
		return Student{}, err
	}
	std, err = svc.repo.CreateStudent(ctx, std)
	return std, translateWriteErr(err, "user_id", "this account is already linked to a student")
}

func (svc *Service) GetStudent(ctx context.Context, actor *user.Actor, id int) (StudentDetail, error) {
	if err := actor.Require(user.CapViewStudent); err != nil {
		return StudentDetail{}, err
	}
	std, err := svc.repo.GetStudent(ctx, StudentGetFilter{ID: id})
	if err != nil {
		return StudentDetail{}, err
	}
	return svc.studentDetail(ctx, std)
}

func (svc *Service) UpdateStudent(ctx context.Context, actor *user.Actor, id int, ns NewStudent) (Student, error) {
	if err := actor.Require(user.CapChangeStudent); err != nil {
		return Student{}, err
	}
	std, err := svc.cleanStudent(ctx, ns)
	if err != nil {
		return Student{}, err
	}
	std.ID = id
	std, err = svc.repo.UpdateStudent(ctx, std)
	return std, translateWriteErr(err, "user_id", "this account is already linked to a student")
}

func (svc *Service) DeleteStudent(ctx context.Context, actor *user.Actor, id int) error {
	if err := actor.Require(user.CapDeleteStudent); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(ctx, id)
}

// EnrollStudent replaces the courses the student is enrolled in.
func (svc *Service) EnrollStudent(ctx context.Context, actor *user.Actor, id int, enr Enrollment) (StudentDetail, error) {
	if err := actor.Require(user.CapChangeStudent); err != nil {
		return StudentDetail{}, err
	}
	std, err := svc.repo.GetStudent(ctx, StudentGetFilter{ID: id})
	if err != nil {
		return StudentDetail{}, err
	}

	courseIDs := uniqueInts(enr.CourseIDs)
	if len(courseIDs) > 0 {
		courses, err := svc.repo.QueryCourses(ctx, CourseFilter{IDs: courseIDs})
		if err != nil {
			return StudentDetail{}, errors.Wrap(err, "querying courses")
		}
		if len(courses) != len(courseIDs) {
			return StudentDetail{}, core.NewFieldError("course_ids", "one or more courses do not exist")
		}
	}

	err = svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		return svc.repo.SetStudentCourses(ctx, std.ID, courseIDs, exec)
	})
	if err != nil {
		return StudentDetail{}, errors.Wrap(err, "setting student courses")
	}
	return svc.studentDetail(ctx, std)
}

func (svc *Service) cleanStudent(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}
	if ns.DepartmentID != nil {
		if _, err := svc.repo.GetDepartment(ctx, *ns.DepartmentID); err != nil {
			if core.IsNotFound(err) {
				return Student{}, core.NewFieldError("department_id", "department does not exist")
			}
			return Student{}, errors.Wrap(err, "getting department")
		}
	}
	return Student{
		Name:         ns.Name,
		Age:          ns.Age,
		Grade:        ns.Grade,
		Email:        ns.Email,
		DepartmentID: ns.DepartmentID,
		UserID:       ns.UserID,
	}, nil
}

func (svc *Service) studentDetail(ctx context.Context, std Student) (StudentDetail, error) {
	detail := StudentDetail{Student: std}
	if std.DepartmentID != nil {
		dept, err := svc.repo.GetDepartment(ctx, *std.DepartmentID)
		if err != nil && !core.IsNotFound(err) {
			return StudentDetail{}, errors.Wrap(err, "getting department")
		}
		if err == nil {
			detail.Department = &dept
		}
	}
	courses, err := svc.repo.StudentCourses(ctx, std.ID)
	if err != nil {
		return StudentDetail{}, errors.Wrap(err, "getting student courses")
	}
	if courses == nil {
		courses = []Course{}
	}
	detail.Courses = courses
	return detail, nil
}

// Dashboards

// TeacherDashboard lists all students along with the teacher's own courses.
func (svc *Service) TeacherDashboard(ctx context.Context, actor *user.Actor) (TeacherDashboard, error) {
	if actor == nil || actor.Kind != user.RoleKindTeacher {
		return TeacherDashboard{}, core.ErrForbidden
	}

	dash := TeacherDashboard{Courses: []Course{}}
	tchr, err := svc.TeacherOf(ctx, actor)
	switch {
	case err == nil:
		dash.Teacher = &tchr
		if dash.Courses, err = svc.TeacherCourses(ctx, tchr.ID); err != nil {
			return TeacherDashboard{}, err
		}
	case !core.IsNotFound(err):
		return TeacherDashboard{}, err
	}

	students, _, err := svc.repo.QueryStudents(ctx, StudentFilter{}, []core.DBOrdering{{Field: "s.name", Ascending: true}}, core.Page{})
	if err != nil {
		return TeacherDashboard{}, errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []Student{}
	}
	dash.Students = students
	return dash, nil
}

// StudentDashboard lists the courses the acting student is enrolled in.
func (svc *Service) StudentDashboard(ctx context.Context, actor *user.Actor) (StudentDashboard, error) {
	if actor == nil || actor.Kind != user.RoleKindStudent {
		return StudentDashboard{}, core.ErrForbidden
	}
	std, err := svc.StudentOf(ctx, actor)
	if err != nil {
		return StudentDashboard{}, err
	}
	courses, err := svc.repo.StudentCourses(ctx, std.ID)
	if err != nil {
		return StudentDashboard{}, errors.Wrap(err, "getting student courses")
	}
	if courses == nil {
		courses = []Course{}
	}
	return StudentDashboard{Student: std, Courses: courses}, nil
}

// Directory

func (svc *Service) TeacherOf(ctx context.Context, actor *user.Actor) (Teacher, error) {
	if actor == nil || actor.UserID == "" {
		return Teacher{}, ErrTeacherNotFound
	}
	return svc.repo.GetTeacher(ctx, TeacherGetFilter{UserID: actor.UserID})
}

func (svc *Service) StudentOf(ctx context.Context, actor *user.Actor) (Student, error) {
	if actor == nil || actor.UserID == "" {
		return Student{}, ErrStudentNotFound
	}
	return svc.repo.GetStudent(ctx, StudentGetFilter{UserID: actor.UserID})
}

// TeacherCourses returns exactly the courses taught by teacherID.
func (svc *Service) TeacherCourses(ctx context.Context, teacherID int) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, CourseFilter{TeacherID: &teacherID})
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher courses")
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

func (svc *Service) FindStudent(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, StudentGetFilter{ID: id})
}

func (svc *Service) FindCourse(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

// translateWriteErr maps repository constraint errors to validation errors on field.
func translateWriteErr(err error, field, duplicateMsg string) error {
	switch errors.Cause(err) {
	case nil:
		return nil
	case core.ErrDuplicate:
		return core.NewFieldError(field, duplicateMsg)
	case core.ErrReference:
		return core.NewFieldError(field, "referenced record does not exist")
	default:
		return err
	}
}

func uniqueInts(ints []int) []int {
	seen := make(map[int]bool, len(ints))
	unique := make([]int, 0, len(ints))
	for _, i := range ints {
		if !seen[i] {
			seen[i] = true
			unique = append(unique, i)
		}
	}
	return unique
}
