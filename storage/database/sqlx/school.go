package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
)

type (
	teacherRow struct {
		ID     int         `db:"id"`
		Name   string      `db:"name"`
		UserID null.String `db:"user_id"`
	}

	courseRow struct {
		ID           int      `db:"id"`
		Name         string   `db:"name"`
		Code         string   `db:"code"`
		Credits      int      `db:"credits"`
		DepartmentID int      `db:"department_id"`
		TeacherID    null.Int `db:"teacher_id"`
	}

	studentRow struct {
		ID           int         `db:"id"`
		Name         string      `db:"name"`
		Age          int         `db:"age"`
		Grade        string      `db:"grade"`
		Email        string      `db:"email"`
		DepartmentID null.Int    `db:"department_id"`
		UserID       null.String `db:"user_id"`
	}
)

var (
	teacherColumns = []string{"id", "name", "user_id"}
	courseColumns  = []string{"c.id", "c.name", "c.code", "c.credits", "c.department_id", "c.teacher_id"}
	studentColumns = []string{"s.id", "s.name", "s.age", "s.grade", "s.email", "s.department_id", "s.user_id"}
)

func (row teacherRow) teacher() school.Teacher {
	return school.Teacher{ID: row.ID, Name: row.Name, UserID: row.UserID.Ptr()}
}

func (row courseRow) course() school.Course {
	crs := school.Course{
		ID:           row.ID,
		Name:         row.Name,
		Code:         row.Code,
		Credits:      row.Credits,
		DepartmentID: row.DepartmentID,
	}
	if row.TeacherID.Valid {
		id := row.TeacherID.Int
		crs.TeacherID = &id
	}
	return crs
}

func (row studentRow) student() school.Student {
	std := school.Student{
		ID:     row.ID,
		Name:   row.Name,
		Age:    row.Age,
		Grade:  row.Grade,
		Email:  row.Email,
		UserID: row.UserID.Ptr(),
	}
	if row.DepartmentID.Valid {
		id := row.DepartmentID.Int
		std.DepartmentID = &id
	}
	return std
}

func intFromPtr(i *int) null.Int {
	if i == nil {
		return null.Int{}
	}
	return null.IntFrom(*i)
}

func courses(rows []courseRow) []school.Course {
	out := make([]school.Course, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.course())
	}
	return out
}

type schoolRepository struct {
	repo
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{repo{db: db}}
}

// Departments

func (r schoolRepository) CreateDepartment(ctx context.Context, dept school.Department, exec ...core.DBExecutor) (school.Department, error) {
	id, err := r.insert(ctx, exec, psql.Insert("department").Columns("name").Values(dept.Name))
	if err != nil {
		return school.Department{}, translateErr(err, nil, "inserting department")
	}
	dept.ID = id
	return dept, nil
}

func (r schoolRepository) QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]school.Department, error) {
	depts := []school.Department{}
	b := psql.Select("id", "name").From("department").OrderBy("id ASC")
	if err := r.selectAll(ctx, exec, &depts, b); err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	return depts, nil
}

func (r schoolRepository) GetDepartment(ctx context.Context, id int, exec ...core.DBExecutor) (school.Department, error) {
	var dept school.Department
	b := psql.Select("id", "name").From("department").Where(sq.Eq{"id": id})
	if err := r.get(ctx, exec, &dept, b); err != nil {
		return school.Department{}, translateErr(err, school.ErrDepartmentNotFound, "getting department")
	}
	return dept, nil
}

func (r schoolRepository) UpdateDepartment(ctx context.Context, dept school.Department, exec ...core.DBExecutor) (school.Department, error) {
	b := psql.Update("department").Set("name", dept.Name).Where(sq.Eq{"id": dept.ID})
	if err := r.execAffecting(ctx, exec, b, school.ErrDepartmentNotFound); err != nil {
		return school.Department{}, translateErr(err, school.ErrDepartmentNotFound, "updating department")
	}
	return dept, nil
}

func (r schoolRepository) DeleteDepartment(ctx context.Context, id int, exec ...core.DBExecutor) error {
	b := psql.Delete("department").Where(sq.Eq{"id": id})
	return translateErr(r.execAffecting(ctx, exec, b, school.ErrDepartmentNotFound), nil, "deleting department")
}

// Teachers

func (r schoolRepository) CreateTeacher(ctx context.Context, tchr school.Teacher, exec ...core.DBExecutor) (school.Teacher, error) {
	b := psql.Insert("teacher").Columns("name", "user_id").Values(tchr.Name, null.StringFromPtr(tchr.UserID))
	id, err := r.insert(ctx, exec, b)
	if err != nil {
		return school.Teacher{}, translateErr(err, nil, "inserting teacher")
	}
	tchr.ID = id
	return tchr, nil
}

func (r schoolRepository) QueryTeachers(ctx context.Context, exec ...core.DBExecutor) ([]school.Teacher, error) {
	var rows []teacherRow
	b := psql.Select(teacherColumns...).From("teacher").OrderBy("name ASC", "id ASC")
	if err := r.selectAll(ctx, exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]school.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.teacher())
	}
	return teachers, nil
}

func (r schoolRepository) GetTeacher(ctx context.Context, filter school.TeacherGetFilter, exec ...core.DBExecutor) (school.Teacher, error) {
	b := psql.Select(teacherColumns...).From("teacher")
	switch {
	case filter.ID != 0:
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.UserID != "":
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return school.Teacher{}, school.ErrTeacherNotFound
		}
		b = b.Where(sq.Eq{"user_id": filter.UserID})
	default:
		return school.Teacher{}, school.ErrTeacherNotFound
	}

	var row teacherRow
	if err := r.get(ctx, exec, &row, b); err != nil {
		return school.Teacher{}, translateErr(err, school.ErrTeacherNotFound, "getting teacher")
	}
	return row.teacher(), nil
}

func (r schoolRepository) UpdateTeacher(ctx context.Context, tchr school.Teacher, exec ...core.DBExecutor) (school.Teacher, error) {
	b := psql.Update("teacher").
		Set("name", tchr.Name).
		Set("user_id", null.StringFromPtr(tchr.UserID)).
		Where(sq.Eq{"id": tchr.ID})
	if err := r.execAffecting(ctx, exec, b, school.ErrTeacherNotFound); err != nil {
		return school.Teacher{}, translateErr(err, school.ErrTeacherNotFound, "updating teacher")
	}
	return tchr, nil
}

func (r schoolRepository) DeleteTeacher(ctx context.Context, id int, exec ...core.DBExecutor) error {
	b := psql.Delete("teacher").Where(sq.Eq{"id": id})
	return translateErr(r.execAffecting(ctx, exec, b, school.ErrTeacherNotFound), nil, "deleting teacher")
}

// Courses

func (r schoolRepository) CreateCourse(ctx context.Context, crs school.Course, exec ...core.DBExecutor) (school.Course, error) {
	b := psql.Insert("course").
		Columns("name", "code", "credits", "department_id", "teacher_id").
		Values(crs.Name, crs.Code, crs.Credits, crs.DepartmentID, intFromPtr(crs.TeacherID))
	id, err := r.insert(ctx, exec, b)
	if err != nil {
		return school.Course{}, translateErr(err, nil, "inserting course")
	}
	crs.ID = id
	return crs, nil
}

func (r schoolRepository) QueryCourses(ctx context.Context, filter school.CourseFilter, exec ...core.DBExecutor) ([]school.Course, error) {
	b := psql.Select(courseColumns...).From("course c")
	if filter.TeacherID != nil {
		b = b.Where(sq.Eq{"c.teacher_id": *filter.TeacherID})
	}
	if filter.DepartmentID != nil {
		b = b.Where(sq.Eq{"c.department_id": *filter.DepartmentID})
	}
	if filter.IDs != nil {
		b = b.Where(sq.Eq{"c.id": filter.IDs})
	}

	var rows []courseRow
	if err := r.selectAll(ctx, exec, &rows, b.OrderBy("c.name ASC", "c.id ASC")); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses(rows), nil
}

func (r schoolRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (school.Course, error) {
	var row courseRow
	b := psql.Select(courseColumns...).From("course c").Where(sq.Eq{"c.id": id})
	if err := r.get(ctx, exec, &row, b); err != nil {
		return school.Course{}, translateErr(err, school.ErrCourseNotFound, "getting course")
	}
	return row.course(), nil
}

func (r schoolRepository) UpdateCourse(ctx context.Context, crs school.Course, exec ...core.DBExecutor) (school.Course, error) {
	b := psql.Update("course").SetMap(map[string]interface{}{
		"name":          crs.Name,
		"code":          crs.Code,
		"credits":       crs.Credits,
		"department_id": crs.DepartmentID,
		"teacher_id":    intFromPtr(crs.TeacherID),
	}).Where(sq.Eq{"id": crs.ID})
	if err := r.execAffecting(ctx, exec, b, school.ErrCourseNotFound); err != nil {
		return school.Course{}, translateErr(err, school.ErrCourseNotFound, "updating course")
	}
	return crs, nil
}

func (r schoolRepository) DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error {
	b := psql.Delete("course").Where(sq.Eq{"id": id})
	return translateErr(r.execAffecting(ctx, exec, b, school.ErrCourseNotFound), nil, "deleting course")
}

// Students

func (r schoolRepository) CreateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	b := psql.Insert("student").
		Columns("name", "age", "grade", "email", "department_id", "user_id").
		Values(std.Name, std.Age, std.Grade, std.Email, intFromPtr(std.DepartmentID), null.StringFromPtr(std.UserID))
	id, err := r.insert(ctx, exec, b)
	if err != nil {
		return school.Student{}, translateErr(err, nil, "inserting student")
	}
	std.ID = id
	return std, nil
}

func (r schoolRepository) QueryStudents(ctx context.Context, filter school.StudentFilter, ordering []core.DBOrdering, page core.Page, exec ...core.DBExecutor) ([]school.Student, int, error) {
	where := sq.And{}
	if filter.Search != "" {
		val := containsPattern(filter.Search)
		where = append(where, sq.Or{
			sq.Expr("s.name ILIKE ?", val),
			sq.Expr("EXISTS (SELECT 1 FROM department d WHERE d.id = s.department_id AND d.name ILIKE ?)", val),
			sq.Expr(`EXISTS (
				SELECT 1 FROM student_course sc JOIN course c ON c.id = sc.course_id
				WHERE sc.student_id = s.id AND c.name ILIKE ?)`, val),
		})
	}

	countB := psql.Select("COUNT(*)").From("student s")
	b := psql.Select(studentColumns...).From("student s")
	if len(where) > 0 {
		countB = countB.Where(where)
		b = b.Where(where)
	}

	var count int
	if err := r.get(ctx, exec, &count, countB); err != nil {
		return nil, 0, errors.Wrap(err, "counting students")
	}

	b = b.OrderBy(orderBy(ordering, "s.id ASC")...)
	if page.Size > 0 {
		b = b.Limit(uint64(page.Size)).Offset(uint64(page.Offset()))
	}

	var rows []studentRow
	if err := r.selectAll(ctx, exec, &rows, b); err != nil {
		return nil, 0, errors.Wrap(err, "querying students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, count, nil
}

func (r schoolRepository) GetStudent(ctx context.Context, filter school.StudentGetFilter, exec ...core.DBExecutor) (school.Student, error) {
	b := psql.Select(studentColumns...).From("student s")
	switch {
	case filter.ID != 0:
		b = b.Where(sq.Eq{"s.id": filter.ID})
	case filter.UserID != "":
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return school.Student{}, school.ErrStudentNotFound
		}
		b = b.Where(sq.Eq{"s.user_id": filter.UserID})
	default:
		return school.Student{}, school.ErrStudentNotFound
	}

	var row studentRow
	if err := r.get(ctx, exec, &row, b); err != nil {
		return school.Student{}, translateErr(err, school.ErrStudentNotFound, "getting student")
	}
	return row.student(), nil
}

func (r schoolRepository) UpdateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	b := psql.Update("student").SetMap(map[string]interface{}{
		"name":          std.Name,
		"age":           std.Age,
		"grade":         std.Grade,
		"email":         std.Email,
		"department_id": intFromPtr(std.DepartmentID),
		"user_id":       null.StringFromPtr(std.UserID),
	}).Where(sq.Eq{"id": std.ID})
	if err := r.execAffecting(ctx, exec, b, school.ErrStudentNotFound); err != nil {
		return school.Student{}, translateErr(err, school.ErrStudentNotFound, "updating student")
	}
	return std, nil
}

func (r schoolRepository) DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	b := psql.Delete("student").Where(sq.Eq{"id": id})
	return translateErr(r.execAffecting(ctx, exec, b, school.ErrStudentNotFound), nil, "deleting student")
}

func (r schoolRepository) StudentCourses(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]school.Course, error) {
	b := psql.Select(courseColumns...).
		From("course c").
		Join("student_course sc ON sc.course_id = c.id").
		Where(sq.Eq{"sc.student_id": studentID}).
		OrderBy("c.name ASC", "c.id ASC")

	var rows []courseRow
	if err := r.selectAll(ctx, exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying student courses")
	}
	return courses(rows), nil
}

func (r schoolRepository) SetStudentCourses(ctx context.Context, studentID int, courseIDs []int, exec ...core.DBExecutor) error {
	q, args, err := psql.Delete("student_course").Where(sq.Eq{"student_id": studentID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = r.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "clearing student courses")
	}
	if len(courseIDs) == 0 {
		return nil
	}

	b := psql.Insert("student_course").Columns("student_id", "course_id")
	for _, id := range courseIDs {
		b = b.Values(studentID, id)
	}
	if q, args, err = b.ToSql(); err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = r.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return translateErr(err, nil, "enrolling student")
	}
	return nil
}
