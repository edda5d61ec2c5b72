package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func copyIntPtr(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sortCourses(courses []school.Course) {
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].ID < courses[j].ID
	})
}

// cascades

func (t *tables) deleteCourse(id int) {
	delete(t.courses, id)
	for _, set := range t.enrollments {
		delete(set, id)
	}
	for aID, att := range t.attendance {
		if att.CourseID == id {
			delete(t.attendance, aID)
		}
	}
	for eID, exam := range t.exams {
		if exam.CourseID == id {
			delete(t.exams, eID)
		}
	}
	for gID, grade := range t.grades {
		if grade.CourseID == id {
			delete(t.grades, gID)
		}
	}
}

func (t *tables) deleteStudent(id int) {
	delete(t.students, id)
	delete(t.enrollments, id)
	for aID, att := range t.attendance {
		if att.StudentID == id {
			delete(t.attendance, aID)
		}
	}
	for gID, grade := range t.grades {
		if grade.StudentID == id {
			delete(t.grades, gID)
		}
	}
}

// Departments

func (repo *schoolRepository) checkDepartment(dept school.Department) error {
	for _, d := range repo.db.data.departments {
		if d.ID != dept.ID && d.Name == dept.Name {
			return core.ErrDuplicate
		}
	}
	return nil
}

func (repo *schoolRepository) CreateDepartment(_ context.Context, dept school.Department, exec ...core.DBExecutor) (school.Department, error) {
	defer repo.db.lockWrite(exec)()

	dept.ID = 0
	if err := repo.checkDepartment(dept); err != nil {
		return school.Department{}, err
	}
	dept.ID = repo.db.data.nextPK()
	repo.db.data.departments[dept.ID] = dept
	return dept, nil
}

func (repo *schoolRepository) QueryDepartments(_ context.Context, _ ...core.DBExecutor) ([]school.Department, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	depts := make([]school.Department, 0, len(repo.db.data.departments))
	for _, d := range repo.db.data.departments {
		depts = append(depts, d)
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].ID < depts[j].ID })
	return depts, nil
}

func (repo *schoolRepository) GetDepartment(_ context.Context, id int, _ ...core.DBExecutor) (school.Department, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if dept, ok := repo.db.data.departments[id]; ok {
		return dept, nil
	}
	return school.Department{}, school.ErrDepartmentNotFound
}

func (repo *schoolRepository) UpdateDepartment(_ context.Context, dept school.Department, exec ...core.DBExecutor) (school.Department, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.departments[dept.ID]; !ok {
		return school.Department{}, school.ErrDepartmentNotFound
	}
	if err := repo.checkDepartment(dept); err != nil {
		return school.Department{}, err
	}
	repo.db.data.departments[dept.ID] = dept
	return dept, nil
}

func (repo *schoolRepository) DeleteDepartment(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.departments[id]; !ok {
		return school.ErrDepartmentNotFound
	}
	delete(repo.db.data.departments, id)
	for cID, crs := range repo.db.data.courses {
		if crs.DepartmentID == id {
			repo.db.data.deleteCourse(cID)
		}
	}
	for sID, std := range repo.db.data.students {
		if std.DepartmentID != nil && *std.DepartmentID == id {
			std.DepartmentID = nil
			repo.db.data.students[sID] = std
		}
	}
	return nil
}

// Teachers

func (repo *schoolRepository) checkTeacher(tchr school.Teacher) error {
	if tchr.UserID == nil {
		return nil
	}
	if _, ok := repo.db.data.users[*tchr.UserID]; !ok {
		return core.ErrReference
	}
	for _, t := range repo.db.data.teachers {
		if t.ID != tchr.ID && t.UserID != nil && *t.UserID == *tchr.UserID {
			return core.ErrDuplicate
		}
	}
	return nil
}

func (repo *schoolRepository) CreateTeacher(_ context.Context, tchr school.Teacher, exec ...core.DBExecutor) (school.Teacher, error) {
	defer repo.db.lockWrite(exec)()

	tchr.ID = 0
	tchr.UserID = copyStringPtr(tchr.UserID)
	if err := repo.checkTeacher(tchr); err != nil {
		return school.Teacher{}, err
	}
	tchr.ID = repo.db.data.nextPK()
	repo.db.data.teachers[tchr.ID] = tchr
	return tchr, nil
}

func (repo *schoolRepository) QueryTeachers(_ context.Context, _ ...core.DBExecutor) ([]school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]school.Teacher, 0, len(repo.db.data.teachers))
	for _, t := range repo.db.data.teachers {
		teachers = append(teachers, t)
	}
	sort.Slice(teachers, func(i, j int) bool {
		if teachers[i].Name != teachers[j].Name {
			return teachers[i].Name < teachers[j].Name
		}
		return teachers[i].ID < teachers[j].ID
	})
	return teachers, nil
}

func (repo *schoolRepository) GetTeacher(_ context.Context, filter school.TeacherGetFilter, _ ...core.DBExecutor) (school.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	switch {
	case filter.ID != 0:
		if tchr, ok := repo.db.data.teachers[filter.ID]; ok {
			return tchr, nil
		}
	case filter.UserID != "":
		for _, tchr := range repo.db.data.teachers {
			if tchr.UserID != nil && *tchr.UserID == filter.UserID {
				return tchr, nil
			}
		}
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (repo *schoolRepository) UpdateTeacher(_ context.Context, tchr school.Teacher, exec ...core.DBExecutor) (school.Teacher, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.teachers[tchr.ID]; !ok {
		return school.Teacher{}, school.ErrTeacherNotFound
	}
	tchr.UserID = copyStringPtr(tchr.UserID)
	if err := repo.checkTeacher(tchr); err != nil {
		return school.Teacher{}, err
	}
	repo.db.data.teachers[tchr.ID] = tchr
	return tchr, nil
}

func (repo *schoolRepository) DeleteTeacher(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.teachers[id]; !ok {
		return school.ErrTeacherNotFound
	}
	delete(repo.db.data.teachers, id)
	for cID, crs := range repo.db.data.courses {
		if crs.TeacherID != nil && *crs.TeacherID == id {
			crs.TeacherID = nil
			repo.db.data.courses[cID] = crs
		}
	}
	return nil
}

// Courses

func (repo *schoolRepository) checkCourse(crs school.Course) error {
	if _, ok := repo.db.data.departments[crs.DepartmentID]; !ok {
		return core.ErrReference
	}
	if crs.TeacherID != nil {
		if _, ok := repo.db.data.teachers[*crs.TeacherID]; !ok {
			return core.ErrReference
		}
	}
	for _, c := range repo.db.data.courses {
		if c.ID != crs.ID && c.Code == crs.Code {
			return core.ErrDuplicate
		}
	}
	return nil
}

func (repo *schoolRepository) CreateCourse(_ context.Context, crs school.Course, exec ...core.DBExecutor) (school.Course, error) {
	defer repo.db.lockWrite(exec)()

	crs.ID = 0
	crs.TeacherID = copyIntPtr(crs.TeacherID)
	if err := repo.checkCourse(crs); err != nil {
		return school.Course{}, err
	}
	crs.ID = repo.db.data.nextPK()
	repo.db.data.courses[crs.ID] = crs
	return crs, nil
}

func (repo *schoolRepository) QueryCourses(_ context.Context, filter school.CourseFilter, _ ...core.DBExecutor) ([]school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids map[int]bool
	if filter.IDs != nil {
		ids = make(map[int]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	courses := make([]school.Course, 0)
	for _, crs := range repo.db.data.courses {
		if filter.TeacherID != nil && !crs.OwnedBy(*filter.TeacherID) {
			continue
		}
		if filter.DepartmentID != nil && crs.DepartmentID != *filter.DepartmentID {
			continue
		}
		if ids != nil && !ids[crs.ID] {
			continue
		}
		courses = append(courses, crs)
	}
	sortCourses(courses)
	return courses, nil
}

func (repo *schoolRepository) GetCourse(_ context.Context, id int, _ ...core.DBExecutor) (school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.data.courses[id]; ok {
		return crs, nil
	}
	return school.Course{}, school.ErrCourseNotFound
}

func (repo *schoolRepository) UpdateCourse(_ context.Context, crs school.Course, exec ...core.DBExecutor) (school.Course, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.courses[crs.ID]; !ok {
		return school.Course{}, school.ErrCourseNotFound
	}
	crs.TeacherID = copyIntPtr(crs.TeacherID)
	if err := repo.checkCourse(crs); err != nil {
		return school.Course{}, err
	}
	repo.db.data.courses[crs.ID] = crs
	return crs, nil
}

func (repo *schoolRepository) DeleteCourse(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.courses[id]; !ok {
		return school.ErrCourseNotFound
	}
	repo.db.data.deleteCourse(id)
	return nil
}

// Students

func (repo *schoolRepository) checkStudent(std school.Student) error {
	if std.DepartmentID != nil {
		if _, ok := repo.db.data.departments[*std.DepartmentID]; !ok {
			return core.ErrReference
		}
	}
	if std.UserID == nil {
		return nil
	}
	if _, ok := repo.db.data.users[*std.UserID]; !ok {
		return core.ErrReference
	}
	for _, s := range repo.db.data.students {
		if s.ID != std.ID && s.UserID != nil && *s.UserID == *std.UserID {
			return core.ErrDuplicate
		}
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	defer repo.db.lockWrite(exec)()

	std.ID = 0
	std.DepartmentID = copyIntPtr(std.DepartmentID)
	std.UserID = copyStringPtr(std.UserID)
	if err := repo.checkStudent(std); err != nil {
		return school.Student{}, err
	}
	std.ID = repo.db.data.nextPK()
	repo.db.data.students[std.ID] = std
	return std, nil
}

func (repo *schoolRepository) matchesStudent(std school.Student, search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(std.Name), search) {
		return true
	}
	if std.DepartmentID != nil {
		if dept, ok := repo.db.data.departments[*std.DepartmentID]; ok && strings.Contains(strings.ToLower(dept.Name), search) {
			return true
		}
	}
	for cID := range repo.db.data.enrollments[std.ID] {
		if crs, ok := repo.db.data.courses[cID]; ok && strings.Contains(strings.ToLower(crs.Name), search) {
			return true
		}
	}
	return false
}

func (repo *schoolRepository) QueryStudents(_ context.Context, filter school.StudentFilter, ordering []core.DBOrdering, page core.Page, _ ...core.DBExecutor) ([]school.Student, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]school.Student, 0)
	for _, std := range repo.db.data.students {
		if repo.matchesStudent(std, filter.Search) {
			students = append(students, std)
		}
	}

	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := compareStudents(students[i], students[j], ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return students[i].ID < students[j].ID
	})

	count := len(students)
	if page.Size > 0 {
		start := page.Offset()
		if start < 0 || start > count {
			start = count
		}
		end := start + page.Size
		if end > count {
			end = count
		}
		students = students[start:end]
	}
	return students, count, nil
}

func compareStudents(a, b school.Student, field string) int {
	compareStrings := func(x, y string) int {
		x, y = strings.ToLower(x), strings.ToLower(y)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	compareInts := func(x, y int) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}

	switch field {
	case "s.name":
		return compareStrings(a.Name, b.Name)
	case "s.age":
		return compareInts(a.Age, b.Age)
	case "s.grade":
		return compareStrings(a.Grade, b.Grade)
	case "s.email":
		return compareStrings(a.Email, b.Email)
	default:
		return compareInts(a.ID, b.ID)
	}
}

func (repo *schoolRepository) GetStudent(_ context.Context, filter school.StudentGetFilter, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	switch {
	case filter.ID != 0:
		if std, ok := repo.db.data.students[filter.ID]; ok {
			return std, nil
		}
	case filter.UserID != "":
		for _, std := range repo.db.data.students {
			if std.UserID != nil && *std.UserID == filter.UserID {
				return std, nil
			}
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) UpdateStudent(_ context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.students[std.ID]; !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	std.DepartmentID = copyIntPtr(std.DepartmentID)
	std.UserID = copyStringPtr(std.UserID)
	if err := repo.checkStudent(std); err != nil {
		return school.Student{}, err
	}
	repo.db.data.students[std.ID] = std
	return std, nil
}

func (repo *schoolRepository) DeleteStudent(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.students[id]; !ok {
		return school.ErrStudentNotFound
	}
	repo.db.data.deleteStudent(id)
	return nil
}

func (repo *schoolRepository) StudentCourses(_ context.Context, studentID int, _ ...core.DBExecutor) ([]school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]school.Course, 0)
	for cID := range repo.db.data.enrollments[studentID] {
		if crs, ok := repo.db.data.courses[cID]; ok {
			courses = append(courses, crs)
		}
	}
	sortCourses(courses)
	return courses, nil
}

func (repo *schoolRepository) SetStudentCourses(_ context.Context, studentID int, courseIDs []int, exec ...core.DBExecutor) error {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.students[studentID]; !ok {
		return core.ErrReference
	}
	set := make(map[int]bool, len(courseIDs))
	for _, id := range courseIDs {
		if _, ok := repo.db.data.courses[id]; !ok {
			return core.ErrReference
		}
		set[id] = true
	}
	repo.db.data.enrollments[studentID] = set
	return nil
}
