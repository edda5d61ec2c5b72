package school_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
	"github.com/shulehub/shule/tests"
)

func newService(t *testing.T) (*school.Service, testutil.Repos) {
	t.Helper()
	repos := testutil.NewRepos()
	validate, _ := testutil.NewValidator()
	return school.NewService(repos.School, repos.Tx, validate), repos
}

func TestService_capabilitiesFailClosed(t *testing.T) {
	svc, repos := newService(t)
	ctx := context.Background()

	teacherUsr := testutil.CreateUser(t, repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	studentUsr := testutil.CreateUser(t, repos.Users, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	nobodyUsr := testutil.CreateUser(t, repos.Users, "Nobody", "nobody", "nobody@test.cd", "", nil, true)
	std := testutil.CreateStudent(t, repos.School, "Zoe", "zoe@test.cd", nil, nil)

	actors := map[string]*user.Actor{
		"anonymous": nil,
		"no roles":  testutil.Actor(nobodyUsr),
		"student":   testutil.Actor(studentUsr),
	}
	for name, actor := range actors {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateDepartment(ctx, actor, school.NewDepartment{Name: "Arts"})
			assert.Equal(t, core.ErrForbidden, err)
			_, err = svc.ListStudents(ctx, actor, school.StudentFilter{}, nil, core.Page{})
			assert.Equal(t, core.ErrForbidden, err)
			_, err = svc.GetStudent(ctx, actor, std.ID)
			assert.Equal(t, core.ErrForbidden, err)
			assert.Equal(t, core.ErrForbidden, svc.DeleteStudent(ctx, actor, std.ID))
		})
	}

	t.Run("teacher", func(t *testing.T) {
		teacher := testutil.Actor(teacherUsr)
		_, err := svc.ListStudents(ctx, teacher, school.StudentFilter{}, nil, core.Page{})
		assert.NoError(t, err)
		_, err = svc.CreateStudent(ctx, teacher, school.NewStudent{Name: "Eve", Grade: "10", Email: "eve@test.cd"})
		assert.Equal(t, core.ErrForbidden, err)
		_, err = svc.EnrollStudent(ctx, teacher, std.ID, school.Enrollment{})
		assert.Equal(t, core.ErrForbidden, err)
		_, err = svc.CreateCourse(ctx, teacher, school.NewCourse{Name: "Physics", Code: "PHY101", DepartmentID: 1})
		assert.Equal(t, core.ErrForbidden, err)
	})

	students, _, err := repos.School.QueryStudents(ctx, school.StudentFilter{}, nil, core.Page{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestService_ListStudents(t *testing.T) {
	svc, repos := newService(t)
	ctx := context.Background()
	admin := testutil.Actor(testutil.CreateUser(t, repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true))

	for _, name := range []string{"F", "E", "D", "C", "B", "A", "G"} {
		testutil.CreateStudent(t, repos.School, name, name+"@test.cd", nil, nil)
	}

	names := func(page school.StudentPage) []string {
		names := make([]string, 0, len(page.Results))
		for _, std := range page.Results {
			names = append(names, std.Name)
		}
		return names
	}

	page, err := svc.ListStudents(ctx, admin, school.StudentFilter{}, []core.DBOrdering{{Field: "name", Ascending: true}}, core.Page{})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Count)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, school.DefaultPageSize, page.PageSize)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names(page))

	page, err = svc.ListStudents(ctx, admin, school.StudentFilter{}, []core.DBOrdering{{Field: "name", Ascending: true}}, core.Page{Number: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"F", "G"}, names(page))

	// unknown ordering fields are ignored
	page, err = svc.ListStudents(ctx, admin, school.StudentFilter{}, []core.DBOrdering{{Field: "password"}}, core.Page{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"F", "E"}, names(page))

	page, err = svc.ListStudents(ctx, admin, school.StudentFilter{Search: "nobody"}, nil, core.Page{Number: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.NotNil(t, page.Results)
	// a page number past the last page must not overflow the offset
	page, err = svc.ListStudents(ctx, admin, school.StudentFilter{}, nil, core.Page{Number: math.MaxInt64, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Count)
	assert.Equal(t, math.MaxInt32/2+1, page.Page)
	assert.Empty(t, page.Results)
}

func TestService_DeleteDepartment(t *testing.T) {
	svc, repos := newService(t)
	ctx := context.Background()
	admin := testutil.Actor(testutil.CreateUser(t, repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true))

	dept := testutil.CreateDepartment(t, repos.School, "Sciences")
	crs := testutil.CreateCourse(t, repos.School, "Physics", "PHY101", dept, nil)
	std := testutil.CreateStudent(t, repos.School, "Hero", "hero@test.cd", &dept, nil)
	testutil.Enroll(t, repos.School, std, crs)

	require.NoError(t, svc.DeleteDepartment(ctx, admin, dept.ID))

	_, err := svc.GetCourse(ctx, crs.ID)
	assert.Equal(t, school.ErrCourseNotFound, err)

	detail, err := svc.GetStudent(ctx, admin, std.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.DepartmentID)
	assert.Nil(t, detail.Department)
	assert.Empty(t, detail.Courses)

	assert.Equal(t, school.ErrDepartmentNotFound, svc.DeleteDepartment(ctx, admin, dept.ID))
}

func TestService_dashboards(t *testing.T) {
	svc, repos := newService(t)
	ctx := context.Background()

	teacherUsr := testutil.CreateUser(t, repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	loneUsr := testutil.CreateUser(t, repos.Users, "Lone", "lone", "lone@test.cd", "", []string{user.RoleTeacher}, true)
	studentUsr := testutil.CreateUser(t, repos.Users, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	dept := testutil.CreateDepartment(t, repos.School, "Sciences")
	tchr := testutil.CreateTeacher(t, repos.School, "Mr. Smith", &teacherUsr)
	crs := testutil.CreateCourse(t, repos.School, "Physics", "PHY101", dept, &tchr)
	hero := testutil.CreateStudent(t, repos.School, "Hero", "hero@test.cd", &dept, &studentUsr)

	t.Run("teacher without record", func(t *testing.T) {
		dash, err := svc.TeacherDashboard(ctx, testutil.Actor(loneUsr))
		require.NoError(t, err)
		assert.Nil(t, dash.Teacher)
		assert.Empty(t, dash.Courses)
		assert.Equal(t, []school.Student{hero}, dash.Students)
	})

	t.Run("teacher", func(t *testing.T) {
		dash, err := svc.TeacherDashboard(ctx, testutil.Actor(teacherUsr))
		require.NoError(t, err)
		assert.Equal(t, &tchr, dash.Teacher)
		assert.Equal(t, []school.Course{crs}, dash.Courses)
	})

	t.Run("student", func(t *testing.T) {
		_, err := svc.StudentDashboard(ctx, testutil.Actor(studentUsr))
		require.NoError(t, err)

		_, err = svc.StudentDashboard(ctx, testutil.Actor(teacherUsr))
		assert.Equal(t, core.ErrForbidden, err)

		_, err = svc.TeacherDashboard(ctx, testutil.Actor(studentUsr))
		assert.Equal(t, core.ErrForbidden, err)
	})
}
