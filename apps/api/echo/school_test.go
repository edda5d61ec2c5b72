package echoapi

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
	"github.com/shulehub/shule/tests"
)

func Test_schoolApi_landing(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, app.repos.Users, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	both := testutil.CreateUser(t, app.repos.Users, "Both", "both", "both@test.cd", "", []string{user.RoleStudent, user.RoleTeacher}, true)

	app.run(t, []httpTest{
		{name: "anonymous", path: "/v1/landing", wantCode: http.StatusOK, wantData: marshalObj(t, user.LandingLogin)},
		{name: "admin", path: "/v1/landing", token: app.token(t, admin), wantCode: http.StatusOK, wantData: marshalObj(t, user.LandingAdmin)},
		{name: "teacher", path: "/v1/landing", token: app.token(t, teacher), wantCode: http.StatusOK, wantData: marshalObj(t, user.LandingTeacher)},
		{name: "student", path: "/v1/landing", token: app.token(t, student), wantCode: http.StatusOK, wantData: marshalObj(t, user.LandingStudent)},
		{name: "teacher first", path: "/v1/landing", token: app.token(t, both), wantCode: http.StatusOK, wantData: marshalObj(t, user.LandingTeacher)},
		{name: "bad token", path: "/v1/landing", token: "lol", wantCode: http.StatusUnauthorized},
	})
}

func Test_schoolApi_departments(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	adminToken := app.token(t, admin)

	sciences := testutil.CreateDepartment(t, app.repos.School, "Sciences")
	arts := school.Department{ID: sciences.ID + 1, Name: "Arts"}
	forbidden := marshalObj(t, httpErr{Error: "permission denied"})
	notFound := marshalObj(t, httpErr{Error: "department not found"})

	app.run(t, []httpTest{
		{name: "auth required", path: "/v1/departments", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "create (teacher)", method: http.MethodPost, path: "/v1/departments", token: app.token(t, teacher),
			body: marshalObj(t, school.NewDepartment{Name: "Arts"}), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "create (invalid)", method: http.MethodPost, path: "/v1/departments", token: adminToken,
			body: marshalObj(t, school.NewDepartment{Name: "  "}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "create", method: http.MethodPost, path: "/v1/departments", token: adminToken,
			body: marshalObj(t, school.NewDepartment{Name: " Arts "}), wantCode: http.StatusCreated, wantData: marshalObj(t, arts),
		},
		{
			name: "create (duplicate)", method: http.MethodPost, path: "/v1/departments", token: adminToken,
			body: marshalObj(t, school.NewDepartment{Name: "Arts"}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"name": "a department with this name already exists"}),
		},
		{
			name: "list (teacher)", path: "/v1/departments", token: app.token(t, teacher),
			wantCode: http.StatusOK, wantData: marshalObj(t, []school.Department{sciences, arts}),
		},
		{name: "retrieve", path: "/v1/departments/" + strconv.Itoa(sciences.ID), token: adminToken, wantCode: http.StatusOK, wantData: marshalObj(t, sciences)},
		{name: "retrieve (unknown)", path: "/v1/departments/999", token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "retrieve (not an ID)", path: "/v1/departments/abc", token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "update", method: http.MethodPut, path: "/v1/departments/" + strconv.Itoa(sciences.ID), token: adminToken,
			body: marshalObj(t, school.NewDepartment{Name: "Natural Sciences"}), wantCode: http.StatusOK,
			wantData: marshalObj(t, school.Department{ID: sciences.ID, Name: "Natural Sciences"}),
		},
		{
			name: "delete (teacher)", method: http.MethodDelete, path: "/v1/departments/" + strconv.Itoa(arts.ID), token: app.token(t, teacher),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/departments/" + strconv.Itoa(arts.ID), token: adminToken, wantCode: http.StatusNoContent},
		{name: "delete (unknown)", method: http.MethodDelete, path: "/v1/departments/" + strconv.Itoa(arts.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
	})
}

func Test_schoolApi_courses(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := app.token(t, admin)
	dept := testutil.CreateDepartment(t, app.repos.School, "Sciences")
	tchr := testutil.CreateTeacher(t, app.repos.School, "Mr. Smith", nil)

	var created school.Course
	t.Run("create", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/courses", adminToken, marshalObj(t, school.NewCourse{
			Name: "Physics", Code: "phy101", Credits: 4, DepartmentID: dept.ID, TeacherID: &tchr.ID,
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshalBody(t, rec, &created)
		assert.Equal(t, "PHY101", created.Code)
		assert.True(t, created.OwnedBy(tchr.ID))
	})

	unknown := 999
	app.run(t, []httpTest{
		{
			name: "create (unknown department)", method: http.MethodPost, path: "/v1/courses", token: adminToken,
			body:     marshalObj(t, school.NewCourse{Name: "Chemistry", Code: "CHE101", DepartmentID: unknown}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"department_id": "department does not exist"}),
		},
		{
			name: "create (unknown teacher)", method: http.MethodPost, path: "/v1/courses", token: adminToken,
			body:     marshalObj(t, school.NewCourse{Name: "Chemistry", Code: "CHE101", DepartmentID: dept.ID, TeacherID: &unknown}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"teacher_id": "teacher does not exist"}),
		},
		{
			name: "create (duplicate code)", method: http.MethodPost, path: "/v1/courses", token: adminToken,
			body:     marshalObj(t, school.NewCourse{Name: "Physics II", Code: "PHY101", DepartmentID: dept.ID}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"code": "a course with this code already exists"}),
		},
		{name: "list", path: "/v1/courses", token: adminToken, wantCode: http.StatusOK, wantData: marshalObj(t, []school.Course{created})},
		{name: "retrieve", path: "/v1/courses/" + strconv.Itoa(created.ID), token: adminToken, wantCode: http.StatusOK, wantData: marshalObj(t, created)},
		{name: "delete", method: http.MethodDelete, path: "/v1/courses/" + strconv.Itoa(created.ID), token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "retrieve (deleted)", path: "/v1/courses/" + strconv.Itoa(created.ID), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "course not found"}),
		},
	})
}

func Test_schoolApi_teachers(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	account := testutil.CreateUser(t, app.repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	adminToken := app.token(t, admin)

	var created school.Teacher
	t.Run("create", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/teachers", adminToken, marshalObj(t, school.NewTeacher{Name: "Mr. Smith", UserID: &account.ID}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshalBody(t, rec, &created)
		if assert.NotNil(t, created.UserID) {
			assert.Equal(t, account.ID, *created.UserID)
		}
	})

	app.run(t, []httpTest{
		{
			name: "create (account already linked)", method: http.MethodPost, path: "/v1/teachers", token: adminToken,
			body:     marshalObj(t, school.NewTeacher{Name: "Mrs. Smith", UserID: &account.ID}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"user_id": "this account is already linked to a teacher"}),
		},
		{name: "list", path: "/v1/teachers", token: adminToken, wantCode: http.StatusOK, wantData: marshalObj(t, []school.Teacher{created})},
		{
			name: "update", method: http.MethodPut, path: "/v1/teachers/" + strconv.Itoa(created.ID), token: adminToken,
			body:     marshalObj(t, school.NewTeacher{Name: "Dr. Smith"}),
			wantCode: http.StatusOK, wantData: marshalObj(t, school.Teacher{ID: created.ID, Name: "Dr. Smith"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/teachers/" + strconv.Itoa(created.ID), token: adminToken, wantCode: http.StatusNoContent},
	})
}

func Test_schoolApi_students(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, app.repos.Users, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := app.token(t, admin)
	teacherToken := app.token(t, teacher)
	forbidden := marshalObj(t, httpErr{Error: "permission denied"})

	sciences := testutil.CreateDepartment(t, app.repos.School, "Sciences")
	arts := testutil.CreateDepartment(t, app.repos.School, "Arts")
	physics := testutil.CreateCourse(t, app.repos.School, "Physics", "PHY101", sciences, nil)
	painting := testutil.CreateCourse(t, app.repos.School, "Painting", "ART101", arts, nil)

	zoe := testutil.CreateStudent(t, app.repos.School, "Zoe", "zoe@test.cd", &sciences, nil)
	adam := testutil.CreateStudent(t, app.repos.School, "Adam", "adam@test.cd", &arts, nil)
	hero := testutil.CreateStudent(t, app.repos.School, "Hero", "hero@test.cd", nil, &student)
	testutil.Enroll(t, app.repos.School, hero, physics)

	page := func(count, number, size int, students ...school.Student) []byte {
		if students == nil {
			students = []school.Student{}
		}
		return marshalObj(t, school.StudentPage{Count: count, Page: number, PageSize: size, Results: students})
	}

	app.run(t, []httpTest{
		{name: "list (student)", path: "/v1/students", token: app.token(t, student), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "list (teacher)", path: "/v1/students", token: teacherToken, wantCode: http.StatusOK, wantData: page(3, 1, 5, zoe, adam, hero)},
		{name: "list ordered", path: "/v1/students?ordering=name", token: adminToken, wantCode: http.StatusOK, wantData: page(3, 1, 5, adam, hero, zoe)},
		{name: "list paginated", path: "/v1/students?ordering=-name&page=2&page_size=2", token: adminToken, wantCode: http.StatusOK, wantData: page(3, 2, 2, adam)},
		{name: "search by name", path: "/v1/students?q=ZO", token: adminToken, wantCode: http.StatusOK, wantData: page(1, 1, 5, zoe)},
		{name: "search by department", path: "/v1/students?q=arts", token: adminToken, wantCode: http.StatusOK, wantData: page(1, 1, 5, adam)},
		{name: "search by course", path: "/v1/students?q=physics", token: adminToken, wantCode: http.StatusOK, wantData: page(1, 1, 5, hero)},
		{name: "search (unknown)", path: "/v1/students?q=lol", token: adminToken, wantCode: http.StatusOK, wantData: page(0, 1, 5)},
		{
			name: "create (teacher)", method: http.MethodPost, path: "/v1/students", token: teacherToken,
			body:     marshalObj(t, school.NewStudent{Name: "Eve", Age: 17, Grade: "11", Email: "eve@test.cd"}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "update (teacher)", method: http.MethodPut, path: "/v1/students/" + strconv.Itoa(zoe.ID), token: teacherToken,
			body:     marshalObj(t, school.NewStudent{Name: "Zoe", Age: 17, Grade: "11", Email: "zoe@test.cd"}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "retrieve (teacher)", path: "/v1/students/" + strconv.Itoa(hero.ID), token: teacherToken, wantCode: http.StatusOK,
			wantData: marshalObj(t, school.StudentDetail{Student: hero, Courses: []school.Course{physics}}),
		},
		{
			name: "retrieve (unknown)", path: "/v1/students/999", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "enroll (unknown course)", method: http.MethodPut, path: "/v1/students/" + strconv.Itoa(adam.ID) + "/courses", token: adminToken,
			body:     marshalObj(t, school.Enrollment{CourseIDs: []int{painting.ID, 999}}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"course_ids": "one or more courses do not exist"}),
		},
		{
			name: "enroll", method: http.MethodPut, path: "/v1/students/" + strconv.Itoa(adam.ID) + "/courses", token: adminToken,
			body:     marshalObj(t, school.Enrollment{CourseIDs: []int{painting.ID, physics.ID, painting.ID}}),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, school.StudentDetail{Student: adam, Department: &arts, Courses: []school.Course{painting, physics}}),
		},
		{name: "delete (teacher)", method: http.MethodDelete, path: "/v1/students/" + strconv.Itoa(zoe.ID), token: teacherToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "delete", method: http.MethodDelete, path: "/v1/students/" + strconv.Itoa(zoe.ID), token: adminToken, wantCode: http.StatusNoContent},
	})

	t.Run("create", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/students", adminToken, marshalObj(t, school.NewStudent{
			Name: " Eve ", Age: 17, Grade: "11", Email: "EVE@test.cd", DepartmentID: &arts.ID,
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var std school.Student
		unmarshalBody(t, rec, &std)
		assert.Equal(t, "Eve", std.Name)
		assert.Equal(t, "eve@test.cd", std.Email)
	})

	t.Run("create (invalid)", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/students", adminToken, marshalObj(t, school.NewStudent{Name: "Eve", Grade: "11", Email: "lol"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fldErrs map[string]string
		unmarshalBody(t, rec, &fldErrs)
		assert.Contains(t, fldErrs, "email")
	})
}

func Test_schoolApi_dashboards(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, app.repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, app.repos.Users, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	orphan := testutil.CreateUser(t, app.repos.Users, "Orphan", "orphan", "orphan@test.cd", "", []string{user.RoleStudent}, true)

	dept := testutil.CreateDepartment(t, app.repos.School, "Sciences")
	tchr := testutil.CreateTeacher(t, app.repos.School, "Mr. Smith", &teacher)
	physics := testutil.CreateCourse(t, app.repos.School, "Physics", "PHY101", dept, &tchr)
	testutil.CreateCourse(t, app.repos.School, "Chemistry", "CHE101", dept, nil)
	hero := testutil.CreateStudent(t, app.repos.School, "Hero", "hero@test.cd", &dept, &student)
	testutil.Enroll(t, app.repos.School, hero, physics)

	forbidden := marshalObj(t, httpErr{Error: "permission denied"})

	app.run(t, []httpTest{
		{
			name: "teacher", path: "/v1/dashboard/teacher", token: app.token(t, teacher), wantCode: http.StatusOK,
			wantData: marshalObj(t, school.TeacherDashboard{Teacher: &tchr, Courses: []school.Course{physics}, Students: []school.Student{hero}}),
		},
		{name: "teacher (student)", path: "/v1/dashboard/teacher", token: app.token(t, student), wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "student", path: "/v1/dashboard/student", token: app.token(t, student), wantCode: http.StatusOK,
			wantData: marshalObj(t, school.StudentDashboard{Student: hero, Courses: []school.Course{physics}}),
		},
		{name: "student (teacher)", path: "/v1/dashboard/student", token: app.token(t, teacher), wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "student (no record)", path: "/v1/dashboard/student", token: app.token(t, orphan),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "student not found"}),
		},
	})
}
