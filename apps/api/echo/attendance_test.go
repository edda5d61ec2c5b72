package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
	"github.com/shulehub/shule/tests"
)

func Test_attendanceApi(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, app.repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, app.repos.Users, "Other", "other", "other@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, app.repos.Users, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, app.repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacherToken := app.token(t, teacher)
	studentToken := app.token(t, student)

	dept := testutil.CreateDepartment(t, app.repos.School, "Sciences")
	tchr := testutil.CreateTeacher(t, app.repos.School, "Mr. Smith", &teacher)
	otherTchr := testutil.CreateTeacher(t, app.repos.School, "Mrs. Jones", &other)
	physics := testutil.CreateCourse(t, app.repos.School, "Physics", "PHY101", dept, &tchr)
	algebra := testutil.CreateCourse(t, app.repos.School, "Algebra", "MAT101", dept, &tchr)
	chemistry := testutil.CreateCourse(t, app.repos.School, "Chemistry", "CHE101", dept, &otherTchr)
	testutil.CreateCourse(t, app.repos.School, "Biology", "BIO101", dept, nil)
	hero := testutil.CreateStudent(t, app.repos.School, "Hero", "hero@test.cd", &dept, &student)

	forbidden := marshalObj(t, httpErr{Error: "permission denied"})
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	app.run(t, []httpTest{
		{name: "auth required", path: "/v1/attendance/courses", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "course options", path: "/v1/attendance/courses", token: teacherToken,
			wantCode: http.StatusOK, wantData: marshalObj(t, []school.Course{algebra, physics}),
		},
		{name: "course options (student)", path: "/v1/attendance/courses", token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "course options (admin without teacher record)", path: "/v1/attendance/courses", token: app.token(t, admin), wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "mark (student)", method: http.MethodPost, path: "/v1/attendance", token: studentToken,
			body:     marshalObj(t, attendance.NewAttendance{StudentID: hero.ID, CourseID: physics.ID, Date: "2024-03-01", Status: attendance.StatusPresent}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "mark (invalid status)", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body:     marshalObj(t, attendance.NewAttendance{StudentID: hero.ID, CourseID: physics.ID, Date: "2024-03-01", Status: "late"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "mark (other teacher's course)", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body:     marshalObj(t, attendance.NewAttendance{StudentID: hero.ID, CourseID: chemistry.ID, Date: "2024-03-01", Status: attendance.StatusPresent}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"course_id": "select one of your courses"}),
		},
		{
			name: "mark (unknown student)", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body:     marshalObj(t, attendance.NewAttendance{StudentID: 999, CourseID: physics.ID, Date: "2024-03-01", Status: attendance.StatusPresent}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"student_id": "student does not exist"}),
		},
	})

	var marked attendance.Attendance
	t.Run("mark", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/attendance", teacherToken, marshalObj(t, attendance.NewAttendance{
			StudentID: hero.ID, CourseID: physics.ID, Date: "2024-03-01", Status: " Present ",
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshalBody(t, rec, &marked)
		assert.Equal(t, hero.ID, marked.StudentID)
		assert.Equal(t, physics.ID, marked.CourseID)
		assert.True(t, day.Equal(marked.Date))
		assert.Equal(t, attendance.StatusPresent, marked.Status)
	})

	record := attendance.Record{Attendance: marked, StudentName: "Hero", CourseName: "Physics"}

	app.run(t, []httpTest{
		{
			name: "mark (duplicate)", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body:     marshalObj(t, attendance.NewAttendance{StudentID: hero.ID, CourseID: physics.ID, Date: "2024-03-01", Status: attendance.StatusAbsent}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "attendance already marked for this student, course and date"}),
		},
		{name: "list", path: "/v1/attendance", token: teacherToken, wantCode: http.StatusOK, wantData: marshalObj(t, []attendance.Record{record})},
		{name: "list (other teacher)", path: "/v1/attendance", token: app.token(t, other), wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "list (admin)", path: "/v1/attendance", token: app.token(t, admin), wantCode: http.StatusOK, wantData: marshalObj(t, []attendance.Record{record})},
		{name: "mine", path: "/v1/attendance/mine", token: studentToken, wantCode: http.StatusOK, wantData: marshalObj(t, []attendance.Record{record})},
		{name: "mine (teacher)", path: "/v1/attendance/mine", token: teacherToken, wantCode: http.StatusForbidden, wantData: forbidden},
	})
}
