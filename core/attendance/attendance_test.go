package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
	"github.com/shulehub/shule/tests"
)

func TestService(t *testing.T) {
	repos := testutil.NewRepos()
	validate, _ := testutil.NewValidator()
	svc := attendance.NewService(repos.Attendance, school.NewService(repos.School, repos.Tx, validate), validate)
	ctx := context.Background()

	teacherUsr := testutil.CreateUser(t, repos.Users, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	otherUsr := testutil.CreateUser(t, repos.Users, "Other", "other", "other@test.cd", "", []string{user.RoleTeacher}, true)
	studentUsr := testutil.CreateUser(t, repos.Users, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminUsr := testutil.CreateUser(t, repos.Users, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher, other, student, admin := testutil.Actor(teacherUsr), testutil.Actor(otherUsr), testutil.Actor(studentUsr), testutil.Actor(adminUsr)

	dept := testutil.CreateDepartment(t, repos.School, "Sciences")
	tchr := testutil.CreateTeacher(t, repos.School, "Mr. Smith", &teacherUsr)
	otherTchr := testutil.CreateTeacher(t, repos.School, "Mrs. Jones", &otherUsr)
	physics := testutil.CreateCourse(t, repos.School, "Physics", "PHY101", dept, &tchr)
	chemistry := testutil.CreateCourse(t, repos.School, "Chemistry", "CHE101", dept, &otherTchr)
	hero := testutil.CreateStudent(t, repos.School, "Hero", "hero@test.cd", &dept, &studentUsr)
	zoe := testutil.CreateStudent(t, repos.School, "Zoe", "zoe@test.cd", &dept, nil)

	t.Run("course options are exactly the teacher's own", func(t *testing.T) {
		courses, err := svc.CourseOptions(ctx, teacher)
		require.NoError(t, err)
		assert.Equal(t, []school.Course{physics}, courses)
	})

	t.Run("fails closed", func(t *testing.T) {
		for name, actor := range map[string]*user.Actor{"anonymous": nil, "student": student, "admin without teacher record": admin} {
			_, err := svc.Mark(ctx, actor, attendance.NewAttendance{StudentID: hero.ID, CourseID: physics.ID, Status: attendance.StatusPresent})
			assert.Equal(t, core.ErrForbidden, err, name)
		}
	})

	var first, second attendance.Attendance
	t.Run("mark", func(t *testing.T) {
		var err error
		first, err = svc.Mark(ctx, teacher, attendance.NewAttendance{StudentID: hero.ID, CourseID: physics.ID, Date: "2024-03-01", Status: "PRESENT"})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, first.Status)
		assert.True(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Equal(first.Date))

		second, err = svc.Mark(ctx, teacher, attendance.NewAttendance{StudentID: zoe.ID, CourseID: physics.ID, Date: "2024-03-02", Status: attendance.StatusAbsent})
		require.NoError(t, err)
	})

	t.Run("mark defaults to today", func(t *testing.T) {
		att, err := svc.Mark(ctx, other, attendance.NewAttendance{StudentID: zoe.ID, CourseID: chemistry.ID, Status: attendance.StatusPresent})
		require.NoError(t, err)
		assert.True(t, time.Now().UTC().Truncate(24*time.Hour).Equal(att.Date))
	})

	t.Run("never overwrites", func(t *testing.T) {
		_, err := svc.Mark(ctx, teacher, attendance.NewAttendance{StudentID: hero.ID, CourseID: physics.ID, Date: "2024-03-01", Status: attendance.StatusAbsent})
		require.Error(t, err)
		assert.Equal(t, "attendance already marked for this student, course and date", err.Error())
	})

	t.Run("other teacher's course", func(t *testing.T) {
		_, err := svc.Mark(ctx, teacher, attendance.NewAttendance{StudentID: hero.ID, CourseID: chemistry.ID, Status: attendance.StatusPresent})
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, []core.FieldError{{Field: "course_id", Error: "select one of your courses"}}, vErr.Fields)
	})

	t.Run("list", func(t *testing.T) {
		records, err := svc.List(ctx, teacher)
		require.NoError(t, err)
		assert.Equal(t, []attendance.Record{
			{Attendance: second, StudentName: "Zoe", CourseName: "Physics"},
			{Attendance: first, StudentName: "Hero", CourseName: "Physics"},
		}, records)

		records, err = svc.List(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("list mine", func(t *testing.T) {
		records, err := svc.ListMine(ctx, student)
		require.NoError(t, err)
		assert.Equal(t, []attendance.Record{{Attendance: first, StudentName: "Hero", CourseName: "Physics"}}, records)

		_, err = svc.ListMine(ctx, teacher)
		assert.Equal(t, core.ErrForbidden, err)
	})
}
