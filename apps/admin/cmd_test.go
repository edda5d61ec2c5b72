package main

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
	"github.com/shulehub/shule/tests"
)

type migrationCall struct {
	command string
	args    []string
}

func setup(t *testing.T) (*commandLine, testutil.Repos, *[]migrationCall) {
	t.Helper()
	repos := testutil.NewRepos()
	calls := make([]migrationCall, 0)
	cli := &commandLine{
		usrRepo:    repos.Users,
		schoolRepo: repos.School,
		runMigration: func(command string, args ...string) error {
			if command == "lol" {
				return errors.Errorf("unknown migration command %q", command)
			}
			calls = append(calls, migrationCall{command: command, args: args})
			return nil
		},
	}
	return cli, repos, &calls
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, calls := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", args: []string{"migrate"}, wantErr: errHelp},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
	})
	assert.Equal(t, []migrationCall{
		{command: "up", args: []string{}},
		{command: "up-to", args: []string{"2"}},
		{command: "down", args: []string{}},
	}, *calls)

	err := cli.run([]string{"admin", "migrate", "lol"})
	assert.EqualError(t, err, `unknown migration command "lol"`)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, repos, _ := setup(t)
	ctx := context.Background()

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "admin"}, pwd: "pwd", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "admin", "-email", "admin@test.cd"}, wantErr: errHelp},
		{name: "admin", args: []string{"adduser", "-username", "Admin", "-email", "ADMIN@test.cd", "-name", "Big Boss", "-admin"}, pwd: "pwd"},
		{name: "teacher", args: []string{"adduser", "-username", "smith", "-email", "smith@test.cd", "-teacher", "Mr. Smith"}, pwd: "pwd"},
		{name: "teacher again", args: []string{"adduser", "-username", "smith", "-email", "smith@test.cd", "-teacher", "Mr. Smith"}, pwd: "new"},
	})

	t.Run("admin created", func(t *testing.T) {
		usr, err := repos.Users.GetUser(ctx, user.GetFilter{Username: "admin"})
		require.NoError(t, err)
		assert.Equal(t, "admin@test.cd", usr.Email)
		assert.Equal(t, "Big Boss", usr.Name)
		assert.True(t, usr.Active())
		assert.True(t, usr.IsAdmin())
		assert.False(t, usr.IsTeacher())
		assert.NoError(t, usr.CheckPassword("pwd"))
	})

	t.Run("teacher linked once", func(t *testing.T) {
		usr, err := repos.Users.GetUser(ctx, user.GetFilter{Username: "smith"})
		require.NoError(t, err)
		assert.True(t, usr.IsTeacher())
		assert.NoError(t, usr.CheckPassword("new"))

		tchr, err := repos.School.GetTeacher(ctx, school.TeacherGetFilter{UserID: usr.ID})
		require.NoError(t, err)
		assert.Equal(t, "Mr. Smith", tchr.Name)

		teachers, err := repos.School.QueryTeachers(ctx)
		require.NoError(t, err)
		assert.Len(t, teachers, 1)
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, repos, _ := setup(t)

	usr := testutil.CreateUser(t, repos.Users, "User", "awe", "awe@test.cd", "mdr", nil, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", "AWE@test.cd"}, pwd: "lmao"},
	})

	refreshed, err := repos.Users.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("lmao"))
}

func Test_commandLine_addDepartment(t *testing.T) {
	cli, repos, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no name", args: []string{"adddepartment"}, wantErr: errHelp},
		{name: "create", args: []string{"adddepartment", "-name", " Sciences "}},
		{name: "duplicate", args: []string{"adddepartment", "-name", "Sciences"}, wantErr: errDepartmentExists},
	})

	depts, err := repos.School.QueryDepartments(context.Background())
	require.NoError(t, err)
	require.Len(t, depts, 1)
	assert.Equal(t, "Sciences", depts[0].Name)
}
