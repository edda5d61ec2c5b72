package core

import (
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTestConfig(t *testing.T) {
	conf := NewTestConfig()

	assert.Equal(t, "TEST", conf.Env)
	assert.False(t, conf.Debug)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "Shule", conf.AppName)
	assert.Equal(t, 4*time.Hour, conf.Server.JWTExpirationDelta)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
	assert.Equal(t, SignupConfig{DefaultDepartmentID: 0, DefaultAge: 18, DefaultGrade: "N/A"}, conf.Signup)
}

func TestNewConfig_envPrefix(t *testing.T) {
	setenv := func(key, value string) {
		t.Helper()
		if err := os.Setenv(key, value); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
	setenv("QA_APPNAME", "Shule QA")
	setenv("QA_SERVER_HOST", "0.0.0.0:9000")
	setenv("QA_SIGNUP_DEFAULTAGE", "16")
	setenv("TEST_APPNAME", "ignored")

	loaded := ""
	conf := newConfig("QA", func(env string) { loaded = env })

	assert.Equal(t, "QA", loaded)
	assert.Equal(t, "Shule QA", conf.AppName)
	assert.Equal(t, "0.0.0.0:9000", conf.Server.Host)
	assert.Equal(t, 16, conf.Signup.DefaultAge)
	assert.False(t, conf.TestMode)
}

func TestConfig_DefaultFromEmail(t *testing.T) {
	tests := []struct {
		from string
		want mail.Address
	}{
		{from: "noreply@localhost", want: mail.Address{Name: "Shule", Address: "noreply@localhost"}},
		{from: "Registrar <registrar@shule.cd>", want: mail.Address{Name: "Registrar", Address: "registrar@shule.cd"}},
		{from: "not an address", want: mail.Address{Name: "Shule", Address: "not an address"}},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			conf := NewTestConfig()
			conf.defaultFromEmail = tt.from
			assert.Equal(t, tt.want, conf.DefaultFromEmail())
		})
	}
}
