package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/grading"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/signup"
	"github.com/shulehub/shule/core/user"
	appfs "github.com/shulehub/shule/fs"
	emailsvc "github.com/shulehub/shule/services/email"
	reportsvc "github.com/shulehub/shule/services/report"
	"github.com/shulehub/shule/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf    *core.Config
	repos   testutil.Repos
	mailSvc *emailsvc.ConsoleServiceMock
	server  *Server
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(appfs.FS, conf, logger)
	user.LoadCommonPasswords(appfs.FS, logger)

	validate, translator := testutil.NewValidator()
	signup.InitValidators(validate, translator)

	// set up DB & repos
	repos := testutil.NewRepos()

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(repos.Users, mailSvc, conf)
	schoolSvc := school.NewService(repos.School, repos.Tx, validate)

	// set up server
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SignupSvc:      signup.NewService(repos.Tx, usrSvc, repos.School, mailSvc, conf, validate),
		SchoolSvc:      schoolSvc,
		AttendanceSvc:  attendance.NewService(repos.Attendance, schoolSvc, validate),
		GradingSvc:     grading.NewService(repos.Grading, schoolSvc, validate),
		ReportCards:    reportsvc.NewReportCardWriter(conf),
	})

	return &testApp{conf: conf, repos: repos, mailSvc: mailSvc, server: server}
}

// do serves a request through the app and returns the recorded response.
func (app *testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			var data [][]byte
			if tt.body != nil {
				data = append(data, tt.body)
			}
			rec := app.do(method, tt.path, tt.token, data...)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarshalBody() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func TestServer_home(t *testing.T) {
	app := setup(t)
	rec := app.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Shule API!", rec.Body.String())
}

func TestServer_unknownRoute(t *testing.T) {
	app := setup(t)
	rec := app.do(http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), marshalObj(t, httpErr{Error: "Not Found"}))
	assert.NoError(t, err)
	assert.True(t, ok, rec.Body.String())
}
