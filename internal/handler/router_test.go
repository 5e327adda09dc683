package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eduattend-api/internal/middleware"
	"github.com/noah-isme/eduattend-api/internal/repository/memory"
	"github.com/noah-isme/eduattend-api/internal/seed"
	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/internal/session"
)

var fixedNow = time.Date(2024, time.March, 14, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Fields  map[string][]string `json:"fields"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	db := memory.New(memory.WithClock(func() time.Time { return fixedNow }))
	db.Load(seed.Build(fixedNow, time.UTC, string(hash)))
	store := db.Store()

	clock := service.Clock{Now: func() time.Time { return fixedNow }, Location: time.UTC}
	metrics := service.NewMetricsService()
	cache := service.NewCacheService(memory.NewCache(), metrics, time.Minute, nil, true)

	auth := service.NewAuthService(store.Users, session.NewManager(session.NewMemoryStore(), time.Hour, nil), nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "eduattend-test",
		DemoLogin:         true,
	})
	children := service.NewChildService(store.Children, store.Classes, store.Subjects, store.Attendance, clock, nil)
	attendance := service.NewAttendanceService(store.Attendance, store.Children, store.Classes, cache, nil, clock, nil)
	assignments := service.NewAssignmentService(store.Assignments, store.Submissions, store.Subjects, store.Children, store.Classes, cache, nil, clock, nil)
	grades := service.NewGradeService(store.Grades, store.Subjects, store.Children, store.Classes, nil, nil)
	notifications := service.NewNotificationService(store.Notifications, store.Classes, store.Children, cache, nil, nil)
	messaging := service.NewMessagingService(store.Conversations, cache, nil, nil)
	dashboard := service.NewDashboardService(service.DashboardDeps{
		Children: children, Assignments: assignments, Notifications: notifications, Messages: messaging,
		Classes: store.Classes, Students: store.Children, Attendance: store.Attendance, Cache: cache, Clock: clock,
	})
	ai := service.NewAIService(service.AIDeps{
		Children: store.Children, Classes: store.Classes, Attendance: store.Attendance, Grades: grades,
		Assignments: assignments, Subjects: store.Subjects, Notifications: notifications, Metrics: metrics,
	})
	exports := service.NewExportService(service.ExportDeps{Jobs: store.ExportJobs, Children: store.Children, Classes: store.Classes, Attendance: store.Attendance, Metrics: metrics})

	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	Register(r.Group("/api/v1"), Handlers{
		Auth:          NewAuthHandler(auth),
		Children:      NewChildHandler(children, attendance, assignments, grades),
		Attendance:    NewAttendanceHandler(attendance),
		Assignments:   NewAssignmentHandler(assignments),
		Grades:        NewGradeHandler(grades),
		Notifications: NewNotificationHandler(notifications),
		Conversations: NewConversationHandler(messaging),
		Dashboard:     NewDashboardHandler(dashboard),
		AI:            NewAIHandler(ai),
		Exports:       NewExportHandler(exports),
	}, auth, metrics)
	return &testAPI{t: t, router: r}
}

func (a *testAPI) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (a *testAPI) login(email string) string {
	a.t.Helper()
	rec, env := a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "password"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(a.t, res.AccessToken)
	return res.AccessToken
}

func decode(t *testing.T, env envelope, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "jane.doe@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)

	rec, _ = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	api := newTestAPI(t)

	_, env := api.do(http.MethodGet, "/auth/session", "", nil)
	var anon struct {
		State string `json:"state"`
	}
	decode(t, env, &anon)
	assert.Equal(t, "anonymous", anon.State)

	token := api.login("jane.doe@example.com")

	_, env = api.do(http.MethodGet, "/auth/session", token, nil)
	var current struct {
		State string `json:"state"`
		Role  string `json:"role"`
		User  struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	decode(t, env, &current)
	assert.Equal(t, "logged_in", current.State)
	assert.Equal(t, "parent", current.Role)
	assert.Equal(t, "Jane Doe", current.User.Name)

	rec, env := api.do(http.MethodPost, "/auth/login-as", token, map[string]string{"role": "teacher"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	rec, _ = api.do(http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodGet, "/children/child1", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParentReadsChild(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("jane.doe@example.com")

	rec, env := api.do(http.MethodGet, "/children/child1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var child struct {
		ID                      string `json:"id"`
		CurrentAttendanceStatus string `json:"currentAttendanceStatus"`
		AbsenceCountThisMonth   int    `json:"absenceCountThisMonth"`
	}
	decode(t, env, &child)
	assert.Equal(t, "child1", child.ID)
	assert.Equal(t, "Present", child.CurrentAttendanceStatus)
	assert.Equal(t, 2, child.AbsenceCountThisMonth)

	rec, _ = api.do(http.MethodGet, "/children/child3", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(http.MethodGet, "/children/child1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = api.do(http.MethodGet, "/classes/classGrade5A/students", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTeacherMarksAttendance(t *testing.T) {
	api := newTestAPI(t)
	rec, env := api.do(http.MethodPost, "/auth/login-as", "", map[string]string{"role": "teacher"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, env, &login)
	token := login.AccessToken

	rec, _ = api.do(http.MethodPut, "/attendance", token, map[string]string{"childId": "child3", "date": "2024-03-14", "status": "Late"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = api.do(http.MethodGet, "/classes/classGrade5A/attendance?date=2024-03-14", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sheet struct {
		Entries []struct {
			ChildID string `json:"childId"`
			Status  string `json:"status"`
		} `json:"entries"`
	}
	decode(t, env, &sheet)
	require.Len(t, sheet.Entries, 2)
	assert.Equal(t, "child3", sheet.Entries[1].ChildID)
	assert.Equal(t, "Late", sheet.Entries[1].Status)

	rec, env = api.do(http.MethodPut, "/attendance", token, map[string]string{"childId": "child1", "date": "14/03/2024", "status": "Late"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Fields, "date")

	rec, _ = api.do(http.MethodPut, "/attendance", token, map[string]string{"childId": "child2", "date": "2024-03-14", "status": "Late"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTeacherDashboardCacheMeta(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("davis@school.example.com")

	rec, env := api.do(http.MethodGet, "/teacher/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, env.Meta["cacheHit"])

	_, env = api.do(http.MethodGet, "/teacher/dashboard", token, nil)
	assert.Equal(t, true, env.Meta["cacheHit"])

	rec, _ = api.do(http.MethodGet, "/parent/dashboard", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignmentAuthoring(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("davis@school.example.com")

	rec, env := api.do(http.MethodPost, "/classes/classGrade5A/assignments", token, map[string]string{
		"subjectId": "subjMath5A", "title": "Fractions", "dueDate": "2024-03-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, env, &created)
	require.NotEmpty(t, created.ID)

	rec, _ = api.do(http.MethodPut, "/assignments/"+created.ID+"/submissions/child1", token, map[string]interface{}{"grade": "B", "isSubmitted": true})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = api.do(http.MethodDelete, "/assignments/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = api.do(http.MethodDelete, "/assignments/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationsAndMessages(t *testing.T) {
	api := newTestAPI(t)
	teacher := api.login("davis@school.example.com")
	parent := api.login("jane.doe@example.com")

	rec, _ := api.do(http.MethodPost, "/notifications", parent, map[string]string{"title": "x", "content": "y", "type": "alert"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(http.MethodPost, "/notifications", teacher, map[string]string{"title": "Book fair", "content": "Friday", "type": "announcement"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, env := api.do(http.MethodGet, "/notifications", parent, nil)
	var list []struct {
		Title string `json:"title"`
	}
	decode(t, env, &list)
	require.NotEmpty(t, list)
	assert.Equal(t, "Book fair", list[0].Title)

	rec, _ = api.do(http.MethodPost, "/conversations/conv1/messages", parent, map[string]string{"text": "Thanks!"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = api.do(http.MethodGet, "/conversations/conv2", teacher, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = api.do(http.MethodPost, "/conversations/conv1/read", teacher, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportsDisabledAndDownloadNeedsToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("davis@school.example.com")

	rec, env := api.do(http.MethodPost, "/classes/classGrade5A/attendance/exports", token, map[string]string{"from": "2024-03-01", "to": "2024-03-14"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "FEATURE_DISABLED", env.Error.Code)

	rec, _ = api.do(http.MethodGet, "/exports/download", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAIWithoutGeneratorFails(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("jane.doe@example.com")

	rec, env := api.do(http.MethodPost, "/ai/absence-report", token, map[string]string{"childId": "child1", "childName": "Alex Johnson", "date": "2024-03-15", "reason": "Dentist"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "GENERATION_ERROR", env.Error.Code)

	rec, env = api.do(http.MethodPost, "/ai/absence-report", token, map[string]string{"childId": "child1", "childName": "Alex Johnson", "date": "2024-03-15"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Fields, "reason")
}
