package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eduattend-api/internal/middleware"
	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
)

type fakeDashboardSrv struct {
	parentResp  *models.ParentDashboard
	parentHit   bool
	teacherResp *models.TeacherDashboard
	teacherErr  error
	lastActor   service.Actor
}

func (f *fakeDashboardSrv) Parent(_ context.Context, actor service.Actor) (*models.ParentDashboard, bool, error) {
	f.lastActor = actor
	return f.parentResp, f.parentHit, nil
}

func (f *fakeDashboardSrv) Teacher(_ context.Context, actor service.Actor) (*models.TeacherDashboard, bool, error) {
	f.lastActor = actor
	return f.teacherResp, false, f.teacherErr
}

func TestDashboardHandlerRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/parent/dashboard", nil)

	handler.Parent(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerParentCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{
		parentResp: &models.ParentDashboard{UnreadNotifications: 3, UnreadMessages: 1},
		parentHit:  true,
	}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/parent/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "parent1", Role: models.RoleParent})

	handler.Parent(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cacheHit"])
	assert.Equal(t, float64(3), envelope.Data["unreadNotifications"])
	assert.Equal(t, "parent1", srv.lastActor.UserID)
}

func TestDashboardHandlerTeacherError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{teacherErr: appErrors.Wrap(errors.New("boom"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/teacher/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher1", Role: models.RoleTeacher})

	handler.Teacher(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
