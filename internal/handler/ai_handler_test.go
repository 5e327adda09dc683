package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduattend-api/internal/middleware"
	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
)

type fakeAISrv struct {
	lastAbsence models.AbsenceReportRequest
	err         error
}

func (f *fakeAISrv) AbsenceReport(_ context.Context, _ service.Actor, req models.AbsenceReportRequest) (*models.AbsenceReportOutput, error) {
	f.lastAbsence = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AbsenceReportOutput{NotificationText: "Dear Ms. Davis, Alex will be absent."}, nil
}

func (f *fakeAISrv) SubmitAbsenceReport(context.Context, service.Actor, models.SubmitAbsenceReportRequest) (*models.SchoolNotification, error) {
	return &models.SchoolNotification{ID: "n1", Type: models.NotificationAbsence}, nil
}

func (f *fakeAISrv) AcademicAdvice(context.Context, service.Actor, models.AcademicAdviceRequest) (*models.AcademicAdviceOutput, error) {
	return nil, f.err
}

func aiContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/ai", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "parent1", Role: models.RoleParent})
	return c, rec
}

func TestAIHandlerAbsenceReport(t *testing.T) {
	srv := &fakeAISrv{}
	handler := NewAIHandler(srv)
	c, rec := aiContext(`{"childId":"child1","childName":"Alex Johnson","date":"2024-03-15","reason":"Dentist"}`)

	handler.AbsenceReport(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dentist", srv.lastAbsence.Reason)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data["notificationText"], "Alex")
}

func TestAIHandlerMalformedBody(t *testing.T) {
	handler := NewAIHandler(&fakeAISrv{})
	c, rec := aiContext(`{"childId":`)

	handler.AbsenceReport(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAIHandlerTimeoutStatus(t *testing.T) {
	handler := NewAIHandler(&fakeAISrv{err: appErrors.ErrGenerationTimeout})
	c, rec := aiContext(`{"childId":"child1","childName":"Alex Johnson"}`)

	handler.AcademicAdvice(c)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestAIHandlerSubmitCreates(t *testing.T) {
	handler := NewAIHandler(&fakeAISrv{})
	c, rec := aiContext(`{"childId":"child1","date":"2024-03-15","notificationText":"Alex is ill."}`)

	handler.SubmitAbsenceReport(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
