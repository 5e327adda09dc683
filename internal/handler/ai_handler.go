package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

type aiService interface {
	AbsenceReport(ctx context.Context, actor service.Actor, req models.AbsenceReportRequest) (*models.AbsenceReportOutput, error)
	SubmitAbsenceReport(ctx context.Context, actor service.Actor, req models.SubmitAbsenceReportRequest) (*models.SchoolNotification, error)
	AcademicAdvice(ctx context.Context, actor service.Actor, req models.AcademicAdviceRequest) (*models.AcademicAdviceOutput, error)
}

// AIHandler exposes the drafting helpers.
type AIHandler struct {
	service aiService
}

// NewAIHandler constructs an AIHandler.
func NewAIHandler(service aiService) *AIHandler {
	return &AIHandler{service: service}
}

// AbsenceReport godoc
// @Summary Draft absence notification
// @Description Drafts a polite absence note for the class teacher
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body models.AbsenceReportRequest true "Absence form"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /ai/absence-report [post]
func (h *AIHandler) AbsenceReport(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.AbsenceReportRequest
	if !bindJSON(c, &req, "invalid absence report payload") {
		return
	}
	out, err := h.service.AbsenceReport(c.Request.Context(), a, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// SubmitAbsenceReport godoc
// @Summary Send absence notification
// @Description Files the reviewed draft as a notification to the class teacher
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body models.SubmitAbsenceReportRequest true "Reviewed draft"
// @Success 201 {object} response.Envelope
// @Router /ai/absence-report/submit [post]
func (h *AIHandler) SubmitAbsenceReport(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.SubmitAbsenceReportRequest
	if !bindJSON(c, &req, "invalid absence report payload") {
		return
	}
	n, err := h.service.SubmitAbsenceReport(c.Request.Context(), a, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, n)
}

// AcademicAdvice godoc
// @Summary Academic progress advice
// @Tags AI
// @Accept json
// @Produce json
// @Param payload body models.AcademicAdviceRequest true "Child"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /ai/academic-advice [post]
func (h *AIHandler) AcademicAdvice(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.AcademicAdviceRequest
	if !bindJSON(c, &req, "invalid academic advice payload") {
		return
	}
	out, err := h.service.AcademicAdvice(c.Request.Context(), a, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
