package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

// AttendanceHandler exposes teacher attendance marking.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Mark godoc
// @Summary Mark attendance for one child
// @Description Upserts the record for (child, date)
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.MarkAttendanceRequest true "Attendance mark"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), a, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, record)
}

// MarkClass godoc
// @Summary Save a class attendance sheet
// @Description Upserts one record per entry; nothing is written when any entry is invalid
// @Tags Attendance
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body models.ClassAttendanceRequest true "Class sheet"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{classId}/attendance [put]
func (h *AttendanceHandler) MarkClass(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.ClassAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	records, err := h.attendance.MarkClass(c.Request.Context(), a, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

// Sheet godoc
// @Summary Class attendance sheet
// @Description Unmarked students are reported Present with recorded=false
// @Tags Attendance
// @Produce json
// @Param classId path string true "Class ID"
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	sheet, err := h.attendance.ClassSheet(c.Request.Context(), a, c.Param("classId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sheet)
}
