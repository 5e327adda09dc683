package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

// ChildHandler serves per-child read models to parents and class teachers.
type ChildHandler struct {
	children    *service.ChildService
	attendance  *service.AttendanceService
	assignments *service.AssignmentService
	grades      *service.GradeService
}

// NewChildHandler constructs a ChildHandler.
func NewChildHandler(children *service.ChildService, attendance *service.AttendanceService, assignments *service.AssignmentService, grades *service.GradeService) *ChildHandler {
	return &ChildHandler{children: children, attendance: attendance, assignments: assignments, grades: grades}
}

// Get godoc
// @Summary Child profile
// @Description Child with derived attendance fields
// @Tags Children
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{childId} [get]
func (h *ChildHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	child, err := h.children.Get(c.Request.Context(), a, c.Param("childId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, child)
}

// List godoc
// @Summary Children of the current parent
// @Tags Children
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /children [get]
func (h *ChildHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	children, err := h.children.ListForParent(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, children)
}

// Attendance godoc
// @Summary Attendance history
// @Tags Children
// @Produce json
// @Param childId path string true "Child ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /children/{childId}/attendance [get]
func (h *ChildHandler) Attendance(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	records, err := h.attendance.History(c.Request.Context(), a, c.Param("childId"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

// AttendanceSummary godoc
// @Summary Monthly attendance summary
// @Tags Children
// @Produce json
// @Param childId path string true "Child ID"
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Success 200 {object} response.Envelope
// @Router /children/{childId}/attendance/summary [get]
func (h *ChildHandler) AttendanceSummary(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	summary, err := h.attendance.MonthlySummary(c.Request.Context(), a, c.Param("childId"), c.Query("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// Assignments godoc
// @Summary Assignments of a child
// @Description Class assignments merged with the child's submissions
// @Tags Children
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /children/{childId}/assignments [get]
func (h *ChildHandler) Assignments(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	views, err := h.assignments.ViewForChild(c.Request.Context(), a, c.Param("childId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views)
}

// Subjects godoc
// @Summary Subjects of a child's class
// @Tags Children
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /children/{childId}/subjects [get]
func (h *ChildHandler) Subjects(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	subjects, err := h.children.Subjects(c.Request.Context(), a, c.Param("childId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subjects)
}

// Grades godoc
// @Summary Report card of a child
// @Tags Children
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /children/{childId}/grades [get]
func (h *ChildHandler) Grades(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	grades, err := h.grades.ListForChild(c.Request.Context(), a, c.Param("childId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grades)
}

// ClassStudents godoc
// @Summary Class roster
// @Tags Classes
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{classId}/students [get]
func (h *ChildHandler) ClassStudents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	students, err := h.children.ListForClass(c.Request.Context(), a, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}
