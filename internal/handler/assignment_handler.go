package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

// AssignmentHandler exposes assignment authoring and grading for teachers.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs an AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary Assignments of a class
// @Tags Assignments
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	items, err := h.assignments.ListForClass(c.Request.Context(), a, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Create godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body models.SaveAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classes/{classId}/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	h.save(c, "")
}

// Update godoc
// @Summary Create or replace assignment by id
// @Tags Assignments
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body models.SaveAssignmentRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{classId}/assignments/{assignmentId} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	h.save(c, c.Param("assignmentId"))
}

func (h *AssignmentHandler) save(c *gin.Context, id string) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.SaveAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	saved, err := h.assignments.Save(c.Request.Context(), a, c.Param("classId"), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if id == "" {
		response.Created(c, saved)
		return
	}
	response.OK(c, saved)
}

// Delete godoc
// @Summary Delete assignment
// @Description Removes the assignment together with its submissions
// @Tags Assignments
// @Param assignmentId path string true "Assignment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /assignments/{assignmentId} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.assignments.Delete(c.Request.Context(), a, c.Param("assignmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submissions godoc
// @Summary Submissions of an assignment
// @Description One row per student of the class, in roster order
// @Tags Assignments
// @Produce json
// @Param assignmentId path string true "Assignment ID"
// @Param classId query string false "Class ID the assignment must belong to"
// @Success 200 {object} response.Envelope
// @Router /assignments/{assignmentId}/submissions [get]
func (h *AssignmentHandler) Submissions(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rows, err := h.assignments.Submissions(c.Request.Context(), a, c.Param("assignmentId"), c.Query("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Grade godoc
// @Summary Grade a submission
// @Description Upserts the submission for (assignment, student)
// @Tags Assignments
// @Accept json
// @Produce json
// @Param assignmentId path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body models.GradeSubmissionRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assignments/{assignmentId}/submissions/{studentId} [put]
func (h *AssignmentHandler) Grade(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.GradeSubmissionRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	sub, err := h.assignments.Grade(c.Request.Context(), a, c.Param("assignmentId"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}
