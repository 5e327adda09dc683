package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

// GradeHandler exposes report card entries.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs a GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary Report card of a student
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	grades, err := h.grades.ListForChild(c.Request.Context(), a, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grades)
}

// Create godoc
// @Summary Add report card entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body models.SaveGradeRequest true "Grade"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{studentId}/grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	h.save(c, "")
}

// Update godoc
// @Summary Replace report card entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param gradeId path string true "Grade ID"
// @Param payload body models.SaveGradeRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/grades/{gradeId} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	h.save(c, c.Param("gradeId"))
}

func (h *GradeHandler) save(c *gin.Context, id string) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.SaveGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	entry, err := h.grades.Save(c.Request.Context(), a, c.Param("studentId"), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if id == "" {
		response.Created(c, entry)
		return
	}
	response.OK(c, entry)
}
