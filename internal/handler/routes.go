package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/middleware"
	"github.com/noah-isme/eduattend-api/internal/models"
)

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Children      *ChildHandler
	Attendance    *AttendanceHandler
	Assignments   *AssignmentHandler
	Grades        *GradeHandler
	Notifications *NotificationHandler
	Conversations *ConversationHandler
	Dashboard     *DashboardHandler
	AI            *AIHandler
	Exports       *ExportHandler
}

// Register mounts the API routes on api.
func Register(api *gin.RouterGroup, h Handlers, sessions middleware.SessionResolver, failures middleware.FailureRecorder) {
	parent := middleware.RequireRoles(models.RoleParent)
	teacher := middleware.RequireRoles(models.RoleTeacher)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", middleware.OptionalJWT(sessions, failures), h.Auth.Login)
	authGroup.POST("/login-as", middleware.OptionalJWT(sessions, failures), h.Auth.LoginAs)
	authGroup.GET("/session", middleware.OptionalJWT(sessions, failures), h.Auth.Session)
	authGroup.POST("/logout", middleware.JWT(sessions, failures), h.Auth.Logout)

	// Signed tokens authorise downloads; no session needed.
	api.GET("/exports/download", h.Exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(sessions, failures))

	secured.GET("/parent/dashboard", parent, h.Dashboard.Parent)
	secured.GET("/teacher/dashboard", teacher, h.Dashboard.Teacher)

	secured.GET("/children", parent, h.Children.List)
	children := secured.Group("/children/:childId")
	children.GET("", h.Children.Get)
	children.GET("/attendance", h.Children.Attendance)
	children.GET("/attendance/summary", h.Children.AttendanceSummary)
	children.GET("/assignments", h.Children.Assignments)
	children.GET("/subjects", h.Children.Subjects)
	children.GET("/grades", h.Children.Grades)

	ai := secured.Group("/ai", parent)
	ai.POST("/absence-report", h.AI.AbsenceReport)
	ai.POST("/absence-report/submit", h.AI.SubmitAbsenceReport)
	ai.POST("/academic-advice", h.AI.AcademicAdvice)

	classes := secured.Group("/classes/:classId", teacher)
	classes.GET("/students", h.Children.ClassStudents)
	classes.GET("/attendance", h.Attendance.Sheet)
	classes.PUT("/attendance", h.Attendance.MarkClass)
	classes.POST("/attendance/exports", h.Exports.Request)
	classes.GET("/assignments", h.Assignments.List)
	classes.POST("/assignments", h.Assignments.Create)
	classes.PUT("/assignments/:assignmentId", h.Assignments.Update)

	secured.PUT("/attendance", teacher, h.Attendance.Mark)

	assignments := secured.Group("/assignments/:assignmentId", teacher)
	assignments.DELETE("", h.Assignments.Delete)
	assignments.GET("/submissions", h.Assignments.Submissions)
	assignments.PUT("/submissions/:studentId", h.Assignments.Grade)

	students := secured.Group("/students/:studentId/grades")
	students.GET("", h.Grades.List)
	students.POST("", teacher, h.Grades.Create)
	students.PUT("/:gradeId", teacher, h.Grades.Update)

	secured.GET("/exports/:id", teacher, h.Exports.Status)

	secured.GET("/notifications", h.Notifications.List)
	secured.POST("/notifications", teacher, h.Notifications.Create)
	secured.POST("/notifications/:id/read", h.Notifications.MarkRead)

	secured.GET("/conversations", h.Conversations.List)
	secured.GET("/conversations/:id", h.Conversations.Get)
	secured.POST("/conversations/:id/messages", h.Conversations.Send)
	secured.POST("/conversations/:id/read", h.Conversations.MarkRead)
}
