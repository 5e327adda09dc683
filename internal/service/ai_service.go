package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/genai"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

const (
	flowAbsenceReport  = "absence_report"
	flowAcademicAdvice = "academic_advice"

	maxPastReasons    = 5
	adviceAssignments = 5
	defaultAITimeout  = 30 * time.Second
	outcomeSuccess    = "success"
	outcomeError      = "error"
	outcomeTimeout    = "timeout"
	outcomeInvalid    = "invalid_output"
	outcomeSuperseded = "cancelled"
)

var errSuperseded = appErrors.Clone(appErrors.ErrGeneration, "request was cancelled")

// AIService drafts absence notifications and academic advice through the
// generation client.
type AIService struct {
	generator     genai.Generator
	children      childRepository
	classes       classReader
	attendance    attendanceLister
	grades        *GradeService
	assignments   *AssignmentService
	subjects      subjectLister
	notifications *NotificationService
	guard         guard
	validator     *validator.Validate
	metrics       *MetricsService
	timeout       time.Duration
	logger        *zap.Logger

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	cancel context.CancelFunc
}

// AIDeps groups the collaborators of AIService.
type AIDeps struct {
	Generator     genai.Generator
	Children      childRepository
	Classes       classReader
	Attendance    attendanceLister
	Grades        *GradeService
	Assignments   *AssignmentService
	Subjects      subjectLister
	Notifications *NotificationService
	Validator     *validator.Validate
	Metrics       *MetricsService
	Timeout       time.Duration
	Logger        *zap.Logger
}

func NewAIService(deps AIDeps) *AIService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := deps.Validator
	if validate == nil {
		validate = validation.New()
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	return &AIService{
		generator:     deps.Generator,
		children:      deps.Children,
		classes:       deps.Classes,
		attendance:    deps.Attendance,
		grades:        deps.Grades,
		assignments:   deps.Assignments,
		subjects:      deps.Subjects,
		notifications: deps.Notifications,
		guard:         guard{children: deps.Children, classes: deps.Classes},
		validator:     validate,
		metrics:       deps.Metrics,
		timeout:       timeout,
		logger:        logger,
		inflight:      make(map[string]*inflightCall),
	}
}

// AbsenceReport drafts an absence notification for one of the parent's children.
func (s *AIService) AbsenceReport(ctx context.Context, actor Actor, req models.AbsenceReportRequest) (*models.AbsenceReportOutput, error) {
	if err := validation.Struct(s.validator, req, "invalid absence report"); err != nil {
		return nil, err
	}
	if !actor.IsParent() {
		return nil, errAuthorizationMismatch
	}
	child, err := s.guard.child(ctx, actor, req.ChildID)
	if err != nil {
		return nil, err
	}

	past, err := s.pastReasons(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	prompt, err := renderAbsencePrompt(models.AbsenceReportInput{
		ChildName:         req.ChildName,
		Date:              req.Date,
		Reason:            req.Reason,
		AdditionalDetails: req.AdditionalDetails,
		PastReasons:       past,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build prompt")
	}

	var out models.AbsenceReportOutput
	if err := s.generate(ctx, actor, flowAbsenceReport, prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAbsenceReport files a reviewed draft as an absence notification to the
// child's class teacher.
func (s *AIService) SubmitAbsenceReport(ctx context.Context, actor Actor, req models.SubmitAbsenceReportRequest) (*models.SchoolNotification, error) {
	if err := validation.Struct(s.validator, req, "invalid absence report"); err != nil {
		return nil, err
	}
	if !actor.IsParent() {
		return nil, errAuthorizationMismatch
	}
	child, err := s.guard.child(ctx, actor, req.ChildID)
	if err != nil {
		return nil, err
	}
	if !child.HasClass() {
		return nil, appErrors.Clone(appErrors.ErrInvalidReference, "child is not assigned to a class")
	}
	class, err := s.classes.GetByID(ctx, *child.ClassID)
	if err != nil {
		return nil, storeError(err, "class not found", "load class")
	}

	return s.notifications.Publish(ctx, models.NewNotification{
		Title:          fmt.Sprintf("Absence report: %s (%s)", child.Name, req.Date),
		Content:        req.NotificationText,
		Type:           models.NotificationAbsence,
		TargetAudience: models.UserAudience(class.TeacherID),
	})
}

// AcademicAdvice summarises a child's grades, recent assignments and syllabus progress.
func (s *AIService) AcademicAdvice(ctx context.Context, actor Actor, req models.AcademicAdviceRequest) (*models.AcademicAdviceOutput, error) {
	if err := validation.Struct(s.validator, req, "invalid academic advice request"); err != nil {
		return nil, err
	}
	if !actor.IsParent() {
		return nil, errAuthorizationMismatch
	}
	child, err := s.guard.child(ctx, actor, req.ChildID)
	if err != nil {
		return nil, err
	}

	grades, err := s.grades.viewFor(ctx, *child)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.viewFor(ctx, *child)
	if err != nil {
		return nil, err
	}
	if len(assignments) > adviceAssignments {
		assignments = assignments[:adviceAssignments]
	}
	subjects := []models.Subject{}
	if child.HasClass() {
		if subjects, err = s.subjects.ListByClass(ctx, *child.ClassID); err != nil {
			return nil, storeError(err, "class not found", "list subjects")
		}
	}

	prompt, err := renderAdvicePrompt(models.AcademicAdviceInput{
		ChildName:    req.ChildName,
		GradeReports: grades,
		Assignments:  assignments,
		Subjects:     subjects,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build prompt")
	}

	var out models.AcademicAdviceOutput
	if err := s.generate(ctx, actor, flowAcademicAdvice, prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// pastReasons returns notes of earlier Absent or Excused records, newest first.
func (s *AIService) pastReasons(ctx context.Context, childID string) ([]string, error) {
	records, err := s.attendance.ListByChild(ctx, childID, nil, nil)
	if err != nil {
		return nil, storeError(err, "child not found", "list attendance")
	}
	out := make([]string, 0, maxPastReasons)
	for _, r := range records {
		if len(out) == maxPastReasons {
			break
		}
		if r.Status != models.AttendanceAbsent && r.Status != models.AttendanceExcused {
			continue
		}
		if r.Notes != nil && *r.Notes != "" {
			out = append(out, *r.Notes)
		}
	}
	return out, nil
}

// generate runs one flow call with the configured timeout. A newer call from
// the same user for the same flow cancels this one.
func (s *AIService) generate(ctx context.Context, actor Actor, flow, prompt string, out interface{}) error {
	if s.generator == nil {
		return appErrors.Clone(appErrors.ErrGeneration, "generation service not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	call := s.register(actor.UserID+"|"+flow, cancel)
	defer s.release(actor.UserID+"|"+flow, call)

	start := time.Now()
	err := s.generator.GenerateJSON(callCtx, prompt, out)
	if err == nil {
		if verr := s.validator.Struct(out); verr != nil {
			s.metrics.ObserveGeneration(flow, outcomeInvalid, time.Since(start))
			s.logger.Warn("generation output rejected", zap.String("flow", flow), zap.Error(verr))
			return appErrors.Wrap(verr, appErrors.ErrGeneration.Code, appErrors.ErrGeneration.Status, appErrors.ErrGeneration.Message)
		}
		s.metrics.ObserveGeneration(flow, outcomeSuccess, time.Since(start))
		return nil
	}

	switch {
	case errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		s.metrics.ObserveGeneration(flow, outcomeTimeout, time.Since(start))
		s.logger.Warn("generation timed out", zap.String("flow", flow), zap.Duration("timeout", s.timeout))
		return appErrors.Wrap(err, appErrors.ErrGenerationTimeout.Code, appErrors.ErrGenerationTimeout.Status, appErrors.ErrGenerationTimeout.Message)
	case errors.Is(callCtx.Err(), context.Canceled):
		s.metrics.ObserveGeneration(flow, outcomeSuperseded, time.Since(start))
		return errSuperseded
	default:
		s.metrics.ObserveGeneration(flow, outcomeError, time.Since(start))
		s.logger.Error("generation failed", zap.String("flow", flow), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrGeneration.Code, appErrors.ErrGeneration.Status, appErrors.ErrGeneration.Message)
	}
}

func (s *AIService) register(key string, cancel context.CancelFunc) *inflightCall {
	call := &inflightCall{cancel: cancel}
	s.mu.Lock()
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}
	s.inflight[key] = call
	s.mu.Unlock()
	return call
}

func (s *AIService) release(key string, call *inflightCall) {
	s.mu.Lock()
	if s.inflight[key] == call {
		delete(s.inflight, key)
	}
	s.mu.Unlock()
}
