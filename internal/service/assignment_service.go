package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

type assignmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByClass(ctx context.Context, classID string) ([]models.Assignment, error)
	Upsert(ctx context.Context, classID string, a models.Assignment, teacherID string) (*models.Assignment, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type submissionRepository interface {
	Get(ctx context.Context, assignmentID, studentID string) (*models.AssignmentSubmission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AssignmentSubmission, error)
	Upsert(ctx context.Context, patch models.SubmissionPatch) (*models.AssignmentSubmission, error)
}

// AssignmentService manages class assignments and student submissions.
type AssignmentService struct {
	assignments assignmentRepository
	submissions submissionRepository
	subjects    subjectLister
	children    childRepository
	guard       guard
	cache       *CacheService
	validator   *validator.Validate
	clock       Clock
	logger      *zap.Logger
}

func NewAssignmentService(assignments assignmentRepository, submissions submissionRepository, subjects subjectLister, children childRepository, classes classReader, cache *CacheService, validate *validator.Validate, clock Clock, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &AssignmentService{
		assignments: assignments,
		submissions: submissions,
		subjects:    subjects,
		children:    children,
		guard:       guard{children: children, classes: classes},
		cache:       cache,
		validator:   validate,
		clock:       clock,
		logger:      logger,
	}
}

// ViewForChild lists the assignments of the child's class with the child's
// submission state. A child without a class has none.
func (s *AssignmentService) ViewForChild(ctx context.Context, actor Actor, childID string) ([]models.AssignmentView, error) {
	child, err := s.guard.child(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	return s.viewFor(ctx, *child)
}

func (s *AssignmentService) viewFor(ctx context.Context, child models.Child) ([]models.AssignmentView, error) {
	if !child.HasClass() {
		return []models.AssignmentView{}, nil
	}
	classID := *child.ClassID

	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found", "list assignments")
	}
	subs, err := s.submissions.ListByStudent(ctx, child.ID)
	if err != nil {
		return nil, storeError(err, "child not found", "list submissions")
	}
	subjects, err := s.subjects.ListByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found", "list subjects")
	}

	byAssignment := make(map[string]models.AssignmentSubmission, len(subs))
	for _, sub := range subs {
		byAssignment[sub.AssignmentID] = sub
	}
	subjectNames := make(map[string]string, len(subjects))
	for _, subj := range subjects {
		subjectNames[subj.ID] = subj.Name
	}

	out := make([]models.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		view := models.AssignmentView{Assignment: a, SubjectName: subjectNames[a.SubjectID]}
		if sub, ok := byAssignment[a.ID]; ok {
			view.Submitted = sub.IsSubmitted
			view.Grade = sub.Grade
			view.SubmittedDate = sub.SubmittedDate
			view.FileRef = sub.FileRef
		}
		out = append(out, view)
	}
	return out, nil
}

// ListForClass lists a class's assignments for its teacher.
func (s *AssignmentService) ListForClass(ctx context.Context, actor Actor, classID string) ([]models.Assignment, error) {
	if _, err := s.guard.class(ctx, actor, classID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found", "list assignments")
	}
	return assignments, nil
}

// Save creates an assignment or replaces the one named by assignmentID.
// An unknown assignmentID is created under that id.
func (s *AssignmentService) Save(ctx context.Context, actor Actor, classID, assignmentID string, req models.SaveAssignmentRequest) (*models.Assignment, error) {
	if err := validation.Struct(s.validator, req, "invalid assignment payload"); err != nil {
		return nil, err
	}
	if _, err := s.guard.class(ctx, actor, classID); err != nil {
		return nil, err
	}
	due, err := parseDay(req.DueDate, "dueDate")
	if err != nil {
		return nil, err
	}
	if assignmentID != "" {
		existing, err := s.assignments.GetByID(ctx, assignmentID)
		switch {
		case err == nil && existing.ClassID != classID:
			return nil, errAuthorizationMismatch
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, storeError(err, "assignment not found", "load assignment")
		}
	}

	saved, err := s.assignments.Upsert(ctx, classID, models.Assignment{
		ID:          assignmentID,
		SubjectID:   req.SubjectID,
		ClassID:     classID,
		Title:       req.Title,
		DueDate:     due,
		Description: req.Description,
	}, actor.UserID)
	if err != nil {
		return nil, storeError(err, "class not found", "save assignment")
	}
	s.invalidate(ctx)
	return saved, nil
}

// Delete removes an assignment and its submissions.
func (s *AssignmentService) Delete(ctx context.Context, actor Actor, assignmentID string) error {
	if _, err := s.owned(ctx, actor, assignmentID); err != nil {
		return err
	}
	removed, err := s.assignments.Delete(ctx, assignmentID)
	if err != nil {
		return storeError(err, "assignment not found", "delete assignment")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	s.invalidate(ctx)
	s.logger.Info("assignment deleted", zap.String("assignment_id", assignmentID), zap.String("teacher_id", actor.UserID))
	return nil
}

// Submissions lists every student of the assignment's class with their
// submission. classID, when given, must be the assignment's class.
func (s *AssignmentService) Submissions(ctx context.Context, actor Actor, assignmentID, classID string) ([]models.SubmissionRow, error) {
	assignment, err := s.owned(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	if classID != "" && classID != assignment.ClassID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found in class")
	}

	students, err := s.children.ListByClass(ctx, assignment.ClassID)
	if err != nil {
		return nil, storeError(err, "class not found", "list class students")
	}
	subs, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, storeError(err, "assignment not found", "list submissions")
	}
	byStudent := make(map[string]models.AssignmentSubmission, len(subs))
	for _, sub := range subs {
		byStudent[sub.StudentID] = sub
	}

	rows := make([]models.SubmissionRow, 0, len(students))
	for _, st := range students {
		row := models.SubmissionRow{StudentID: st.ID, StudentName: st.Name}
		if sub, ok := byStudent[st.ID]; ok {
			sub := sub
			row.Submission = &sub
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Grade upserts the submission of studentID for an assignment. Omitted fields
// keep their stored values.
func (s *AssignmentService) Grade(ctx context.Context, actor Actor, assignmentID, studentID string, req models.GradeSubmissionRequest) (*models.AssignmentSubmission, error) {
	if err := validation.Struct(s.validator, req, "invalid submission payload"); err != nil {
		return nil, err
	}
	assignment, err := s.owned(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	student, err := s.children.GetByID(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student not found", "load student")
	}
	if !student.HasClass() || *student.ClassID != assignment.ClassID {
		return nil, appErrors.Clone(appErrors.ErrInvalidReference, "student is not in the assignment's class")
	}

	patch := models.SubmissionPatch{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		IsSubmitted:  req.IsSubmitted,
		Grade:        req.Grade,
		Feedback:     req.Feedback,
		FileRef:      req.FileRef,
	}
	if req.IsSubmitted != nil && *req.IsSubmitted {
		existing, err := s.submissions.Get(ctx, assignmentID, studentID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, storeError(err, "submission not found", "load submission")
		}
		if existing == nil || existing.SubmittedDate == nil {
			today := s.clock.Today()
			patch.SubmittedDate = &today
		}
	}

	sub, err := s.submissions.Upsert(ctx, patch)
	if err != nil {
		return nil, storeError(err, "assignment not found", "save submission")
	}
	s.invalidate(ctx)
	return sub, nil
}

func (s *AssignmentService) owned(ctx context.Context, actor Actor, assignmentID string) (*models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, storeError(err, "assignment not found", "load assignment")
	}
	if _, err := s.guard.class(ctx, actor, assignment.ClassID); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, dashboardCachePattern)
}

// upcoming keeps unsubmitted assignments due on or after today.
func upcoming(views []models.AssignmentView, today time.Time) []models.AssignmentView {
	out := make([]models.AssignmentView, 0, len(views))
	for _, v := range views {
		if !v.Submitted && !v.DueDate.Before(today) {
			out = append(out, v)
		}
	}
	return out
}
