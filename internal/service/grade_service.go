package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

type gradeRepository interface {
	GetByID(ctx context.Context, id string) (*models.GradeReportEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeReportEntry, error)
	Upsert(ctx context.Context, studentID string, entry models.GradeReportEntry, teacherID string) (*models.GradeReportEntry, error)
}

type subjectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Subject, error)
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

// GradeService serves report card entries.
type GradeService struct {
	grades    gradeRepository
	subjects  subjectRepository
	guard     guard
	validator *validator.Validate
	logger    *zap.Logger
}

func NewGradeService(grades gradeRepository, subjects subjectRepository, children childReader, classes classReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &GradeService{
		grades:    grades,
		subjects:  subjects,
		guard:     guard{children: children, classes: classes},
		validator: validate,
		logger:    logger,
	}
}

// ListForChild returns the child's report card with subject names.
func (s *GradeService) ListForChild(ctx context.Context, actor Actor, childID string) ([]models.GradeReportView, error) {
	child, err := s.guard.child(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	return s.viewFor(ctx, *child)
}

func (s *GradeService) viewFor(ctx context.Context, child models.Child) ([]models.GradeReportView, error) {
	entries, err := s.grades.ListByStudent(ctx, child.ID)
	if err != nil {
		return nil, storeError(err, "child not found", "list grades")
	}
	names := make(map[string]string)
	if child.HasClass() {
		subjects, err := s.subjects.ListByClass(ctx, *child.ClassID)
		if err != nil {
			return nil, storeError(err, "class not found", "list subjects")
		}
		for _, subj := range subjects {
			names[subj.ID] = subj.Name
		}
	}

	out := make([]models.GradeReportView, 0, len(entries))
	for _, e := range entries {
		name, ok := names[e.SubjectID]
		if !ok {
			// Entries can outlive a class change.
			if subj, err := s.subjects.GetByID(ctx, e.SubjectID); err == nil {
				name = subj.Name
			}
		}
		out = append(out, models.GradeReportView{GradeReportEntry: e, SubjectName: name})
	}
	return out, nil
}

// Save creates a report card entry, or replaces gradeID when given.
// Only the student's class teacher may write grades, and gradeID must
// already belong to studentID if it exists.
func (s *GradeService) Save(ctx context.Context, actor Actor, studentID, gradeID string, req models.SaveGradeRequest) (*models.GradeReportEntry, error) {
	if err := validation.Struct(s.validator, req, "invalid grade payload"); err != nil {
		return nil, err
	}
	if !actor.IsTeacher() {
		return nil, errAuthorizationMismatch
	}
	child, err := s.guard.child(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	subject, err := s.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		return nil, storeError(err, "subject not found", "load subject")
	}
	if subject.ClassID != *child.ClassID {
		return nil, appErrors.Clone(appErrors.ErrInvalidReference, "subject is not taught in the student's class")
	}
	if gradeID != "" {
		existing, err := s.grades.GetByID(ctx, gradeID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return nil, storeError(err, "grade not found", "load grade")
		case existing.StudentID != studentID:
			return nil, appErrors.Clone(appErrors.ErrForbidden, "grade entry belongs to another student")
		}
	}

	entry, err := s.grades.Upsert(ctx, studentID, models.GradeReportEntry{
		ID:              gradeID,
		SubjectID:       req.SubjectID,
		Grade:           req.Grade,
		TeacherFeedback: req.TeacherFeedback,
		Term:            req.Term,
	}, actor.UserID)
	if err != nil {
		return nil, storeError(err, "grade not found", "save grade")
	}
	return entry, nil
}
