package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
)

type childRepository interface {
	GetByID(ctx context.Context, id string) (*models.Child, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Child, error)
	ListByClass(ctx context.Context, classID string) ([]models.Child, error)
}

type subjectLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

type attendanceLister interface {
	ListByChild(ctx context.Context, childID string, from, to *time.Time) ([]models.AttendanceRecord, error)
}

// ChildService serves child profiles with attendance-derived fields.
type ChildService struct {
	children   childRepository
	classes    classReader
	subjects   subjectLister
	attendance attendanceLister
	guard      guard
	clock      Clock
	logger     *zap.Logger
}

func NewChildService(children childRepository, classes classReader, subjects subjectLister, attendance attendanceLister, clock Clock, logger *zap.Logger) *ChildService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChildService{
		children:   children,
		classes:    classes,
		subjects:   subjects,
		attendance: attendance,
		guard:      guard{children: children, classes: classes},
		clock:      clock,
		logger:     logger,
	}
}

// Get returns one child the actor may see.
func (s *ChildService) Get(ctx context.Context, actor Actor, childID string) (*models.ChildView, error) {
	child, err := s.guard.child(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, *child, s.clock.Today())
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListForParent returns the parent's children in enrolment order.
func (s *ChildService) ListForParent(ctx context.Context, actor Actor) ([]models.ChildView, error) {
	if !actor.IsParent() {
		return nil, errAuthorizationMismatch
	}
	children, err := s.children.ListByParent(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "children not found", "list children")
	}
	return s.views(ctx, children)
}

// ListForClass returns a class roster for its teacher.
func (s *ChildService) ListForClass(ctx context.Context, actor Actor, classID string) ([]models.ChildView, error) {
	if _, err := s.guard.class(ctx, actor, classID); err != nil {
		return nil, err
	}
	children, err := s.children.ListByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found", "list class students")
	}
	return s.views(ctx, children)
}

// Subjects lists the subjects of the child's class; empty without a class.
func (s *ChildService) Subjects(ctx context.Context, actor Actor, childID string) ([]models.Subject, error) {
	child, err := s.guard.child(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	if !child.HasClass() {
		return []models.Subject{}, nil
	}
	subjects, err := s.subjects.ListByClass(ctx, *child.ClassID)
	if err != nil {
		return nil, storeError(err, "class not found", "list subjects")
	}
	return subjects, nil
}

func (s *ChildService) views(ctx context.Context, children []models.Child) ([]models.ChildView, error) {
	today := s.clock.Today()
	out := make([]models.ChildView, 0, len(children))
	for _, c := range children {
		view, err := s.view(ctx, c, today)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *ChildService) view(ctx context.Context, child models.Child, today time.Time) (models.ChildView, error) {
	from := models.MonthStart(today)
	records, err := s.attendance.ListByChild(ctx, child.ID, &from, nil)
	if err != nil {
		return models.ChildView{}, storeError(err, "child not found", "load attendance")
	}
	return models.NewChildView(child, models.DeriveAttendance(records, today)), nil
}
