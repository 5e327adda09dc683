package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

type notificationRepository interface {
	Add(ctx context.Context, n models.NewNotification) (*models.SchoolNotification, error)
	List(ctx context.Context) ([]models.SchoolNotification, error)
	MarkRead(ctx context.Context, id string) (*models.SchoolNotification, error)
}

type classLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.SchoolClass, error)
}

type parentChildLister interface {
	ListByParent(ctx context.Context, parentID string) ([]models.Child, error)
}

// NotificationService filters the school feed by audience and publishes teacher notices.
type NotificationService struct {
	notifications notificationRepository
	classes       classLister
	children      parentChildLister
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
}

func NewNotificationService(notifications notificationRepository, classes classLister, children parentChildLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &NotificationService{
		notifications: notifications,
		classes:       classes,
		children:      children,
		cache:         cache,
		validator:     validate,
		logger:        logger,
	}
}

// ListFor returns the notifications addressed to actor, newest first.
func (s *NotificationService) ListFor(ctx context.Context, actor Actor) ([]models.SchoolNotification, error) {
	recipient, err := s.recipient(ctx, actor)
	if err != nil {
		return nil, err
	}
	all, err := s.notifications.List(ctx)
	if err != nil {
		return nil, storeError(err, "notifications not found", "list notifications")
	}
	out := make([]models.SchoolNotification, 0, len(all))
	for _, n := range all {
		if recipient.Matches(n.TargetAudience) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// UnreadCount counts the unread notifications visible to actor.
func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	list, err := s.ListFor(ctx, actor)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// Create publishes a teacher notification.
func (s *NotificationService) Create(ctx context.Context, actor Actor, req models.CreateNotificationRequest) (*models.SchoolNotification, error) {
	if err := validation.Struct(s.validator, req, "invalid notification payload"); err != nil {
		return nil, err
	}
	if !actor.IsTeacher() {
		return nil, errAuthorizationMismatch
	}
	if !models.ValidAudience(req.TargetAudience) {
		return nil, appErrors.WithFields(nil, "invalid notification payload", map[string][]string{
			"targetAudience": {"must be a comma-separated list of all, parents, teachers, class:<id> or user:<id>"},
		})
	}
	audience := req.TargetAudience
	if audience == "" {
		audience = models.AudienceAll
	}
	return s.Publish(ctx, models.NewNotification{
		Title:          req.Title,
		Content:        req.Content,
		Type:           req.Type,
		TargetAudience: audience,
	})
}

// Publish stores n without authorization checks. Used for system notices.
func (s *NotificationService) Publish(ctx context.Context, n models.NewNotification) (*models.SchoolNotification, error) {
	created, err := s.notifications.Add(ctx, n)
	if err != nil {
		return nil, storeError(err, "notification not found", "create notification")
	}
	_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("notification published", zap.String("notification_id", created.ID), zap.String("audience", created.TargetAudience))
	return created, nil
}

// MarkRead flags a notification the actor can see as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) (*models.SchoolNotification, error) {
	list, err := s.ListFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	visible := false
	for _, n := range list {
		if n.ID == id {
			visible = true
			break
		}
	}
	if !visible {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	updated, err := s.notifications.MarkRead(ctx, id)
	if err != nil {
		return nil, storeError(err, "notification not found", "mark notification read")
	}
	_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	return updated, nil
}

func (s *NotificationService) recipient(ctx context.Context, actor Actor) (models.Recipient, error) {
	r := models.Recipient{UserID: actor.UserID, Role: actor.Role}
	switch actor.Role {
	case models.RoleTeacher:
		classes, err := s.classes.ListByTeacher(ctx, actor.UserID)
		if err != nil {
			return r, storeError(err, "classes not found", "list classes")
		}
		for _, c := range classes {
			r.ClassIDs = append(r.ClassIDs, c.ID)
		}
	case models.RoleParent:
		children, err := s.children.ListByParent(ctx, actor.UserID)
		if err != nil {
			return r, storeError(err, "children not found", "list children")
		}
		for _, c := range children {
			if c.HasClass() {
				r.ClassIDs = append(r.ClassIDs, *c.ClassID)
			}
		}
	default:
		return r, errAuthorizationMismatch
	}
	return r, nil
}
