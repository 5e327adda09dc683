package service

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID string
	Role   models.UserRole
	Name   string
}

// ActorFromClaims extracts the caller from verified token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role, Name: claims.Name}
}

func (a Actor) IsParent() bool  { return a.Role == models.RoleParent }
func (a Actor) IsTeacher() bool { return a.Role == models.RoleTeacher }

// Clock decides what "today" is for the school.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Today is the current school day as a DayOf value.
func (c Clock) Today() time.Time {
	return models.DayOf(c.now(), c.Location)
}

var errAuthorizationMismatch = appErrors.Clone(appErrors.ErrForbidden, "authorization mismatch")

// storeError maps repository sentinels onto API errors.
func storeError(err error, notFound string, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, repository.ErrOwnerMismatch):
		return errAuthorizationMismatch
	case errors.Is(err, repository.ErrInvalidReference):
		return appErrors.Wrap(err, appErrors.ErrInvalidReference.Code, appErrors.ErrInvalidReference.Status, err.Error())
	default:
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op)
	}
}

type childReader interface {
	GetByID(ctx context.Context, id string) (*models.Child, error)
}

type classReader interface {
	GetByID(ctx context.Context, id string) (*models.SchoolClass, error)
}

// guard enforces ownership: parents reach their own children, teachers reach
// the children and classes they teach.
type guard struct {
	children childReader
	classes  classReader
}

func (g guard) child(ctx context.Context, actor Actor, childID string) (*models.Child, error) {
	child, err := g.children.GetByID(ctx, childID)
	if err != nil {
		return nil, storeError(err, "child not found", "load child")
	}
	switch actor.Role {
	case models.RoleParent:
		if child.ParentID == actor.UserID {
			return child, nil
		}
	case models.RoleTeacher:
		if child.HasClass() {
			class, err := g.classes.GetByID(ctx, *child.ClassID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, storeError(err, "class not found", "load class")
			}
			if class != nil && class.TeacherID == actor.UserID {
				return child, nil
			}
		}
	}
	return nil, errAuthorizationMismatch
}

func (g guard) class(ctx context.Context, actor Actor, classID string) (*models.SchoolClass, error) {
	class, err := g.classes.GetByID(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found", "load class")
	}
	if !actor.IsTeacher() || class.TeacherID != actor.UserID {
		return nil, errAuthorizationMismatch
	}
	return class, nil
}

func parseDay(raw string, field string) (time.Time, error) {
	day, err := time.Parse(validation.DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.WithFields(err, "invalid date", map[string][]string{field: {"must be a date in YYYY-MM-DD format"}})
	}
	return day, nil
}

func strPtr(s string) *string {
	return &s
}
