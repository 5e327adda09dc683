package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
)

// Manager opens, resolves and closes sessions against a Store.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewManager(store Store, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{store: store, ttl: ttl, logger: logger}
}

// TTL is the lifetime of a new session.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Open starts a logged-in session for role and returns its id.
func (m *Manager) Open(ctx context.Context, from models.SessionState, role models.UserRole) (string, error) {
	if _, err := Transition(from, EventLoginAs); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := m.store.Put(ctx, id, role, m.ttl); err != nil {
		return "", err
	}
	return id, nil
}

// Resolve reports the state of session id. A store failure resolves to
// SessionUnknown together with the error.
func (m *Manager) Resolve(ctx context.Context, id string) (models.SessionState, models.UserRole, error) {
	if id == "" {
		return models.SessionAnonymous, "", nil
	}
	role, err := m.store.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNoSession):
		return models.SessionAnonymous, "", nil
	case err != nil:
		m.logger.Warn("session store unavailable", zap.Error(err))
		return models.SessionUnknown, "", err
	case !role.Valid():
		m.logger.Warn("session holds unexpected role", zap.String("role", string(role)))
		return models.SessionAnonymous, "", nil
	default:
		return models.SessionLoggedIn, role, nil
	}
}

// Close logs the session out. Closing an absent session is not an error.
func (m *Manager) Close(ctx context.Context, id string) (models.SessionState, error) {
	state, _ := Transition(models.SessionLoggedIn, EventLogout)
	if id == "" {
		return state, nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return models.SessionUnknown, err
	}
	return state, nil
}
