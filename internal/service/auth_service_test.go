package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/seed"
	"github.com/noah-isme/eduattend-api/internal/session"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
)

type failingStore struct{}

func (failingStore) Put(context.Context, string, models.UserRole, time.Duration) error {
	return errors.New("store down")
}

func (failingStore) Get(context.Context, string) (models.UserRole, error) {
	return "", errors.New("store down")
}

func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }

func newAuth(f *fixture, store session.Store, demo bool) *AuthService {
	return NewAuthService(f.store.Users, session.NewManager(store, time.Hour, nil), nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "eduattend-test",
		DemoLogin:         demo,
	})
}

func TestAuthLoginIssuesSessionToken(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f, session.NewMemoryStore(), false)

	resp, err := svc.Login(ctx(), models.SessionAnonymous, models.LoginRequest{Email: "davis@school.example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, seed.TeacherID, resp.User.ID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.SessionID())
	assert.Equal(t, models.RoleTeacher, claims.Role)

	state, resolved, err := svc.Resolve(ctx(), claims)
	require.NoError(t, err)
	assert.Equal(t, models.SessionLoggedIn, state)
	assert.Equal(t, seed.TeacherID, resolved.UserID)

	info, err := svc.Session(ctx(), state, resolved)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, info.Role)
	require.NotNil(t, info.User)
	assert.Equal(t, "Ms. Davis", info.User.Name)
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f, session.NewMemoryStore(), false)

	_, err := svc.Login(ctx(), models.SessionAnonymous, models.LoginRequest{Email: "davis@school.example.com", Password: "wrong"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx(), models.SessionAnonymous, models.LoginRequest{Email: "nobody@example.com", Password: "x"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx(), models.SessionAnonymous, models.LoginRequest{Email: "not-an-email"})
	appErr := requireAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "password")
}

func TestAuthLoginAsAndLogout(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f, session.NewMemoryStore(), true)

	resp, err := svc.LoginAs(ctx(), models.SessionUnknown, models.LoginAsRequest{Role: models.RoleParent})
	require.NoError(t, err)
	assert.Equal(t, seed.ParentID, resp.User.ID)

	_, err = svc.LoginAs(ctx(), models.SessionLoggedIn, models.LoginAsRequest{Role: models.RoleTeacher})
	requireAppError(t, err, appErrors.ErrConflict)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	out, err := svc.Logout(ctx(), claims)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAnonymous, out.State)

	state, resolved, err := svc.Resolve(ctx(), claims)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAnonymous, state)
	assert.Nil(t, resolved)
}

func TestAuthLoginAsDisabled(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f, session.NewMemoryStore(), false)
	_, err := svc.LoginAs(ctx(), models.SessionAnonymous, models.LoginAsRequest{Role: models.RoleParent})
	requireAppError(t, err, appErrors.ErrFeatureDisabled)
}

func TestAuthStoreOutageIsUnknown(t *testing.T) {
	f := newFixture(t)
	healthy := newAuth(f, session.NewMemoryStore(), true)
	resp, err := healthy.LoginAs(ctx(), models.SessionAnonymous, models.LoginAsRequest{Role: models.RoleTeacher})
	require.NoError(t, err)
	claims, err := healthy.ValidateToken(resp.AccessToken)
	require.NoError(t, err)

	broken := newAuth(f, failingStore{}, true)
	state, _, err := broken.Resolve(ctx(), claims)
	assert.Equal(t, models.SessionUnknown, state)
	requireAppError(t, err, appErrors.ErrSessionUnavailable)

	_, err = broken.LoginAs(ctx(), models.SessionAnonymous, models.LoginAsRequest{Role: models.RoleTeacher})
	requireAppError(t, err, appErrors.ErrSessionUnavailable)
}

func TestAuthValidateTokenRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	issuer := newAuth(f, session.NewMemoryStore(), true)
	resp, err := issuer.LoginAs(ctx(), models.SessionAnonymous, models.LoginAsRequest{Role: models.RoleParent})
	require.NoError(t, err)

	other := NewAuthService(f.store.Users, session.NewManager(session.NewMemoryStore(), time.Hour, nil), nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(resp.AccessToken)
	requireAppError(t, err, appErrors.ErrUnauthorized)
}
