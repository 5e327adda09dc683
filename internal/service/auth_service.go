package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

type authUserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type sessionManager interface {
	Open(ctx context.Context, from models.SessionState, role models.UserRole) (string, error)
	Resolve(ctx context.Context, id string) (models.SessionState, models.UserRole, error)
	Close(ctx context.Context, id string) (models.SessionState, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	DemoLogin         bool
}

// AuthService provides authentication and session use cases.
type AuthService struct {
	repo      authUserRepository
	sessions  sessionManager
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, sessions sessionManager, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{repo: repo, sessions: sessions, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates by email and password and opens a session.
func (s *AuthService) Login(ctx context.Context, state models.SessionState, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := validation.Struct(s.validator, req, "invalid login payload"); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	return s.open(ctx, state, user)
}

// LoginAs signs in as the first account holding the requested role. Only
// available when demo login is enabled.
func (s *AuthService) LoginAs(ctx context.Context, state models.SessionState, req models.LoginAsRequest) (*models.LoginResponse, error) {
	if !s.config.DemoLogin {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "demo login is disabled")
	}
	if err := validation.Struct(s.validator, req, "invalid login payload"); err != nil {
		return nil, err
	}

	users, err := s.repo.ListByRole(ctx, req.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch demo account")
	}
	if len(users) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no %s account available", req.Role))
	}
	return s.open(ctx, state, &users[0])
}

func (s *AuthService) open(ctx context.Context, state models.SessionState, user *models.User) (*models.LoginResponse, error) {
	sessionID, err := s.sessions.Open(ctx, state, user.Role)
	if err != nil {
		if state == models.SessionLoggedIn {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already logged in; log out first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSessionUnavailable.Code, appErrors.ErrSessionUnavailable.Status, "failed to open session")
	}

	issuedAt := s.now().UTC()
	token, err := s.generateAccessToken(user, sessionID, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("session opened", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        user.Info(),
	}, nil
}

// Logout ends the caller's session.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) (*models.Session, error) {
	state, err := s.sessions.Close(ctx, claims.SessionID())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSessionUnavailable.Code, appErrors.ErrSessionUnavailable.Status, "failed to close session")
	}
	return &models.Session{State: state}, nil
}

// Resolve reports the session state behind verified claims. The returned
// claims carry the role held by the session store.
func (s *AuthService) Resolve(ctx context.Context, claims *models.JWTClaims) (models.SessionState, *models.JWTClaims, error) {
	if claims == nil {
		return models.SessionAnonymous, nil, nil
	}
	state, role, err := s.sessions.Resolve(ctx, claims.SessionID())
	if err != nil {
		return models.SessionUnknown, nil, appErrors.Wrap(err, appErrors.ErrSessionUnavailable.Code, appErrors.ErrSessionUnavailable.Status, appErrors.ErrSessionUnavailable.Message)
	}
	if state != models.SessionLoggedIn {
		return state, nil, nil
	}
	resolved := *claims
	resolved.Role = role
	return state, &resolved, nil
}

// Session describes the current caller.
func (s *AuthService) Session(ctx context.Context, state models.SessionState, claims *models.JWTClaims) (*models.Session, error) {
	out := &models.Session{State: state}
	if state != models.SessionLoggedIn || claims == nil {
		return out, nil
	}
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, storeError(err, "user not found", "load user")
	}
	info := user.Info()
	info.Role = claims.Role
	out.Role = claims.Role
	out.User = &info
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		out.ExpiresAt = &exp
	}
	return out, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID() == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User, sessionID string, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
