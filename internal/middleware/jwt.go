package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/models"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims of a logged-in caller.
	ContextUserKey = "currentUser"
	// ContextSessionStateKey stores the resolved models.SessionState.
	ContextSessionStateKey = "sessionState"
)

// SessionResolver verifies tokens and resolves them against the session store.
type SessionResolver interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	Resolve(ctx context.Context, claims *models.JWTClaims) (models.SessionState, *models.JWTClaims, error)
}

// FailureRecorder counts session store failures.
type FailureRecorder interface {
	RecordSessionFailure()
}

// JWT protects routes by requiring a valid access token backed by a live
// session. A session store outage is answered with 503, a logged-out session with 401.
func JWT(auth SessionResolver, failures FailureRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Set(ContextSessionStateKey, models.SessionAnonymous)
			response.Error(c, err)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.Set(ContextSessionStateKey, models.SessionAnonymous)
			response.Error(c, err)
			return
		}

		state, resolved, err := auth.Resolve(c.Request.Context(), claims)
		c.Set(ContextSessionStateKey, state)
		switch {
		case err != nil:
			if failures != nil {
				failures.RecordSessionFailure()
			}
			response.Error(c, err)
			return
		case state != models.SessionLoggedIn:
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or logged out"))
			return
		}

		c.Set(ContextUserKey, resolved)
		c.Next()
	}
}

// OptionalJWT records the caller's session state without blocking. Claims
// are attached only for a logged-in session.
func OptionalJWT(auth SessionResolver, failures FailureRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Set(ContextSessionStateKey, models.SessionAnonymous)
			c.Next()
			return
		}
		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.Set(ContextSessionStateKey, models.SessionAnonymous)
			c.Next()
			return
		}

		state, resolved, err := auth.Resolve(c.Request.Context(), claims)
		if err != nil && failures != nil {
			failures.RecordSessionFailure()
		}
		c.Set(ContextSessionStateKey, state)
		if state == models.SessionLoggedIn {
			c.Set(ContextUserKey, resolved)
		}
		c.Next()
	}
}

// SessionState returns the state recorded by JWT or OptionalJWT.
func SessionState(c *gin.Context) models.SessionState {
	if v, ok := c.Get(ContextSessionStateKey); ok {
		if state, ok := v.(models.SessionState); ok {
			return state
		}
	}
	return models.SessionAnonymous
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
