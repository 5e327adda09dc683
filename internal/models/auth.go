package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionState is the resolved state of a caller's session.
type SessionState string

const (
	SessionUnknown   SessionState = "unknown"
	SessionAnonymous SessionState = "anonymous"
	SessionLoggedIn  SessionState = "logged_in"
)

// Session is what the API reports about the current caller.
type Session struct {
	State     SessionState `json:"state"`
	Role      UserRole     `json:"role,omitempty"`
	User      *UserInfo    `json:"user,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginAsRequest switches to the demo account of a role.
type LoginAsRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=parent teacher"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// JWTClaims is the access token payload. The token ID names the server-side session.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// SessionID returns the session key carried as the token ID.
func (c *JWTClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
