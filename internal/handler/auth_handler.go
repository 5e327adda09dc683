package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/middleware"
	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password and open a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, err := h.service.Login(c.Request.Context(), middleware.SessionState(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// LoginAs godoc
// @Summary Demo login by role
// @Description Sign in as the demo account of a role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginAsRequest true "Role"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /auth/login-as [post]
func (h *AuthHandler) LoginAs(c *gin.Context) {
	var req models.LoginAsRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, err := h.service.LoginAs(c.Request.Context(), middleware.SessionState(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	session, err := h.service.Logout(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, session)
}

// Session godoc
// @Summary Current session
// @Description Reports whether the caller is anonymous or logged in, and as whom
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	state := middleware.SessionState(c)
	if state == models.SessionUnknown {
		response.JSON(c, http.StatusServiceUnavailable, models.Session{State: state}, nil)
		return
	}

	session, err := h.service.Session(c.Request.Context(), state, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, session)
}
