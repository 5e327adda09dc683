package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/pkg/response"
)

// ConversationHandler exposes parent/teacher messaging.
type ConversationHandler struct {
	messaging *service.MessagingService
}

// NewConversationHandler constructs a ConversationHandler.
func NewConversationHandler(messaging *service.MessagingService) *ConversationHandler {
	return &ConversationHandler{messaging: messaging}
}

// List godoc
// @Summary Conversations of the caller
// @Tags Messaging
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	items, err := h.messaging.List(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Conversation with messages
// @Tags Messaging
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	conv, err := h.messaging.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, conv)
}

// Send godoc
// @Summary Send message
// @Tags Messaging
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param payload body models.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /conversations/{id}/messages [post]
func (h *ConversationHandler) Send(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	msg, err := h.messaging.Send(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// MarkRead godoc
// @Summary Mark conversation read
// @Tags Messaging
// @Param id path string true "Conversation ID"
// @Success 204
// @Router /conversations/{id}/read [post]
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.messaging.MarkRead(c.Request.Context(), a, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
