package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

type conversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, senderID, text string) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
}

// MessagingService exposes parent/teacher conversations to their participants.
type MessagingService struct {
	conversations conversationRepository
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
}

func NewMessagingService(conversations conversationRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MessagingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &MessagingService{conversations: conversations, cache: cache, validator: validate, logger: logger}
}

// List returns the actor's conversations, most recent first.
func (s *MessagingService) List(ctx context.Context, actor Actor) ([]models.ConversationSummary, error) {
	convs, err := s.conversations.ListForParticipant(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "conversations not found", "list conversations")
	}
	out := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, c.SummaryFor(actor.UserID))
	}
	return out, nil
}

// UnreadCount totals the actor's unread messages.
func (s *MessagingService) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	convs, err := s.conversations.ListForParticipant(ctx, actor.UserID)
	if err != nil {
		return 0, storeError(err, "conversations not found", "list conversations")
	}
	total := 0
	for _, c := range convs {
		total += c.UnreadCounts[actor.UserID]
	}
	return total, nil
}

// Get returns a conversation with its history.
func (s *MessagingService) Get(ctx context.Context, actor Actor, id string) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "conversation not found", "load conversation")
	}
	if !conv.HasParticipant(actor.UserID) {
		return nil, errAuthorizationMismatch
	}
	return conv, nil
}

// Send appends a message from actor.
func (s *MessagingService) Send(ctx context.Context, actor Actor, id string, req models.SendMessageRequest) (*models.Message, error) {
	if err := validation.Struct(s.validator, req, "invalid message payload"); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	msg, err := s.conversations.AppendMessage(ctx, id, actor.UserID, req.Text)
	if err != nil {
		return nil, storeError(err, "conversation not found", "send message")
	}
	_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	return msg, nil
}

// MarkRead zeroes the actor's unread counter.
func (s *MessagingService) MarkRead(ctx context.Context, actor Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.conversations.MarkRead(ctx, id, actor.UserID); err != nil {
		return storeError(err, "conversation not found", "mark conversation read")
	}
	_ = s.cache.Invalidate(ctx, dashboardCachePattern)
	return nil
}
