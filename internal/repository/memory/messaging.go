package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
)

type notificationRepo struct{ db *DB }

func (r *notificationRepo) Add(_ context.Context, n models.NewNotification) (*models.SchoolNotification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rec := models.SchoolNotification{
		ID:             r.db.newID(),
		Title:          n.Title,
		Content:        n.Content,
		Type:           n.Type,
		TargetAudience: n.TargetAudience,
		Date:           r.db.now().UTC(),
		Read:           false,
	}
	r.db.notifications = append([]models.SchoolNotification{rec}, r.db.notifications...)
	return &rec, nil
}

// List returns notifications in storage order, newest insert first.
func (r *notificationRepo) List(_ context.Context) ([]models.SchoolNotification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return append([]models.SchoolNotification(nil), r.db.notifications...), nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id string) (*models.SchoolNotification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.notifications {
		if r.db.notifications[i].ID == id {
			r.db.notifications[i].Read = true
			out := r.db.notifications[i]
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

type conversationRepo struct{ db *DB }

func (r *conversationRepo) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if i := r.db.conversationIndex(id); i >= 0 {
		out := r.db.conversations[i].Clone()
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

// ListForParticipant orders by last message time, most recent first.
func (r *conversationRepo) ListForParticipant(_ context.Context, userID string) ([]models.Conversation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Conversation, 0)
	for _, c := range r.db.conversations {
		if c.HasParticipant(userID) {
			out = append(out, c.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTimestamp.After(out[j].LastMessageTimestamp)
	})
	return out, nil
}

func (r *conversationRepo) AppendMessage(_ context.Context, conversationID, senderID, text string) (*models.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.conversationIndex(conversationID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	conv := &r.db.conversations[i]
	if !conv.HasParticipant(senderID) {
		return nil, fmt.Errorf("%w: %s is not a participant of %s", repository.ErrInvalidReference, senderID, conversationID)
	}
	msg := models.Message{
		ID:             r.db.newID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Timestamp:      r.db.now().UTC(),
		Text:           text,
	}
	conv.Record(msg)
	return &msg, nil
}

func (r *conversationRepo) MarkRead(_ context.Context, conversationID, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.conversationIndex(conversationID)
	if i < 0 {
		return repository.ErrNotFound
	}
	conv := &r.db.conversations[i]
	if !conv.HasParticipant(userID) {
		return fmt.Errorf("%w: %s is not a participant of %s", repository.ErrInvalidReference, userID, conversationID)
	}
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = make(map[string]int)
	}
	conv.UnreadCounts[userID] = 0
	return nil
}
