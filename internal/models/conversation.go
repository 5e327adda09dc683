package models

import "time"

// Participant is the display card for one conversation member.
type Participant struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role,omitempty"`
	AvatarURL *string  `json:"avatarUrl,omitempty"`
}

type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	SenderID       string    `db:"sender_id" json:"senderId"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
	Text           string    `db:"text" json:"text"`
}

type Conversation struct {
	ID                   string         `json:"id"`
	ParticipantIDs       []string       `json:"participantIds"`
	ParticipantDetails   []Participant  `json:"participantDetails"`
	LastMessagePreview   string         `json:"lastMessagePreview"`
	LastMessageTimestamp time.Time      `json:"lastMessageTimestamp"`
	UnreadCounts         map[string]int `json:"unreadCounts"`
	Messages             []Message      `json:"messages,omitempty"`
}

// Clone deep-copies slices and the unread map.
func (c Conversation) Clone() Conversation {
	c.ParticipantIDs = append([]string(nil), c.ParticipantIDs...)
	c.ParticipantDetails = append([]Participant(nil), c.ParticipantDetails...)
	c.Messages = append([]Message(nil), c.Messages...)
	counts := make(map[string]int, len(c.UnreadCounts))
	for k, v := range c.UnreadCounts {
		counts[k] = v
	}
	c.UnreadCounts = counts
	return c
}

func (c Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

const previewLength = 80

// MessagePreview shortens text to the conversation list preview length.
func MessagePreview(text string) string {
	preview := []rune(text)
	if len(preview) > previewLength {
		preview = append(preview[:previewLength-3], []rune("...")...)
	}
	return string(preview)
}

// Record appends m and updates the preview, timestamp and unread counters:
// every other participant gains one unread message and the sender has none.
func (c *Conversation) Record(m Message) {
	c.Messages = append(c.Messages, m)
	c.LastMessageTimestamp = m.Timestamp
	c.LastMessagePreview = MessagePreview(m.Text)
	if c.UnreadCounts == nil {
		c.UnreadCounts = make(map[string]int, len(c.ParticipantIDs))
	}
	for _, id := range c.ParticipantIDs {
		if id == m.SenderID {
			c.UnreadCounts[id] = 0
			continue
		}
		c.UnreadCounts[id]++
	}
}

// ConversationSummary is the list form without the message history.
type ConversationSummary struct {
	ID                   string        `json:"id"`
	Participants         []Participant `json:"participants"`
	LastMessagePreview   string        `json:"lastMessagePreview"`
	LastMessageTimestamp time.Time     `json:"lastMessageTimestamp"`
	UnreadCount          int           `json:"unreadCount"`
}

// SummaryFor renders c for userID, excluding them from the participant list.
func (c Conversation) SummaryFor(userID string) ConversationSummary {
	others := make([]Participant, 0, len(c.ParticipantDetails))
	for _, p := range c.ParticipantDetails {
		if p.ID != userID {
			others = append(others, p)
		}
	}
	return ConversationSummary{
		ID:                   c.ID,
		Participants:         others,
		LastMessagePreview:   c.LastMessagePreview,
		LastMessageTimestamp: c.LastMessageTimestamp,
		UnreadCount:          c.UnreadCounts[userID],
	}
}

// SendMessageRequest posts a message to a conversation.
type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
