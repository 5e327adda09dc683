package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

type conversationRow struct {
	ID                   string    `db:"id"`
	LastMessagePreview   string    `db:"last_message_preview"`
	LastMessageTimestamp time.Time `db:"last_message_timestamp"`
}

type participantRow struct {
	ConversationID string          `db:"conversation_id"`
	UserID         string          `db:"user_id"`
	Name           string          `db:"name"`
	Role           models.UserRole `db:"role"`
	AvatarURL      *string         `db:"avatar_url"`
	UnreadCount    int             `db:"unread_count"`
}

type PGConversationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewConversationRepository(db *sqlx.DB) *PGConversationRepository {
	return &PGConversationRepository{db: db, now: time.Now}
}

const participantSelect = `SELECT cp.conversation_id, cp.user_id, u.name, u.role, u.avatar_url, cp.unread_count
FROM conversation_participants cp JOIN users u ON u.id = cp.user_id`

func (r *PGConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var row conversationRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, last_message_preview, last_message_timestamp FROM conversations WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get conversation")
	}
	var parts []participantRow
	if err := r.db.SelectContext(ctx, &parts, participantSelect+` WHERE cp.conversation_id = $1 ORDER BY cp.position`, id); err != nil {
		return nil, translate(err, "list participants")
	}
	conv := assemble(row, parts)

	conv.Messages = make([]models.Message, 0)
	query := `SELECT id, conversation_id, sender_id, timestamp, text FROM messages WHERE conversation_id = $1 ORDER BY timestamp, seq`
	if err := r.db.SelectContext(ctx, &conv.Messages, query, id); err != nil {
		return nil, translate(err, "list messages")
	}
	return &conv, nil
}

// ListForParticipant omits message history.
func (r *PGConversationRepository) ListForParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	var rows []conversationRow
	query := `SELECT c.id, c.last_message_preview, c.last_message_timestamp FROM conversations c
WHERE EXISTS (SELECT 1 FROM conversation_participants cp WHERE cp.conversation_id = c.id AND cp.user_id = $1)
ORDER BY c.last_message_timestamp DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, translate(err, "list conversations")
	}
	if len(rows) == 0 {
		return []models.Conversation{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	inQuery, args, err := sqlx.In(participantSelect+` WHERE cp.conversation_id IN (?) ORDER BY cp.position`, ids)
	if err != nil {
		return nil, translate(err, "build participants query")
	}
	var parts []participantRow
	if err := r.db.SelectContext(ctx, &parts, r.db.Rebind(inQuery), args...); err != nil {
		return nil, translate(err, "list participants")
	}
	byConv := make(map[string][]participantRow, len(rows))
	for _, p := range parts {
		byConv[p.ConversationID] = append(byConv[p.ConversationID], p)
	}

	out := make([]models.Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, assemble(row, byConv[row.ID]))
	}
	return out, nil
}

// AppendMessage inserts the message and moves the unread counters in one transaction.
func (r *PGConversationRepository) AppendMessage(ctx context.Context, conversationID, senderID, text string) (msg *models.Message, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, translate(err, "begin append message")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.checkParticipant(ctx, tx, conversationID, senderID); err != nil {
		return nil, err
	}

	m := models.Message{ID: uuid.NewString(), ConversationID: conversationID, SenderID: senderID, Timestamp: r.now().UTC(), Text: text}
	if _, err = tx.NamedExecContext(ctx, `INSERT INTO messages (id, conversation_id, sender_id, timestamp, text)
VALUES (:id, :conversation_id, :sender_id, :timestamp, :text)`, m); err != nil {
		return nil, translate(err, "insert message")
	}
	if _, err = tx.ExecContext(ctx, `UPDATE conversations SET last_message_preview = $2, last_message_timestamp = $3 WHERE id = $1`,
		conversationID, models.MessagePreview(text), m.Timestamp); err != nil {
		return nil, translate(err, "update conversation")
	}
	if _, err = tx.ExecContext(ctx, `UPDATE conversation_participants
SET unread_count = CASE WHEN user_id = $2 THEN 0 ELSE unread_count + 1 END
WHERE conversation_id = $1`, conversationID, senderID); err != nil {
		return nil, translate(err, "update unread counts")
	}
	if err = tx.Commit(); err != nil {
		return nil, translate(err, "commit append message")
	}
	return &m, nil
}

func (r *PGConversationRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	if err := r.checkParticipant(ctx, r.db, conversationID, userID); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE conversation_participants SET unread_count = 0 WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID); err != nil {
		return translate(err, "mark conversation read")
	}
	return nil
}

func (r *PGConversationRepository) checkParticipant(ctx context.Context, q sqlx.QueryerContext, conversationID, userID string) error {
	var state struct {
		Exists      bool `db:"conv_exists"`
		Participant bool `db:"is_participant"`
	}
	query := `SELECT EXISTS(SELECT 1 FROM conversations WHERE id = $1) AS conv_exists,
EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2) AS is_participant`
	if err := sqlx.GetContext(ctx, q, &state, query, conversationID, userID); err != nil {
		return translate(err, "check participant")
	}
	if !state.Exists {
		return ErrNotFound
	}
	if !state.Participant {
		return fmt.Errorf("%w: %s is not a participant of %s", ErrInvalidReference, userID, conversationID)
	}
	return nil
}

func assemble(row conversationRow, parts []participantRow) models.Conversation {
	conv := models.Conversation{
		ID:                   row.ID,
		LastMessagePreview:   row.LastMessagePreview,
		LastMessageTimestamp: row.LastMessageTimestamp,
		ParticipantIDs:       make([]string, 0, len(parts)),
		ParticipantDetails:   make([]models.Participant, 0, len(parts)),
		UnreadCounts:         make(map[string]int, len(parts)),
	}
	for _, p := range parts {
		conv.ParticipantIDs = append(conv.ParticipantIDs, p.UserID)
		conv.ParticipantDetails = append(conv.ParticipantDetails, models.Participant{ID: p.UserID, Name: p.Name, Role: p.Role, AvatarURL: p.AvatarURL})
		conv.UnreadCounts[p.UserID] = p.UnreadCount
	}
	return conv
}
