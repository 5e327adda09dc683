package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

const notificationColumns = `id, title, date, content, type, read, target_audience`

type PGNotificationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewNotificationRepository(db *sqlx.DB) *PGNotificationRepository {
	return &PGNotificationRepository{db: db, now: time.Now}
}

func (r *PGNotificationRepository) Add(ctx context.Context, n models.NewNotification) (*models.SchoolNotification, error) {
	rec := models.SchoolNotification{
		ID:             uuid.NewString(),
		Title:          n.Title,
		Content:        n.Content,
		Type:           n.Type,
		TargetAudience: n.TargetAudience,
		Date:           r.now().UTC(),
	}
	const query = `INSERT INTO notifications (id, title, date, content, type, read, target_audience)
VALUES (:id, :title, :date, :content, :type, :read, :target_audience)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return nil, translate(err, "add notification")
	}
	return &rec, nil
}

// List orders by insertion sequence, newest first.
func (r *PGNotificationRepository) List(ctx context.Context) ([]models.SchoolNotification, error) {
	out := make([]models.SchoolNotification, 0)
	if err := r.db.SelectContext(ctx, &out, `SELECT `+notificationColumns+` FROM notifications ORDER BY seq DESC`); err != nil {
		return nil, translate(err, "list notifications")
	}
	return out, nil
}

func (r *PGNotificationRepository) MarkRead(ctx context.Context, id string) (*models.SchoolNotification, error) {
	var n models.SchoolNotification
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 RETURNING ` + notificationColumns
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, translate(err, "mark notification read")
	}
	return &n, nil
}
