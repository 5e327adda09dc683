package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

const subjectColumns = `id, name, class_id, teacher_id, progress, current_topic, next_deadline`

type PGSubjectRepository struct {
	db *sqlx.DB
}

func NewSubjectRepository(db *sqlx.DB) *PGSubjectRepository {
	return &PGSubjectRepository{db: db}
}

func (r *PGSubjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get subject")
	}
	return &subject, nil
}

func (r *PGSubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, `SELECT `+subjectColumns+` FROM subjects WHERE class_id = $1 ORDER BY name`, classID); err != nil {
		return nil, translate(err, "list subjects")
	}
	return subjects, nil
}
