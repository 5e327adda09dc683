package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

const childColumns = `c.id, c.name, c.grade_level, c.class_id, c.parent_id, c.avatar_url`

type PGChildRepository struct {
	db *sqlx.DB
}

func NewChildRepository(db *sqlx.DB) *PGChildRepository {
	return &PGChildRepository{db: db}
}

func (r *PGChildRepository) GetByID(ctx context.Context, id string) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children c WHERE c.id = $1`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		return nil, translate(err, "get child")
	}
	return &child, nil
}

// ListByParent keeps insertion order via the serial position column.
func (r *PGChildRepository) ListByParent(ctx context.Context, parentID string) ([]models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children c WHERE c.parent_id = $1 ORDER BY c.position`
	children := make([]models.Child, 0)
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, translate(err, "list children by parent")
	}
	return children, nil
}

func (r *PGChildRepository) ListByClass(ctx context.Context, classID string) ([]models.Child, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1)`, classID); err != nil {
		return nil, translate(err, "check class")
	}
	if !exists {
		return nil, ErrNotFound
	}
	query := `SELECT ` + childColumns + ` FROM class_students cs JOIN children c ON c.id = cs.child_id
WHERE cs.class_id = $1 ORDER BY cs.position`
	children := make([]models.Child, 0)
	if err := r.db.SelectContext(ctx, &children, query, classID); err != nil {
		return nil, translate(err, "list children by class")
	}
	return children, nil
}

func (r *PGChildRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Child, error) {
	if len(ids) == 0 {
		return []models.Child{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+childColumns+` FROM children c WHERE c.id IN (?)`, ids)
	if err != nil {
		return nil, translate(err, "build children query")
	}
	rows := make([]models.Child, 0, len(ids))
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, translate(err, "list children by ids")
	}
	byID := make(map[string]models.Child, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	out := make([]models.Child, 0, len(rows))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
