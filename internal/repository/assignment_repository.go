package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

const assignmentColumns = `id, subject_id, class_id, title, due_date, description, created_by`

type PGAssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *PGAssignmentRepository {
	return &PGAssignmentRepository{db: db}
}

func (r *PGAssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get assignment")
	}
	return &a, nil
}

func (r *PGAssignmentRepository) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	out := make([]models.Assignment, 0)
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE class_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &out, query, classID); err != nil {
		return nil, translate(err, "list assignments")
	}
	return out, nil
}

func (r *PGAssignmentRepository) Upsert(ctx context.Context, classID string, a models.Assignment, teacherID string) (*models.Assignment, error) {
	var subjectClass string
	if err := r.db.GetContext(ctx, &subjectClass, `SELECT class_id FROM subjects WHERE id = $1`, a.SubjectID); err != nil {
		if err = translate(err, "check subject"); err == ErrNotFound {
			return nil, fmt.Errorf("%w: subject %s", ErrInvalidReference, a.SubjectID)
		}
		return nil, err
	}
	if subjectClass != classID {
		return nil, fmt.Errorf("%w: subject %s is not taught in class %s", ErrInvalidReference, a.SubjectID, classID)
	}

	a.ClassID = classID
	a.CreatedBy = teacherID
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const query = `INSERT INTO assignments (id, subject_id, class_id, title, due_date, description, created_by)
VALUES (:id, :subject_id, :class_id, :title, :due_date, :description, :created_by)
ON CONFLICT (id) DO UPDATE SET subject_id = EXCLUDED.subject_id, class_id = EXCLUDED.class_id, title = EXCLUDED.title,
due_date = EXCLUDED.due_date, description = EXCLUDED.description, created_by = EXCLUDED.created_by`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return nil, translate(err, "upsert assignment")
	}
	return &a, nil
}

// Delete removes the submissions and the assignment in one transaction.
func (r *PGAssignmentRepository) Delete(ctx context.Context, id string) (removed bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, translate(err, "begin delete assignment")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM assignment_submissions WHERE assignment_id = $1`, id); err != nil {
		return false, translate(err, "delete submissions")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return false, translate(err, "delete assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err, "delete assignment")
	}
	if err = tx.Commit(); err != nil {
		return false, translate(err, "commit delete assignment")
	}
	return n > 0, nil
}
