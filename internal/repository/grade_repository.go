package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

const gradeColumns = `id, student_id, subject_id, grade, teacher_feedback, term, issued_by`

type PGGradeRepository struct {
	db *sqlx.DB
}

func NewGradeRepository(db *sqlx.DB) *PGGradeRepository {
	return &PGGradeRepository{db: db}
}

func (r *PGGradeRepository) GetByID(ctx context.Context, id string) (*models.GradeReportEntry, error) {
	var entry models.GradeReportEntry
	if err := r.db.GetContext(ctx, &entry, `SELECT `+gradeColumns+` FROM grade_reports WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get grade")
	}
	return &entry, nil
}

func (r *PGGradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradeReportEntry, error) {
	out := make([]models.GradeReportEntry, 0)
	if err := r.db.SelectContext(ctx, &out, `SELECT `+gradeColumns+` FROM grade_reports WHERE student_id = $1 ORDER BY term, position`, studentID); err != nil {
		return nil, translate(err, "list grades")
	}
	return out, nil
}

// Upsert never moves an existing entry to another student; that case
// affects no rows and reports ErrOwnerMismatch.
func (r *PGGradeRepository) Upsert(ctx context.Context, studentID string, entry models.GradeReportEntry, teacherID string) (*models.GradeReportEntry, error) {
	entry.StudentID = studentID
	entry.IssuedBy = teacherID
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `INSERT INTO grade_reports (id, student_id, subject_id, grade, teacher_feedback, term, issued_by)
VALUES (:id, :student_id, :subject_id, :grade, :teacher_feedback, :term, :issued_by)
ON CONFLICT (id) DO UPDATE SET subject_id = EXCLUDED.subject_id, grade = EXCLUDED.grade,
teacher_feedback = EXCLUDED.teacher_feedback, term = EXCLUDED.term, issued_by = EXCLUDED.issued_by
WHERE grade_reports.student_id = EXCLUDED.student_id`
	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return nil, translate(err, "upsert grade")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, translate(err, "upsert grade")
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: grade %s", ErrOwnerMismatch, entry.ID)
	}
	return &entry, nil
}
