package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

const submissionColumns = `id, assignment_id, student_id, is_submitted, submitted_date, grade, feedback, file_ref`

type PGSubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *PGSubmissionRepository {
	return &PGSubmissionRepository{db: db}
}

func (r *PGSubmissionRepository) Get(ctx context.Context, assignmentID, studentID string) (*models.AssignmentSubmission, error) {
	var s models.AssignmentSubmission
	query := `SELECT ` + submissionColumns + ` FROM assignment_submissions WHERE assignment_id = $1 AND student_id = $2`
	if err := r.db.GetContext(ctx, &s, query, assignmentID, studentID); err != nil {
		return nil, translate(err, "get submission")
	}
	return &s, nil
}

func (r *PGSubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error) {
	out := make([]models.AssignmentSubmission, 0)
	query := `SELECT ` + submissionColumns + ` FROM assignment_submissions WHERE assignment_id = $1 ORDER BY student_id`
	if err := r.db.SelectContext(ctx, &out, query, assignmentID); err != nil {
		return nil, translate(err, "list submissions by assignment")
	}
	return out, nil
}

func (r *PGSubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AssignmentSubmission, error) {
	out := make([]models.AssignmentSubmission, 0)
	query := `SELECT ` + submissionColumns + ` FROM assignment_submissions WHERE student_id = $1 ORDER BY assignment_id`
	if err := r.db.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, translate(err, "list submissions by student")
	}
	return out, nil
}

// Upsert relies on the (assignment_id, student_id) unique constraint. Null
// parameters keep the stored column.
func (r *PGSubmissionRepository) Upsert(ctx context.Context, p models.SubmissionPatch) (*models.AssignmentSubmission, error) {
	const query = `INSERT INTO assignment_submissions (id, assignment_id, student_id, is_submitted, submitted_date, grade, feedback, file_ref)
VALUES ($1, $2, $3, COALESCE($4, FALSE), $5, $6, $7, $8)
ON CONFLICT (assignment_id, student_id) DO UPDATE SET
is_submitted = COALESCE($4, assignment_submissions.is_submitted),
submitted_date = COALESCE($5, assignment_submissions.submitted_date),
grade = COALESCE($6, assignment_submissions.grade),
feedback = COALESCE($7, assignment_submissions.feedback),
file_ref = COALESCE($8, assignment_submissions.file_ref)
RETURNING ` + submissionColumns
	var s models.AssignmentSubmission
	err := r.db.GetContext(ctx, &s, query,
		uuid.NewString(), p.AssignmentID, p.StudentID, p.IsSubmitted, p.SubmittedDate, p.Grade, p.Feedback, p.FileRef)
	if err != nil {
		return nil, translate(err, "upsert submission")
	}
	return &s, nil
}
