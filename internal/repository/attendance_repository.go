package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduattend-api/internal/models"
)

const attendanceColumns = `a.id, a.child_id, a.date, a.status, a.notes, a.marked_by`

type PGAttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *PGAttendanceRepository {
	return &PGAttendanceRepository{db: db}
}

// Upsert relies on the (child_id, date) unique constraint.
func (r *PGAttendanceRepository) Upsert(ctx context.Context, in models.AttendanceUpsert) (*models.AttendanceRecord, error) {
	const query = `INSERT INTO attendance_records AS a (id, child_id, date, status, notes, marked_by)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (child_id, date) DO UPDATE SET
status = EXCLUDED.status,
notes = COALESCE(EXCLUDED.notes, a.notes),
marked_by = COALESCE(EXCLUDED.marked_by, a.marked_by)
RETURNING ` + attendanceColumns
	date := models.DayOf(in.Date, in.Date.Location())
	var rec models.AttendanceRecord
	if err := r.db.GetContext(ctx, &rec, query, uuid.NewString(), in.ChildID, date, in.Status, in.Notes, in.MarkedBy); err != nil {
		return nil, translate(err, "upsert attendance")
	}
	return &rec, nil
}

func (r *PGAttendanceRepository) ListByChild(ctx context.Context, childID string, from, to *time.Time) ([]models.AttendanceRecord, error) {
	conditions := []string{"a.child_id = $1"}
	args := []interface{}{childID}
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)))
	}
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records a WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY a.date DESC`
	out := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, translate(err, "list attendance by child")
	}
	return out, nil
}

func (r *PGAttendanceRepository) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1)`, classID); err != nil {
		return nil, translate(err, "check class")
	}
	if !exists {
		return nil, ErrNotFound
	}
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records a
JOIN class_students cs ON cs.child_id = a.child_id
WHERE cs.class_id = $1 AND a.date = $2 ORDER BY cs.position`
	out := make([]models.AttendanceRecord, 0)
	if err := r.db.SelectContext(ctx, &out, query, classID, models.DayOf(date, date.Location())); err != nil {
		return nil, translate(err, "list class attendance")
	}
	return out, nil
}
