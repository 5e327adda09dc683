package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// NewPostgresStore wires every repository to db.
func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Users:         NewUserRepository(db),
		Children:      NewChildRepository(db),
		Classes:       NewClassRepository(db),
		Subjects:      NewSubjectRepository(db),
		Assignments:   NewAssignmentRepository(db),
		Submissions:   NewSubmissionRepository(db),
		Attendance:    NewAttendanceRepository(db),
		Grades:        NewGradeRepository(db),
		Notifications: NewNotificationRepository(db),
		Conversations: NewConversationRepository(db),
		ExportJobs:    NewExportJobRepository(db),
	}
}

const pqForeignKeyViolation = "23503"

// translate maps driver errors onto the store sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}
