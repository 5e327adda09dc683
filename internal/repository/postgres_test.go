package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduattend-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "postgres")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "op"))
	assert.ErrorIs(t, translate(sql.ErrNoRows, "op"), ErrNotFound)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23503", Constraint: "children_class_id_fkey"}, "op"), ErrInvalidReference)

	err := translate(sql.ErrConnDone, "list things")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "list things")
}

func TestUserGetByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "password_hash", "avatar_url"}).
		AddRow("parent1", "Jane Doe", "jane.doe@example.com", "parent", "hash", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, role, password_hash, avatar_url FROM users WHERE LOWER(email) = LOWER($1)")).
		WithArgs("Jane.Doe@example.com").
		WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "Jane.Doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleParent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE id = \\$1").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChildListByParentKeepsOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChildRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "grade_level", "class_id", "parent_id", "avatar_url"}).
		AddRow("child1", "Alex", "5", "classGrade5A", "parent1", nil).
		AddRow("child2", "Mia", "3", "classGrade3B", "parent1", nil)
	mock.ExpectQuery("FROM children c WHERE c.parent_id = \\$1 ORDER BY c.position").WithArgs("parent1").WillReturnRows(rows)

	children, err := repo.ListByParent(context.Background(), "parent1")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "child1", children[0].ID)
	assert.Equal(t, "classGrade5A", *children[0].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChildListByClassUnknownClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChildRepository(db)

	mock.ExpectQuery("SELECT EXISTS").WithArgs("nope").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.ListByClass(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChildListByIDsPreservesRequestOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewChildRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "grade_level", "class_id", "parent_id", "avatar_url"}).
		AddRow("child1", "Alex", "5", "classGrade5A", "parent1", nil).
		AddRow("child3", "Ethan", "5", "classGrade5A", "parent2", nil)
	mock.ExpectQuery("FROM children c WHERE c.id IN \\(\\$1, \\$2\\)").WithArgs("child3", "child1").WillReturnRows(rows)

	children, err := repo.ListByIDs(context.Background(), []string{"child3", "child1"})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "child3", children[0].ID)
	assert.Equal(t, "child1", children[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassGetByIDScansStudentArray(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "teacher_id", "student_ids"}).
		AddRow("classGrade5A", "Grade 5A", "teacher1", "{child1,child3}")
	mock.ExpectQuery("FROM classes c WHERE c.id = \\$1").WithArgs("classGrade5A").WillReturnRows(rows)

	class, err := repo.GetByID(context.Background(), "classGrade5A")
	require.NoError(t, err)
	assert.Equal(t, []string{"child1", "child3"}, class.StudentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpsertRejectsForeignSubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT class_id FROM subjects").WithArgs("subjEnglish3B").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow("classGrade3B"))

	_, err := repo.Upsert(context.Background(), "classGrade5A", models.Assignment{SubjectID: "subjEnglish3B", Title: "Essay"}, "teacher1")
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpsertUnknownSubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT class_id FROM subjects").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Upsert(context.Background(), "classGrade5A", models.Assignment{SubjectID: "ghost"}, "teacher1")
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpsertAssignsIDAndCreator(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT class_id FROM subjects").WithArgs("subjMath5A").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow("classGrade5A"))
	mock.ExpectExec("INSERT INTO assignments .* ON CONFLICT \\(id\\) DO UPDATE").WillReturnResult(sqlmock.NewResult(1, 1))

	a, err := repo.Upsert(context.Background(), "classGrade5A", models.Assignment{SubjectID: "subjMath5A", Title: "Fractions"}, "teacher1")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "teacher1", a.CreatedBy)
	assert.Equal(t, "classGrade5A", a.ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentDeleteCascades(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM assignment_submissions WHERE assignment_id = \\$1").WithArgs("assignClass1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM assignments WHERE id = \\$1").WithArgs("assignClass1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), "assignClass1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM assignment_submissions").WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM assignments").WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	removed, err := repo.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionUpsertUsesNaturalKey(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	grade := "A-"
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "is_submitted", "submitted_date", "grade", "feedback", "file_ref"}).
		AddRow("sub1", "assignClass1", "child1", true, nil, grade, nil, nil)
	mock.ExpectQuery("ON CONFLICT \\(assignment_id, student_id\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "assignClass1", "child1", nil, nil, &grade, nil, nil).
		WillReturnRows(rows)

	sub, err := repo.Upsert(context.Background(), models.SubmissionPatch{AssignmentID: "assignClass1", StudentID: "child1", Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, "sub1", sub.ID)
	assert.Equal(t, "A-", *sub.Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionUpsertMissingStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery("INSERT INTO assignment_submissions").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "assignment_submissions_student_id_fkey"})

	_, err := repo.Upsert(context.Background(), models.SubmissionPatch{AssignmentID: "assignClass1", StudentID: "ghost"})
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpsertNormalisesDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "child_id", "date", "status", "notes", "marked_by"}).
		AddRow("att1", "child1", day, "Late", nil, "teacher1")
	mock.ExpectQuery("ON CONFLICT \\(child_id, date\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "child1", day, models.AttendanceLate, nil, sqlmock.AnyArg()).
		WillReturnRows(rows)

	marker := "teacher1"
	rec, err := repo.Upsert(context.Background(), models.AttendanceUpsert{
		ChildID:  "child1",
		Date:     time.Date(2024, 7, 15, 13, 45, 0, 0, time.UTC),
		Status:   models.AttendanceLate,
		MarkedBy: &marker,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, rec.Status)
	assert.True(t, rec.Date.Equal(day))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListByChildBounds(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "child_id", "date", "status", "notes", "marked_by"})
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.child_id = $1 AND a.date >= $2 AND a.date <= $3 ORDER BY a.date DESC")).
		WithArgs("child1", from, to).
		WillReturnRows(rows)

	records, err := repo.ListByChild(context.Background(), "child1", &from, &to)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeUpsertStampsIssuer(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("INSERT INTO grade_reports").WillReturnResult(sqlmock.NewResult(1, 1))

	entry, err := repo.Upsert(context.Background(), "child1", models.GradeReportEntry{SubjectID: "subjMath5A", Grade: "B+", Term: "Term 1"}, "teacher1")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "child1", entry.StudentID)
	assert.Equal(t, "teacher1", entry.IssuedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeUpsertOtherStudentsEntry(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE grade_reports.student_id = EXCLUDED.student_id")).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Upsert(context.Background(), "child1", models.GradeReportEntry{ID: "gr3", SubjectID: "subjMath5A", Grade: "F", Term: "Term 1"}, "teacher1")
	assert.ErrorIs(t, err, ErrOwnerMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "grade", "teacher_feedback", "term", "issued_by"}).
		AddRow("gr3", "child2", "subjEnglish3B", "A-", "Strong writing.", "Term 1", "teacher2")
	mock.ExpectQuery("FROM grade_reports WHERE id = \\$1").WithArgs("gr3").WillReturnRows(rows)
	mock.ExpectQuery("FROM grade_reports WHERE id = \\$1").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	entry, err := repo.GetByID(context.Background(), "gr3")
	require.NoError(t, err)
	assert.Equal(t, "child2", entry.StudentID)

	_, err = repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationAddAndList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)
	now := time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	n, err := repo.Add(context.Background(), models.NewNotification{Title: "Trip", Content: "Museum", Type: models.NotificationAnnouncement, TargetAudience: "all"})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Read)
	assert.True(t, n.Date.Equal(now))

	rows := sqlmock.NewRows([]string{"id", "title", "date", "content", "type", "read", "target_audience"}).
		AddRow(n.ID, "Trip", now, "Museum", "announcement", false, "all")
	mock.ExpectQuery("FROM notifications ORDER BY seq DESC").WillReturnRows(rows)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("UPDATE notifications SET read = TRUE").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.MarkRead(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationAppendMessage(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)
	now := time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectQuery("AS conv_exists").WithArgs("conv1", "parent1").
		WillReturnRows(sqlmock.NewRows([]string{"conv_exists", "is_participant"}).AddRow(true, true))
	mock.ExpectExec("INSERT INTO messages").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE conversations SET last_message_preview").WithArgs("conv1", "See you soon", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE conversation_participants").WithArgs("conv1", "parent1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	msg, err := repo.AppendMessage(context.Background(), "conv1", "parent1", "See you soon")
	require.NoError(t, err)
	assert.Equal(t, "parent1", msg.SenderID)
	assert.True(t, msg.Timestamp.Equal(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationAppendMessageNonParticipant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("AS conv_exists").WithArgs("conv1", "parent2").
		WillReturnRows(sqlmock.NewRows([]string{"conv_exists", "is_participant"}).AddRow(true, false))
	mock.ExpectRollback()

	_, err := repo.AppendMessage(context.Background(), "conv1", "parent2", "hello")
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationListForParticipant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)
	ts := time.Date(2024, 7, 14, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM conversations c").WithArgs("parent1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_message_preview", "last_message_timestamp"}).AddRow("conv1", "Thanks", ts))
	mock.ExpectQuery("WHERE cp.conversation_id IN \\(\\$1\\)").WithArgs("conv1").
		WillReturnRows(sqlmock.NewRows([]string{"conversation_id", "user_id", "name", "role", "avatar_url", "unread_count"}).
			AddRow("conv1", "parent1", "Jane Doe", "parent", nil, 0).
			AddRow("conv1", "teacher1", "Mr. Davis", "teacher", nil, 2))

	convs, err := repo.ListForParticipant(context.Background(), "parent1")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, []string{"parent1", "teacher1"}, convs[0].ParticipantIDs)
	assert.Equal(t, 2, convs[0].UnreadCounts["teacher1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	status := models.ExportFinished
	path := "job1.csv"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $2, file_path = $3 WHERE id = $1")).
		WithArgs("job1", status, path).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "job1", UpdateExportJobParams{Status: &status, FilePath: &path}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	status := models.ExportFailed
	mock.ExpectExec("UPDATE export_jobs").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "ghost", UpdateExportJobParams{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
