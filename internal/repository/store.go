// Package repository defines the data store contracts and their Postgres implementation.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/eduattend-api/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidReference is returned when a mutation names a missing foreign key.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrOwnerMismatch is returned when an id-addressed write names a record
	// that belongs to a different parent record.
	ErrOwnerMismatch = errors.New("record belongs to another owner")
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type ChildRepository interface {
	GetByID(ctx context.Context, id string) (*models.Child, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Child, error)
	ListByClass(ctx context.Context, classID string) ([]models.Child, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Child, error)
}

type ClassRepository interface {
	GetByID(ctx context.Context, id string) (*models.SchoolClass, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.SchoolClass, error)
	List(ctx context.Context) ([]models.SchoolClass, error)
}

type SubjectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Subject, error)
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

type AssignmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByClass(ctx context.Context, classID string) ([]models.Assignment, error)
	// Upsert inserts when a.ID is empty or unknown, otherwise replaces by id. CreatedBy is set to teacherID.
	Upsert(ctx context.Context, classID string, a models.Assignment, teacherID string) (*models.Assignment, error)
	// Delete removes the assignment and its submissions and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

type SubmissionRepository interface {
	Get(ctx context.Context, assignmentID, studentID string) (*models.AssignmentSubmission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentSubmission, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AssignmentSubmission, error)
	Upsert(ctx context.Context, patch models.SubmissionPatch) (*models.AssignmentSubmission, error)
}

type AttendanceRepository interface {
	Upsert(ctx context.Context, in models.AttendanceUpsert) (*models.AttendanceRecord, error)
	// ListByChild returns records ordered by date descending. Nil bounds are open.
	ListByChild(ctx context.Context, childID string, from, to *time.Time) ([]models.AttendanceRecord, error)
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error)
}

type GradeRepository interface {
	GetByID(ctx context.Context, id string) (*models.GradeReportEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeReportEntry, error)
	Upsert(ctx context.Context, studentID string, entry models.GradeReportEntry, teacherID string) (*models.GradeReportEntry, error)
}

type NotificationRepository interface {
	// Add stores n with a fresh id, the current time and read=false, newest first.
	Add(ctx context.Context, n models.NewNotification) (*models.SchoolNotification, error)
	List(ctx context.Context) ([]models.SchoolNotification, error)
	MarkRead(ctx context.Context, id string) (*models.SchoolNotification, error)
}

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, senderID, text string) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
}

type ExportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params UpdateExportJobParams) error
}

// UpdateExportJobParams defines the mutable fields of an export job.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	FilePath     *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Store bundles every repository of one backend.
type Store struct {
	Users         UserRepository
	Children      ChildRepository
	Classes       ClassRepository
	Subjects      SubjectRepository
	Assignments   AssignmentRepository
	Submissions   SubmissionRepository
	Attendance    AttendanceRepository
	Grades        GradeRepository
	Notifications NotificationRepository
	Conversations ConversationRepository
	ExportJobs    ExportJobRepository
}
