// Package memory is the in-process store backend. All collections share one
// RWMutex and every read returns copies.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
	"github.com/noah-isme/eduattend-api/internal/seed"
)

type DB struct {
	mu sync.RWMutex

	users         []models.User
	children      []models.Child
	classes       []models.SchoolClass
	subjects      []models.Subject
	assignments   []models.Assignment
	submissions   []models.AssignmentSubmission
	attendance    []models.AttendanceRecord
	grades        []models.GradeReportEntry
	notifications []models.SchoolNotification // newest first
	conversations []models.Conversation
	exportJobs    map[string]models.ExportJob

	now   func() time.Time
	newID func() string
}

type Option func(*DB)

// WithClock overrides the time source used for notification and message stamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(fn func() string) Option {
	return func(db *DB) { db.newID = fn }
}

func New(opts ...Option) *DB {
	db := &DB{
		exportJobs: make(map[string]models.ExportJob),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Load replaces the contents of db with ds.
func (db *DB) Load(ds seed.Dataset) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users = append([]models.User(nil), ds.Users...)
	db.children = make([]models.Child, 0, len(ds.Children))
	for _, c := range ds.Children {
		db.children = append(db.children, cloneChild(c))
	}
	db.classes = make([]models.SchoolClass, 0, len(ds.Classes))
	for _, c := range ds.Classes {
		db.classes = append(db.classes, c.Clone())
	}
	db.subjects = append([]models.Subject(nil), ds.Subjects...)
	db.assignments = append([]models.Assignment(nil), ds.Assignments...)
	db.submissions = append([]models.AssignmentSubmission(nil), ds.Submissions...)
	db.attendance = append([]models.AttendanceRecord(nil), ds.Attendance...)
	db.grades = append([]models.GradeReportEntry(nil), ds.Grades...)
	db.notifications = append([]models.SchoolNotification(nil), ds.Notifications...)
	db.conversations = make([]models.Conversation, 0, len(ds.Conversations))
	for _, c := range ds.Conversations {
		db.conversations = append(db.conversations, c.Clone())
	}
}

// Store exposes db through the repository interfaces.
func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Users:         &userRepo{db},
		Children:      &childRepo{db},
		Classes:       &classRepo{db},
		Subjects:      &subjectRepo{db},
		Assignments:   &assignmentRepo{db},
		Submissions:   &submissionRepo{db},
		Attendance:    &attendanceRepo{db},
		Grades:        &gradeRepo{db},
		Notifications: &notificationRepo{db},
		Conversations: &conversationRepo{db},
		ExportJobs:    &exportJobRepo{db},
	}
}

// lookups below expect the caller to hold db.mu.

func (db *DB) childIndex(id string) int {
	for i := range db.children {
		if db.children[i].ID == id {
			return i
		}
	}
	return -1
}

func (db *DB) classIndex(id string) int {
	for i := range db.classes {
		if db.classes[i].ID == id {
			return i
		}
	}
	return -1
}

func (db *DB) subjectIndex(id string) int {
	for i := range db.subjects {
		if db.subjects[i].ID == id {
			return i
		}
	}
	return -1
}

func (db *DB) assignmentIndex(id string) int {
	for i := range db.assignments {
		if db.assignments[i].ID == id {
			return i
		}
	}
	return -1
}

func (db *DB) conversationIndex(id string) int {
	for i := range db.conversations {
		if db.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneChild(c models.Child) models.Child {
	c.ClassID = cloneString(c.ClassID)
	c.AvatarURL = cloneString(c.AvatarURL)
	return c
}

func cloneUser(u models.User) models.User {
	u.AvatarURL = cloneString(u.AvatarURL)
	return u
}

func cloneSubject(s models.Subject) models.Subject {
	s.NextDeadline = cloneTime(s.NextDeadline)
	return s
}

func cloneSubmission(s models.AssignmentSubmission) models.AssignmentSubmission {
	s.SubmittedDate = cloneTime(s.SubmittedDate)
	s.Grade = cloneString(s.Grade)
	s.Feedback = cloneString(s.Feedback)
	s.FileRef = cloneString(s.FileRef)
	return s
}

func cloneAttendance(r models.AttendanceRecord) models.AttendanceRecord {
	r.Notes = cloneString(r.Notes)
	r.MarkedBy = cloneString(r.MarkedBy)
	return r
}

func cloneExportJob(j models.ExportJob) models.ExportJob {
	j.FilePath = cloneString(j.FilePath)
	j.DownloadURL = cloneString(j.DownloadURL)
	j.ErrorMessage = cloneString(j.ErrorMessage)
	j.FinishedAt = cloneTime(j.FinishedAt)
	return j
}
