package models

import "time"

type Assignment struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subjectId"`
	ClassID     string    `db:"class_id" json:"classId"`
	Title       string    `db:"title" json:"title"`
	DueDate     time.Time `db:"due_date" json:"dueDate"`
	Description string    `db:"description" json:"description"`
	CreatedBy   string    `db:"created_by" json:"createdBy"`
}

// AssignmentSubmission is one student's response to one assignment.
// (AssignmentID, StudentID) is its identity for upserts.
type AssignmentSubmission struct {
	ID            string     `db:"id" json:"id"`
	AssignmentID  string     `db:"assignment_id" json:"assignmentId"`
	StudentID     string     `db:"student_id" json:"studentId"`
	IsSubmitted   bool       `db:"is_submitted" json:"isSubmitted"`
	SubmittedDate *time.Time `db:"submitted_date" json:"submittedDate,omitempty"`
	Grade         *string    `db:"grade" json:"grade,omitempty"`
	Feedback      *string    `db:"feedback" json:"feedback,omitempty"`
	FileRef       *string    `db:"file_ref" json:"fileRef,omitempty"`
}

// SubmissionPatch carries the fields to write for one (assignment, student) pair.
// Nil fields are left untouched on an existing submission.
type SubmissionPatch struct {
	AssignmentID  string
	StudentID     string
	IsSubmitted   *bool
	SubmittedDate *time.Time
	Grade         *string
	Feedback      *string
	FileRef       *string
}

// Apply writes the non-nil fields of p onto s.
func (p SubmissionPatch) Apply(s *AssignmentSubmission) {
	if p.IsSubmitted != nil {
		s.IsSubmitted = *p.IsSubmitted
	}
	if p.SubmittedDate != nil {
		d := *p.SubmittedDate
		s.SubmittedDate = &d
	}
	if p.Grade != nil {
		g := *p.Grade
		s.Grade = &g
	}
	if p.Feedback != nil {
		f := *p.Feedback
		s.Feedback = &f
	}
	if p.FileRef != nil {
		r := *p.FileRef
		s.FileRef = &r
	}
}

// AssignmentView is an assignment as seen by one child.
type AssignmentView struct {
	Assignment
	SubjectName   string     `json:"subjectName,omitempty"`
	Submitted     bool       `json:"submitted"`
	Grade         *string    `json:"grade,omitempty"`
	SubmittedDate *time.Time `json:"submittedDate,omitempty"`
	FileRef       *string    `json:"fileRef,omitempty"`
}

// SubmissionRow pairs a student with their submission, if any, for a teacher's grading list.
type SubmissionRow struct {
	StudentID   string                `json:"studentId"`
	StudentName string                `json:"studentName"`
	Submission  *AssignmentSubmission `json:"submission,omitempty"`
}

// SaveAssignmentRequest creates or replaces an assignment in a class.
type SaveAssignmentRequest struct {
	SubjectID   string `json:"subjectId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	DueDate     string `json:"dueDate" validate:"required,isodate"`
	Description string `json:"description" validate:"max=2000"`
}

// GradeSubmissionRequest grades one student's work. Omitted fields are kept.
type GradeSubmissionRequest struct {
	Grade       *string `json:"grade" validate:"omitempty,max=10"`
	Feedback    *string `json:"feedback" validate:"omitempty,max=1000"`
	IsSubmitted *bool   `json:"isSubmitted"`
	FileRef     *string `json:"fileRef" validate:"omitempty,max=500"`
}
