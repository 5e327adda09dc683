package models

type GradeReportEntry struct {
	ID              string `db:"id" json:"id"`
	StudentID       string `db:"student_id" json:"studentId"`
	SubjectID       string `db:"subject_id" json:"subjectId"`
	Grade           string `db:"grade" json:"grade"`
	TeacherFeedback string `db:"teacher_feedback" json:"teacherFeedback"`
	Term            string `db:"term" json:"term"`
	IssuedBy        string `db:"issued_by" json:"issuedBy"`
}

// GradeReportView adds the subject name for display and prompts.
type GradeReportView struct {
	GradeReportEntry
	SubjectName string `json:"subjectName"`
}

// SaveGradeRequest creates or replaces a report card entry.
type SaveGradeRequest struct {
	SubjectID       string `json:"subjectId" validate:"required"`
	Grade           string `json:"grade" validate:"required,max=10"`
	TeacherFeedback string `json:"teacherFeedback" validate:"max=1000"`
	Term            string `json:"term" validate:"required,max=50"`
}
