package models

// Child is a student. Attendance-derived fields live on ChildView.
type Child struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	GradeLevel string  `db:"grade_level" json:"gradeLevel"`
	ClassID    *string `db:"class_id" json:"classId,omitempty"`
	ParentID   string  `db:"parent_id" json:"parentId"`
	AvatarURL  *string `db:"avatar_url" json:"avatarUrl,omitempty"`
}

// HasClass reports whether the child is assigned to a class.
func (c Child) HasClass() bool {
	return c.ClassID != nil && *c.ClassID != ""
}

// ChildView is a child with fields derived from its attendance on read.
type ChildView struct {
	Child
	CurrentAttendanceStatus *AttendanceStatus `json:"currentAttendanceStatus,omitempty"`
	AbsenceCountThisMonth   int               `json:"absenceCountThisMonth"`
}

// NewChildView attaches the derived attendance fields.
func NewChildView(c Child, d AttendanceDerived) ChildView {
	return ChildView{Child: c, CurrentAttendanceStatus: d.CurrentStatus, AbsenceCountThisMonth: d.AbsenceCountThisMonth}
}
