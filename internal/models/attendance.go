package models

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// CountsAsAbsence reports whether the status counts toward the monthly absence total.
func (s AttendanceStatus) CountsAsAbsence() bool {
	return s == AttendanceAbsent || s == AttendanceLate
}

// AttendanceRecord is the single authoritative mark for (ChildID, Date).
type AttendanceRecord struct {
	ID       string           `db:"id" json:"id"`
	ChildID  string           `db:"child_id" json:"childId"`
	Date     time.Time        `db:"date" json:"date"`
	Status   AttendanceStatus `db:"status" json:"status"`
	Notes    *string          `db:"notes" json:"notes,omitempty"`
	MarkedBy *string          `db:"marked_by" json:"markedBy,omitempty"`
}

// AttendanceUpsert writes the record for (ChildID, Date). Nil Notes or MarkedBy keep
// the stored values of an existing record.
type AttendanceUpsert struct {
	ChildID  string
	Date     time.Time
	Status   AttendanceStatus
	Notes    *string
	MarkedBy *string
}

// DayOf truncates t to a calendar day in loc and returns it as midnight UTC.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of day's month.
func MonthStart(day time.Time) time.Time {
	y, m, _ := day.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// AttendanceDerived holds the per-child values computed from attendance records.
type AttendanceDerived struct {
	CurrentStatus         *AttendanceStatus
	AbsenceCountThisMonth int
}

// DeriveAttendance computes today's status and the number of Absent or Late records
// dated on or after the first day of today's month. today must be a DayOf value.
func DeriveAttendance(records []AttendanceRecord, today time.Time) AttendanceDerived {
	var out AttendanceDerived
	start := MonthStart(today)
	for _, r := range records {
		if r.Date.Equal(today) {
			s := r.Status
			out.CurrentStatus = &s
		}
		if !r.Date.Before(start) && r.Status.CountsAsAbsence() {
			out.AbsenceCountThisMonth++
		}
	}
	return out
}

// AttendanceSummary aggregates one child's records over a month.
type AttendanceSummary struct {
	ChildID        string  `json:"childId"`
	Month          string  `json:"month"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	Total          int     `json:"total"`
	PresentPercent float64 `json:"presentPercent"`
}

// Summarize counts records per status. Late counts as attended for the percentage.
func Summarize(childID, month string, records []AttendanceRecord) AttendanceSummary {
	s := AttendanceSummary{ChildID: childID, Month: month}
	for _, r := range records {
		switch r.Status {
		case AttendancePresent:
			s.Present++
		case AttendanceAbsent:
			s.Absent++
		case AttendanceLate:
			s.Late++
		case AttendanceExcused:
			s.Excused++
		}
		s.Total++
	}
	if s.Total > 0 {
		s.PresentPercent = float64(s.Present+s.Late) * 100 / float64(s.Total)
	}
	return s
}

// ClassAttendanceEntry is one row of a class sheet. Recorded is false when the
// status is the Present default rather than a stored mark.
type ClassAttendanceEntry struct {
	ChildID   string           `json:"childId"`
	ChildName string           `json:"childName"`
	Status    AttendanceStatus `json:"status"`
	Notes     *string          `json:"notes,omitempty"`
	Recorded  bool             `json:"recorded"`
}

// MarkAttendanceRequest records one child's status for one day.
type MarkAttendanceRequest struct {
	ChildID string           `json:"childId" validate:"required"`
	Date    string           `json:"date" validate:"required,isodate"`
	Status  AttendanceStatus `json:"status" validate:"required,oneof=Present Absent Late Excused"`
	Notes   *string          `json:"notes" validate:"omitempty,max=500"`
}

// ClassAttendanceMark is one row of a bulk class attendance submission.
type ClassAttendanceMark struct {
	ChildID string           `json:"childId" validate:"required"`
	Status  AttendanceStatus `json:"status" validate:"required,oneof=Present Absent Late Excused"`
	Notes   *string          `json:"notes" validate:"omitempty,max=500"`
}

// ClassAttendanceRequest saves a whole class sheet for one date.
type ClassAttendanceRequest struct {
	Date    string                `json:"date" validate:"required,isodate"`
	Entries []ClassAttendanceMark `json:"entries" validate:"required,min=1,dive"`
}

// ClassAttendanceSheet is the teacher's marking view of a class for one date.
type ClassAttendanceSheet struct {
	ClassID string                 `json:"classId"`
	Date    string                 `json:"date"`
	Entries []ClassAttendanceEntry `json:"entries"`
}
