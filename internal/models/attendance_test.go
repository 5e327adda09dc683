package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveAttendance(t *testing.T) {
	today := day(2024, 7, 15)
	records := []AttendanceRecord{
		{ChildID: "child1", Date: day(2024, 6, 30), Status: AttendanceAbsent},
		{ChildID: "child1", Date: day(2024, 7, 1), Status: AttendanceAbsent},
		{ChildID: "child1", Date: day(2024, 7, 3), Status: AttendanceLate},
		{ChildID: "child1", Date: day(2024, 7, 5), Status: AttendanceExcused},
		{ChildID: "child1", Date: today, Status: AttendancePresent},
	}

	got := DeriveAttendance(records, today)
	require.NotNil(t, got.CurrentStatus)
	assert.Equal(t, AttendancePresent, *got.CurrentStatus)
	assert.Equal(t, 2, got.AbsenceCountThisMonth)
}

func TestDeriveAttendanceNoRecordToday(t *testing.T) {
	got := DeriveAttendance([]AttendanceRecord{{Date: day(2024, 7, 1), Status: AttendanceLate}}, day(2024, 7, 2))
	assert.Nil(t, got.CurrentStatus)
	assert.Equal(t, 1, got.AbsenceCountThisMonth)
}

func TestDayOf(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	late := time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, day(2024, 7, 2), DayOf(late, jakarta))
	assert.Equal(t, day(2024, 7, 1), DayOf(late, nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize("child1", "2024-07", []AttendanceRecord{
		{Status: AttendancePresent}, {Status: AttendancePresent}, {Status: AttendanceLate}, {Status: AttendanceAbsent},
	})
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Present)
	assert.Equal(t, 1, s.Late)
	assert.Equal(t, 1, s.Absent)
	assert.InDelta(t, 75.0, s.PresentPercent, 0.001)

	empty := Summarize("child1", "2024-08", nil)
	assert.Zero(t, empty.PresentPercent)
}
