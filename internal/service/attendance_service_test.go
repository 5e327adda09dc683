package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/seed"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
)

func TestAttendanceMarkTwiceKeepsOneRecord(t *testing.T) {
	f := newFixture(t)
	svc := f.attendance()
	date := "2024-03-11"

	first, err := svc.Mark(ctx(), teacherActor, models.MarkAttendanceRequest{ChildID: seed.Child1, Date: date, Status: models.AttendanceAbsent})
	require.NoError(t, err)
	second, err := svc.Mark(ctx(), teacherActor, models.MarkAttendanceRequest{ChildID: seed.Child1, Date: date, Status: models.AttendanceLate})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	day := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	records, err := f.store.Attendance.ListByChild(ctx(), seed.Child1, &day, &day)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceLate, records[0].Status)
	require.NotNil(t, records[0].MarkedBy)
	assert.Equal(t, seed.TeacherID, *records[0].MarkedBy)
}

func TestAttendanceMarkRequiresClassTeacher(t *testing.T) {
	f := newFixture(t)
	svc := f.attendance()
	req := models.MarkAttendanceRequest{ChildID: seed.Child2, Date: "2024-03-11", Status: models.AttendancePresent}

	_, err := svc.Mark(ctx(), teacherActor, req)
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.Mark(ctx(), parentActor, req)
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.Mark(ctx(), otherTeacher, req)
	require.NoError(t, err)
}

func TestAttendanceMarkValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.attendance().Mark(ctx(), teacherActor, models.MarkAttendanceRequest{ChildID: seed.Child1, Date: "14/03/2024", Status: "Sleeping"})
	appErr := requireAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "date")
	assert.Contains(t, appErr.Fields, "status")
}

func TestAttendanceMarkClassRejectsForeignChildWithoutWriting(t *testing.T) {
	f := newFixture(t)
	svc := f.attendance()

	_, err := svc.MarkClass(ctx(), teacherActor, seed.ClassGrade5A, models.ClassAttendanceRequest{
		Date: "2024-03-11",
		Entries: []models.ClassAttendanceMark{
			{ChildID: seed.Child1, Status: models.AttendanceAbsent},
			{ChildID: seed.Child2, Status: models.AttendanceAbsent},
		},
	})
	appErr := requireAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "entries[1].childId")

	sheet, err := svc.ClassSheet(ctx(), teacherActor, seed.ClassGrade5A, "2024-03-11")
	require.NoError(t, err)
	for _, e := range sheet.Entries {
		assert.False(t, e.Recorded, e.ChildID)
	}
}

func TestAttendanceMarkClassAndSheet(t *testing.T) {
	f := newFixture(t)
	svc := f.attendance()
	notes := "Flu"

	saved, err := svc.MarkClass(ctx(), teacherActor, seed.ClassGrade5A, models.ClassAttendanceRequest{
		Date:    "2024-03-11",
		Entries: []models.ClassAttendanceMark{{ChildID: seed.Child3, Status: models.AttendanceAbsent, Notes: &notes}},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	sheet, err := svc.ClassSheet(ctx(), teacherActor, seed.ClassGrade5A, "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", sheet.Date)
	require.Len(t, sheet.Entries, 2)

	assert.Equal(t, seed.Child1, sheet.Entries[0].ChildID)
	assert.Equal(t, models.AttendancePresent, sheet.Entries[0].Status)
	assert.False(t, sheet.Entries[0].Recorded)

	assert.Equal(t, seed.Child3, sheet.Entries[1].ChildID)
	assert.Equal(t, models.AttendanceAbsent, sheet.Entries[1].Status)
	assert.True(t, sheet.Entries[1].Recorded)
	require.NotNil(t, sheet.Entries[1].Notes)
	assert.Equal(t, "Flu", *sheet.Entries[1].Notes)
}

func TestAttendanceClassSheetDefaultsToToday(t *testing.T) {
	f := newFixture(t)
	sheet, err := f.attendance().ClassSheet(ctx(), teacherActor, seed.ClassGrade5A, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", sheet.Date)
	for _, e := range sheet.Entries {
		assert.True(t, e.Recorded)
	}
}

func TestAttendanceHistory(t *testing.T) {
	f := newFixture(t)
	svc := f.attendance()

	records, err := svc.History(ctx(), parentActor, seed.Child1, "2024-03-09", "2024-03-13")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-03-13", records[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-03-09", records[2].Date.Format("2006-01-02"))

	_, err = svc.History(ctx(), parentActor, seed.Child1, "2024-03-13", "2024-03-09")
	appErr := requireAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "from")

	_, err = svc.History(ctx(), otherParentActor, seed.Child1, "", "")
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestAttendanceMonthlySummary(t *testing.T) {
	f := newFixture(t)
	svc := f.attendance()

	summary, err := svc.MonthlySummary(ctx(), parentActor, seed.Child1, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Month)
	assert.Equal(t, 2, summary.Present)
	assert.Equal(t, 1, summary.Late)
	assert.Equal(t, 1, summary.Excused)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 5, summary.Total)
	assert.InDelta(t, 60.0, summary.PresentPercent, 0.001)

	empty, err := svc.MonthlySummary(ctx(), parentActor, seed.Child1, "2024-02")
	require.NoError(t, err)
	assert.Zero(t, empty.Total)

	_, err = svc.MonthlySummary(ctx(), parentActor, seed.Child1, "March")
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestAttendanceWritesInvalidateDashboards(t *testing.T) {
	f := newFixture(t)
	key := "dashboard:teacher:" + seed.TeacherID + ":2024-03-14"
	require.NoError(t, f.cache.Set(ctx(), key, map[string]int{"x": 1}, time.Minute))

	_, err := f.attendance().Mark(ctx(), teacherActor, models.MarkAttendanceRequest{ChildID: seed.Child1, Date: "2024-03-14", Status: models.AttendanceLate})
	require.NoError(t, err)

	var dest map[string]int
	hit, err := f.cache.Get(ctx(), key, &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}
