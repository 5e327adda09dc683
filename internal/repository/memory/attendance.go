package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
)

type attendanceRepo struct{ db *DB }

// Upsert keys on (ChildID, day of Date).
func (r *attendanceRepo) Upsert(_ context.Context, in models.AttendanceUpsert) (*models.AttendanceRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.childIndex(in.ChildID) < 0 {
		return nil, fmt.Errorf("%w: child %s", repository.ErrInvalidReference, in.ChildID)
	}
	date := models.DayOf(in.Date, in.Date.Location())

	for i := range r.db.attendance {
		rec := &r.db.attendance[i]
		if rec.ChildID != in.ChildID || !rec.Date.Equal(date) {
			continue
		}
		rec.Status = in.Status
		if in.Notes != nil {
			rec.Notes = cloneString(in.Notes)
		}
		if in.MarkedBy != nil {
			rec.MarkedBy = cloneString(in.MarkedBy)
		}
		out := cloneAttendance(*rec)
		return &out, nil
	}

	rec := models.AttendanceRecord{
		ID:       r.db.newID(),
		ChildID:  in.ChildID,
		Date:     date,
		Status:   in.Status,
		Notes:    cloneString(in.Notes),
		MarkedBy: cloneString(in.MarkedBy),
	}
	r.db.attendance = append(r.db.attendance, rec)
	out := cloneAttendance(rec)
	return &out, nil
}

func (r *attendanceRepo) ListByChild(_ context.Context, childID string, from, to *time.Time) ([]models.AttendanceRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.AttendanceRecord, 0)
	for _, rec := range r.db.attendance {
		if rec.ChildID != childID {
			continue
		}
		if from != nil && rec.Date.Before(*from) {
			continue
		}
		if to != nil && rec.Date.After(*to) {
			continue
		}
		out = append(out, cloneAttendance(rec))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *attendanceRepo) ListByClassAndDate(_ context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ci := r.db.classIndex(classID)
	if ci < 0 {
		return nil, repository.ErrNotFound
	}
	day := models.DayOf(date, date.Location())
	out := make([]models.AttendanceRecord, 0)
	for _, rec := range r.db.attendance {
		if rec.Date.Equal(day) && r.db.classes[ci].HasStudent(rec.ChildID) {
			out = append(out, cloneAttendance(rec))
		}
	}
	return out, nil
}
