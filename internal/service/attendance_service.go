package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, in models.AttendanceUpsert) (*models.AttendanceRecord, error)
	ListByChild(ctx context.Context, childID string, from, to *time.Time) ([]models.AttendanceRecord, error)
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error)
}

const monthLayout = "2006-01"

// AttendanceService records and reports attendance.
type AttendanceService struct {
	attendance attendanceRepository
	children   childRepository
	guard      guard
	cache      *CacheService
	validator  *validator.Validate
	clock      Clock
	logger     *zap.Logger
}

func NewAttendanceService(attendance attendanceRepository, children childRepository, classes classReader, cache *CacheService, validate *validator.Validate, clock Clock, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &AttendanceService{
		attendance: attendance,
		children:   children,
		guard:      guard{children: children, classes: classes},
		cache:      cache,
		validator:  validate,
		clock:      clock,
		logger:     logger,
	}
}

// Mark upserts the record for one child and day. Only the child's class teacher may mark.
func (s *AttendanceService) Mark(ctx context.Context, actor Actor, req models.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := validation.Struct(s.validator, req, "invalid attendance payload"); err != nil {
		return nil, err
	}
	if !actor.IsTeacher() {
		return nil, errAuthorizationMismatch
	}
	if _, err := s.guard.child(ctx, actor, req.ChildID); err != nil {
		return nil, err
	}
	day, err := parseDay(req.Date, "date")
	if err != nil {
		return nil, err
	}

	rec, err := s.attendance.Upsert(ctx, models.AttendanceUpsert{
		ChildID:  req.ChildID,
		Date:     day,
		Status:   req.Status,
		Notes:    req.Notes,
		MarkedBy: strPtr(actor.UserID),
	})
	if err != nil {
		return nil, storeError(err, "child not found", "save attendance")
	}
	s.invalidate(ctx)
	return rec, nil
}

// MarkClass saves a class sheet for one date. Every child must belong to the
// class; nothing is written when any entry is rejected.
func (s *AttendanceService) MarkClass(ctx context.Context, actor Actor, classID string, req models.ClassAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := validation.Struct(s.validator, req, "invalid attendance payload"); err != nil {
		return nil, err
	}
	class, err := s.guard.class(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	day, err := parseDay(req.Date, "date")
	if err != nil {
		return nil, err
	}

	fields := make(map[string][]string)
	seen := make(map[string]bool, len(req.Entries))
	for i, e := range req.Entries {
		key := fmt.Sprintf("entries[%d].childId", i)
		if !class.HasStudent(e.ChildID) {
			fields[key] = append(fields[key], "is not a student of this class")
		}
		if seen[e.ChildID] {
			fields[key] = append(fields[key], "appears more than once")
		}
		seen[e.ChildID] = true
	}
	if len(fields) > 0 {
		return nil, appErrors.WithFields(nil, "invalid attendance payload", fields)
	}

	out := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, e := range req.Entries {
		rec, err := s.attendance.Upsert(ctx, models.AttendanceUpsert{
			ChildID:  e.ChildID,
			Date:     day,
			Status:   e.Status,
			Notes:    e.Notes,
			MarkedBy: strPtr(actor.UserID),
		})
		if err != nil {
			return nil, storeError(err, "child not found", "save attendance")
		}
		out = append(out, *rec)
	}
	s.invalidate(ctx)
	s.logger.Info("class attendance saved", zap.String("class_id", classID), zap.String("date", req.Date), zap.Int("entries", len(out)))
	return out, nil
}

// History lists a child's records, newest first, within optional bounds.
func (s *AttendanceService) History(ctx context.Context, actor Actor, childID, from, to string) ([]models.AttendanceRecord, error) {
	if _, err := s.guard.child(ctx, actor, childID); err != nil {
		return nil, err
	}
	var fromDay, toDay *time.Time
	if from != "" {
		d, err := parseDay(from, "from")
		if err != nil {
			return nil, err
		}
		fromDay = &d
	}
	if to != "" {
		d, err := parseDay(to, "to")
		if err != nil {
			return nil, err
		}
		toDay = &d
	}
	if fromDay != nil && toDay != nil && fromDay.After(*toDay) {
		return nil, appErrors.WithFields(nil, "invalid date range", map[string][]string{"from": {"must not be after to"}})
	}
	records, err := s.attendance.ListByChild(ctx, childID, fromDay, toDay)
	if err != nil {
		return nil, storeError(err, "child not found", "list attendance")
	}
	return records, nil
}

// MonthlySummary counts statuses for month (YYYY-MM, default current month).
func (s *AttendanceService) MonthlySummary(ctx context.Context, actor Actor, childID, month string) (*models.AttendanceSummary, error) {
	if _, err := s.guard.child(ctx, actor, childID); err != nil {
		return nil, err
	}
	start := models.MonthStart(s.clock.Today())
	if month != "" {
		parsed, err := time.Parse(monthLayout, month)
		if err != nil {
			return nil, appErrors.WithFields(err, "invalid month", map[string][]string{"month": {"must be in YYYY-MM format"}})
		}
		start = parsed
	}
	end := start.AddDate(0, 1, -1)
	records, err := s.attendance.ListByChild(ctx, childID, &start, &end)
	if err != nil {
		return nil, storeError(err, "child not found", "list attendance")
	}
	summary := models.Summarize(childID, start.Format(monthLayout), records)
	return &summary, nil
}

// ClassSheet lists every student of the class for date (default today).
// Students without a record are shown as Present and not recorded.
func (s *AttendanceService) ClassSheet(ctx context.Context, actor Actor, classID, date string) (*models.ClassAttendanceSheet, error) {
	if _, err := s.guard.class(ctx, actor, classID); err != nil {
		return nil, err
	}
	day := s.clock.Today()
	if date != "" {
		d, err := parseDay(date, "date")
		if err != nil {
			return nil, err
		}
		day = d
	}

	students, err := s.children.ListByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found", "list class students")
	}
	records, err := s.attendance.ListByClassAndDate(ctx, classID, day)
	if err != nil {
		return nil, storeError(err, "class not found", "list class attendance")
	}
	byChild := make(map[string]models.AttendanceRecord, len(records))
	for _, r := range records {
		byChild[r.ChildID] = r
	}

	entries := make([]models.ClassAttendanceEntry, 0, len(students))
	for _, st := range students {
		entry := models.ClassAttendanceEntry{ChildID: st.ID, ChildName: st.Name, Status: models.AttendancePresent}
		if r, ok := byChild[st.ID]; ok {
			entry.Status = r.Status
			entry.Notes = r.Notes
			entry.Recorded = true
		}
		entries = append(entries, entry)
	}
	return &models.ClassAttendanceSheet{ClassID: classID, Date: day.Format(validation.DateLayout), Entries: entries}, nil
}

func (s *AttendanceService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, dashboardCachePattern)
}
