package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

const (
	dashboardCachePattern = "dashboard:*"
	upcomingLimit         = 5
)

// DashboardService assembles the landing views. Results are cached per user
// and day; writes elsewhere invalidate dashboard:*.
type DashboardService struct {
	children      *ChildService
	assignments   *AssignmentService
	notifications *NotificationService
	messages      *MessagingService
	classes       classLister
	students      childRepository
	attendance    attendanceRepository
	cache         *CacheService
	clock         Clock
	logger        *zap.Logger
}

// DashboardDeps groups the collaborators of DashboardService.
type DashboardDeps struct {
	Children      *ChildService
	Assignments   *AssignmentService
	Notifications *NotificationService
	Messages      *MessagingService
	Classes       classLister
	Students      childRepository
	Attendance    attendanceRepository
	Cache         *CacheService
	Clock         Clock
	Logger        *zap.Logger
}

func NewDashboardService(deps DashboardDeps) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		children:      deps.Children,
		assignments:   deps.Assignments,
		notifications: deps.Notifications,
		messages:      deps.Messages,
		classes:       deps.Classes,
		students:      deps.Students,
		attendance:    deps.Attendance,
		cache:         deps.Cache,
		clock:         deps.Clock,
		logger:        logger,
	}
}

// Parent builds the parent dashboard. The bool reports a cache hit.
func (s *DashboardService) Parent(ctx context.Context, actor Actor) (*models.ParentDashboard, bool, error) {
	if !actor.IsParent() {
		return nil, false, errAuthorizationMismatch
	}
	today := s.clock.Today()
	key := fmt.Sprintf("dashboard:parent:%s:%s", actor.UserID, today.Format(validation.DateLayout))

	var cached models.ParentDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	children, err := s.children.ListForParent(ctx, actor)
	if err != nil {
		return nil, false, err
	}
	upcomingViews := make([]models.AssignmentView, 0)
	for _, child := range children {
		views, err := s.assignments.viewFor(ctx, child.Child)
		if err != nil {
			return nil, false, err
		}
		upcomingViews = append(upcomingViews, upcoming(views, today)...)
	}
	sort.SliceStable(upcomingViews, func(i, j int) bool { return upcomingViews[i].DueDate.Before(upcomingViews[j].DueDate) })
	if len(upcomingViews) > upcomingLimit {
		upcomingViews = upcomingViews[:upcomingLimit]
	}

	dash := &models.ParentDashboard{Children: children, UpcomingAssignments: upcomingViews}
	if dash.UnreadNotifications, err = s.notifications.UnreadCount(ctx, actor); err != nil {
		return nil, false, err
	}
	if dash.UnreadMessages, err = s.messages.UnreadCount(ctx, actor); err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, dash, 0)
	return dash, false, nil
}

// Teacher builds the teacher dashboard. The bool reports a cache hit.
func (s *DashboardService) Teacher(ctx context.Context, actor Actor) (*models.TeacherDashboard, bool, error) {
	if !actor.IsTeacher() {
		return nil, false, errAuthorizationMismatch
	}
	today := s.clock.Today()
	date := today.Format(validation.DateLayout)
	key := fmt.Sprintf("dashboard:teacher:%s:%s", actor.UserID, date)

	var cached models.TeacherDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	classes, err := s.classes.ListByTeacher(ctx, actor.UserID)
	if err != nil {
		return nil, false, storeError(err, "classes not found", "list classes")
	}
	dash := &models.TeacherDashboard{Date: date, Classes: make([]models.ClassOverview, 0, len(classes))}
	for _, class := range classes {
		students, err := s.students.ListByClass(ctx, class.ID)
		if err != nil {
			return nil, false, storeError(err, "class not found", "list class students")
		}
		records, err := s.attendance.ListByClassAndDate(ctx, class.ID, today)
		if err != nil {
			return nil, false, storeError(err, "class not found", "list class attendance")
		}
		overview := models.ClassOverview{ID: class.ID, Name: class.Name, StudentCount: len(students)}
		for _, r := range records {
			switch r.Status {
			case models.AttendancePresent:
				overview.PresentToday++
			case models.AttendanceAbsent:
				overview.AbsentToday++
			case models.AttendanceLate:
				overview.LateToday++
			case models.AttendanceExcused:
				overview.ExcusedToday++
			}
		}
		overview.Unmarked = len(students) - len(records)
		if overview.Unmarked < 0 {
			overview.Unmarked = 0
		}
		dash.Classes = append(dash.Classes, overview)
	}

	if dash.UnreadNotifications, err = s.notifications.UnreadCount(ctx, actor); err != nil {
		return nil, false, err
	}
	if dash.UnreadMessages, err = s.messages.UnreadCount(ctx, actor); err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, dash, 0)
	return dash, false, nil
}
