package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
	"github.com/noah-isme/eduattend-api/internal/repository/memory"
	"github.com/noah-isme/eduattend-api/internal/seed"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
)

const testPassword = "password"

var (
	fixedNow = time.Date(2024, time.March, 14, 10, 0, 0, 0, time.UTC)
	today    = models.DayOf(fixedNow, time.UTC)

	parentActor      = Actor{UserID: seed.ParentID, Role: models.RoleParent, Name: "Jane Doe"}
	otherParentActor = Actor{UserID: seed.OtherParentID, Role: models.RoleParent, Name: "Robert Brown"}
	teacherActor     = Actor{UserID: seed.TeacherID, Role: models.RoleTeacher, Name: "Ms. Davis"}
	otherTeacher     = Actor{UserID: seed.OtherTeacher, Role: models.RoleTeacher, Name: "Mr. Green"}
)

type fixture struct {
	db    *memory.DB
	store *repository.Store
	clock Clock
	cache *CacheService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	db := memory.New(memory.WithClock(func() time.Time { return fixedNow }))
	db.Load(seed.Build(fixedNow, time.UTC, string(hash)))
	return &fixture{
		db:    db,
		store: db.Store(),
		clock: Clock{Now: func() time.Time { return fixedNow }, Location: time.UTC},
		cache: NewCacheService(memory.NewCache(), nil, time.Minute, nil, true),
	}
}

func (f *fixture) children() *ChildService {
	return NewChildService(f.store.Children, f.store.Classes, f.store.Subjects, f.store.Attendance, f.clock, nil)
}

func (f *fixture) attendance() *AttendanceService {
	return NewAttendanceService(f.store.Attendance, f.store.Children, f.store.Classes, f.cache, nil, f.clock, nil)
}

func (f *fixture) assignments() *AssignmentService {
	return NewAssignmentService(f.store.Assignments, f.store.Submissions, f.store.Subjects, f.store.Children, f.store.Classes, f.cache, nil, f.clock, nil)
}

func (f *fixture) grades() *GradeService {
	return NewGradeService(f.store.Grades, f.store.Subjects, f.store.Children, f.store.Classes, nil, nil)
}

func (f *fixture) notifications() *NotificationService {
	return NewNotificationService(f.store.Notifications, f.store.Classes, f.store.Children, f.cache, nil, nil)
}

func (f *fixture) messaging() *MessagingService {
	return NewMessagingService(f.store.Conversations, f.cache, nil, nil)
}

func (f *fixture) dashboard() *DashboardService {
	return NewDashboardService(DashboardDeps{
		Children:      f.children(),
		Assignments:   f.assignments(),
		Notifications: f.notifications(),
		Messages:      f.messaging(),
		Classes:       f.store.Classes,
		Students:      f.store.Children,
		Attendance:    f.store.Attendance,
		Cache:         f.cache,
		Clock:         f.clock,
	})
}

func requireAppError(t *testing.T, err error, want *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, want.Code, appErr.Code, appErr.Error())
	return appErr
}

func ctx() context.Context { return context.Background() }
