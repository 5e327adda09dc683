package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/seed"
	appErrors "github.com/noah-isme/eduattend-api/pkg/errors"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   string
	err     error
	block   bool
}

func (g *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, out interface{}) error {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	reply, err, block := g.reply, g.err, g.block
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(reply), out)
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (f *fixture) ai(gen *fakeGenerator, timeout time.Duration) *AIService {
	return NewAIService(AIDeps{
		Generator:     gen,
		Children:      f.store.Children,
		Classes:       f.store.Classes,
		Attendance:    f.store.Attendance,
		Grades:        f.grades(),
		Assignments:   f.assignments(),
		Subjects:      f.store.Subjects,
		Notifications: f.notifications(),
		Metrics:       NewMetricsService(),
		Timeout:       timeout,
	})
}

func absenceRequest() models.AbsenceReportRequest {
	return models.AbsenceReportRequest{ChildID: seed.Child1, ChildName: "Alex Johnson", Date: "2024-03-15", Reason: "Dentist"}
}

func TestAIAbsenceReportEmptyReasonSkipsGeneration(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{reply: `{"notificationText":"x"}`}
	req := absenceRequest()
	req.Reason = ""

	_, err := f.ai(gen, time.Second).AbsenceReport(ctx(), parentActor, req)
	appErr := requireAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "reason")
	assert.Zero(t, gen.callCount())
}

func TestAIAbsenceReportGenerationFailure(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{err: errors.New("upstream exploded")}

	_, err := f.ai(gen, time.Second).AbsenceReport(ctx(), parentActor, absenceRequest())
	appErr := requireAppError(t, err, appErrors.ErrGeneration)
	assert.Equal(t, appErrors.ErrGeneration.Message, appErr.Message)
	assert.Equal(t, 1, gen.callCount())
}

func TestAIAbsenceReportRejectsEmptyOutput(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{reply: `{"notificationText":""}`}
	_, err := f.ai(gen, time.Second).AbsenceReport(ctx(), parentActor, absenceRequest())
	requireAppError(t, err, appErrors.ErrGeneration)
}

func TestAIAbsenceReportIncludesPastReasons(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{reply: "{\"notificationText\":\"Alex will be absent on 2024-03-15 for a dentist visit.\"}"}

	out, err := f.ai(gen, time.Second).AbsenceReport(ctx(), parentActor, absenceRequest())
	require.NoError(t, err)
	assert.Contains(t, out.NotificationText, "dentist")

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Alex Johnson")
	assert.Contains(t, prompt, "- Doctor's appointment.")
	assert.Contains(t, prompt, "- Sick leave")
	assert.NotContains(t, prompt, "Arrived 10 mins late.")
}

func TestAIAbsenceReportTimeout(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{block: true}
	_, err := f.ai(gen, 20*time.Millisecond).AbsenceReport(ctx(), parentActor, absenceRequest())
	requireAppError(t, err, appErrors.ErrGenerationTimeout)
}

func TestAIAbsenceReportOwnership(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{reply: `{"notificationText":"x"}`}
	_, err := f.ai(gen, time.Second).AbsenceReport(ctx(), otherParentActor, absenceRequest())
	requireAppError(t, err, appErrors.ErrForbidden)
	assert.Zero(t, gen.callCount())
}

func TestAINewerRequestCancelsOlder(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{block: true}
	svc := f.ai(gen, 5*time.Second)

	first := make(chan error, 1)
	go func() {
		_, err := svc.AbsenceReport(ctx(), parentActor, absenceRequest())
		first <- err
	}()
	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, 5*time.Millisecond)

	gen.mu.Lock()
	gen.block = false
	gen.reply = `{"notificationText":"second"}`
	gen.mu.Unlock()

	out, err := svc.AbsenceReport(ctx(), parentActor, absenceRequest())
	require.NoError(t, err)
	assert.Equal(t, "second", out.NotificationText)

	select {
	case err := <-first:
		requireAppError(t, err, appErrors.ErrGeneration)
	case <-time.After(time.Second):
		t.Fatal("older request was not cancelled")
	}
}

func TestAISubmitAbsenceReportNotifiesClassTeacher(t *testing.T) {
	f := newFixture(t)
	svc := f.ai(&fakeGenerator{}, time.Second)

	created, err := svc.SubmitAbsenceReport(ctx(), parentActor, models.SubmitAbsenceReportRequest{
		ChildID: seed.Child2, Date: "2024-03-15", NotificationText: "Mia will be absent.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationAbsence, created.Type)
	assert.Equal(t, models.UserAudience(seed.OtherTeacher), created.TargetAudience)

	list, err := f.notifications().ListFor(ctx(), otherTeacher)
	require.NoError(t, err)
	assert.Equal(t, created.ID, list[0].ID)

	list, err = f.notifications().ListFor(ctx(), teacherActor)
	require.NoError(t, err)
	for _, n := range list {
		assert.NotEqual(t, created.ID, n.ID)
	}
}

func TestAIAcademicAdvice(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{reply: `{"overallSummary":"Doing well.","strengths":["Math"],"areasForImprovement":["Science labs"],"suggestedActivities":["Visit a museum"]}`}

	out, err := f.ai(gen, time.Second).AcademicAdvice(ctx(), parentActor, models.AcademicAdviceRequest{ChildID: seed.Child1, ChildName: "Alex Johnson"})
	require.NoError(t, err)
	assert.Equal(t, "Doing well.", out.OverallSummary)
	assert.Equal(t, []string{"Math"}, out.Strengths)

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Subject: Mathematics, Grade: A")
	assert.Contains(t, prompt, `Title: "Plant Cell Diagram"`)
	assert.Contains(t, prompt, "(Pending Submission)")
	assert.Contains(t, prompt, "Progress: 75%")
}

func TestAIAcademicAdviceMissingFields(t *testing.T) {
	f := newFixture(t)
	gen := &fakeGenerator{reply: `{"overallSummary":"Doing well."}`}
	_, err := f.ai(gen, time.Second).AcademicAdvice(ctx(), parentActor, models.AcademicAdviceRequest{ChildID: seed.Child1, ChildName: "Alex Johnson"})
	requireAppError(t, err, appErrors.ErrGeneration)
}
