package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan error, 1)
	q := New("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("boom")
		}
		return nil
	}, Config{MaxRetries: 3, RetryDelay: time.Millisecond, OnDone: func(_ Job, err error) { done <- err }})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "1", Kind: "export"}))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueGivesUp(t *testing.T) {
	done := make(chan error, 1)
	q := New("test", func(ctx context.Context, job Job) error {
		return errors.New("always")
	}, Config{MaxRetries: 1, RetryDelay: time.Millisecond, OnDone: func(_ Job, err error) { done <- err }})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "1"}))

	select {
	case err := <-done:
		assert.EqualError(t, err, "always")
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := New("idle", func(context.Context, Job) error { return nil }, Config{})
	err := q.Enqueue(Job{ID: "x"})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStopReportsPendingRetry(t *testing.T) {
	called := make(chan struct{}, 1)
	var outcome error
	var finished int32
	q := New("test", func(ctx context.Context, job Job) error {
		called <- struct{}{}
		return errors.New("transient")
	}, Config{MaxRetries: 3, RetryDelay: time.Hour, OnDone: func(_ Job, err error) {
		outcome = err
		atomic.AddInt32(&finished, 1)
	}})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "1", Kind: "export"}))

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
	assert.ErrorIs(t, outcome, context.Canceled)
}
