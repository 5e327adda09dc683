package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduattend-api/pkg/config"
)

type draft struct {
	NotificationText string `json:"notificationText"`
}

func candidate(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{"content": map[string]interface{}{"parts": []interface{}{map[string]string{"text": text}}}},
		},
	}
}

func newTestClient(url string, retries int) *Client {
	c := NewClient(config.AIConfig{APIKey: "k", BaseURL: url, Model: "m", MaxRetries: retries, RetryBackoff: time.Millisecond}, nil, nil)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestGenerateJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/m:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		_ = json.NewEncoder(w).Encode(candidate("```json\n{\"notificationText\":\"Dear teacher\"}\n```"))
	}))
	defer srv.Close()

	var out draft
	require.NoError(t, newTestClient(srv.URL, 0).GenerateJSON(context.Background(), "hello", &out))
	assert.Equal(t, "Dear teacher", out.NotificationText)
}

func TestGenerateJSONRetriesTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(candidate(`{"notificationText":"ok"}`))
	}))
	defer srv.Close()

	var out draft
	require.NoError(t, newTestClient(srv.URL, 2).GenerateJSON(context.Background(), "p", &out))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 3).GenerateJSON(context.Background(), "p", &draft{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidate("no json here"))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 0).GenerateJSON(context.Background(), "p", &draft{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGenerateJSONNotConfigured(t *testing.T) {
	c := NewClient(config.AIConfig{}, nil, nil)
	assert.ErrorIs(t, c.GenerateJSON(context.Background(), "p", &draft{}), ErrNotConfigured)
}

func TestGenerateJSONContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := newTestClient(srv.URL, 3).GenerateJSON(ctx, "p", &draft{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
