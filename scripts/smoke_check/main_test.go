package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEnvelope(t *testing.T) {
	assert.True(t, isEnvelope([]byte(`{"data":[]}`), http.StatusOK))
	assert.False(t, isEnvelope([]byte(`{"status":"ok"}`), http.StatusOK))
	assert.True(t, isEnvelope([]byte(`{"error":{"code":"FORBIDDEN"}}`), http.StatusForbidden))
	assert.False(t, isEnvelope([]byte(`not json`), http.StatusInternalServerError))
}

func TestLoadTargetsDefaultsExpect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"targets":[{"method":"GET","path":"/health","raw":true}]}`), 0o600))

	targets, err := loadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, http.StatusOK, targets[0].Expect)
}

func TestCheckAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login-as":
			_, _ = w.Write([]byte(`{"data":{"accessToken":"tok"}}`))
		case "/api/v1/parent/dashboard":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	token, err := loginAs(srv.Client(), srv.URL, "/api/v1", "parent")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	res := check(srv.Client(), srv.URL, token, target{Method: "GET", Path: "/api/v1/parent/dashboard", Expect: http.StatusOK})
	assert.True(t, res.ok())

	res = check(srv.Client(), srv.URL, "", target{Method: "GET", Path: "/api/v1/parent/dashboard", Expect: http.StatusOK})
	assert.False(t, res.ok())
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}
