package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/honeyport/internal/daemon"
	"github.com/user/honeyport/internal/metrics"
	"github.com/user/honeyport/internal/model"
)

type staticStatus struct {
	status *daemon.DaemonStatus
}

func (s staticStatus) GetStatus() *daemon.DaemonStatus { return s.status }

type fakeSessions struct {
	sessions []model.SensorSession
	err      error
	limit    int
}

func (f *fakeSessions) Recent(limit int) ([]model.SensorSession, error) {
	f.limit = limit
	return f.sessions, f.err
}

func runningStatus() *daemon.DaemonStatus {
	return &daemon.DaemonStatus{
		Running:  true,
		State:    "running",
		HostName: "sensor-1",
		Listeners: []daemon.ListenerStatus{
			{Port: 22, Service: "ssh", Active: true, Attempts: 4},
			{Port: 80, Service: "http", Error: "bind: address already in use"},
		},
		Attempts: 4,
	}
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := NewServer("127.0.0.1:0", staticStatus{runningStatus()}, nil)
	assert.Equal(t, http.StatusOK, serve(t, s, "/healthz").Code)

	stopped := runningStatus()
	stopped.Running = false
	s = NewServer("127.0.0.1:0", staticStatus{stopped}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, s, "/healthz").Code)
}

func TestAPIGetStatus(t *testing.T) {
	s := NewServer("127.0.0.1:0", staticStatus{runningStatus()}, nil)
	w := serve(t, s, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got daemon.DaemonStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "sensor-1", got.HostName)
	assert.Equal(t, int64(4), got.Attempts)

	w = serve(t, s, "/api/listeners")
	var listeners []daemon.ListenerStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listeners))
	assert.Len(t, listeners, 2)
}

func TestAPIGetSessions(t *testing.T) {
	s := NewServer("127.0.0.1:0", staticStatus{runningStatus()}, nil)
	assert.Equal(t, http.StatusNotFound, serve(t, s, "/api/sessions").Code)

	store := &fakeSessions{sessions: []model.SensorSession{{ID: "a", HostName: "sensor-1", StartedAt: time.Now()}}}
	s = NewServer("127.0.0.1:0", staticStatus{runningStatus()}, store)

	w := serve(t, s, "/api/sessions?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, store.limit)

	var got []model.SensorSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	assert.Equal(t, http.StatusBadRequest, serve(t, s, "/api/sessions?limit=x").Code)

	store.err = errors.New("db locked")
	assert.Equal(t, http.StatusInternalServerError, serve(t, s, "/api/sessions").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Init()
	metrics.ObserveAttempt(22)

	s := NewServer("127.0.0.1:0", staticStatus{runningStatus()}, nil)
	w := serve(t, s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "honeyport_connection_attempts_total")
}

func TestMethodNotAllowed(t *testing.T) {
	s := NewServer("127.0.0.1:0", staticStatus{runningStatus()}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
