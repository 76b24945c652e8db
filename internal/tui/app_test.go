package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/honeyport/internal/daemon"
	"github.com/user/honeyport/internal/model"
)

type fakeSessions struct {
	sessions []model.SensorSession
	err      error
}

func (f fakeSessions) Recent(limit int) ([]model.SensorSession, error) {
	return f.sessions, f.err
}

func sampleStatus() *daemon.DaemonStatus {
	return &daemon.DaemonStatus{
		Running:  true,
		State:    "running",
		HostName: "sensor-1",
		Uptime:   90 * time.Second,
		Listeners: []daemon.ListenerStatus{
			{Port: 22, Service: "SSH", Active: true, Attempts: 4},
			{Port: 23, Service: "Telnet", Error: "address already in use"},
		},
		Attempts:          4,
		NotificationsSent: 5,
	}
}

func TestFetchDashboardData(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, daemon.WriteStatusFile(dir, sampleStatus()))

	stopped := time.Now()
	sessions := fakeSessions{sessions: []model.SensorSession{{
		ID:         "abc",
		StartedAt:  stopped.Add(-time.Hour),
		StoppedAt:  &stopped,
		BoundPorts: []int{22},
		StopReason: "signal terminated",
	}}}

	data, err := fetchDashboardData(dir, sessions)
	require.NoError(t, err)

	assert.Equal(t, "sensor-1", data.Status.HostName)
	assert.Len(t, data.Status.Listeners, 2)
	assert.Len(t, data.Sessions, 1)
	// No PID file, so the sensor is not considered live.
	assert.False(t, data.Running)
}

func TestFetchDashboardData_NoStatusFile(t *testing.T) {
	_, err := fetchDashboardData(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestFetchDashboardData_SessionErrorIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, daemon.WriteStatusFile(dir, sampleStatus()))

	data, err := fetchDashboardData(dir, fakeSessions{err: errors.New("locked")})
	require.NoError(t, err)
	assert.Empty(t, data.Sessions)
}

func TestDashboardView(t *testing.T) {
	d := NewDashboard(&DashboardData{Status: sampleStatus(), Running: true, PID: 42}, 100, 40)
	out := d.View()

	assert.Contains(t, out, "sensor-1")
	assert.Contains(t, out, "SSH")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "Listeners (1 active)")
	assert.Contains(t, out, "No session history")
}

func TestModelUpdate(t *testing.T) {
	m := newModel(t.TempDir(), nil)

	next, cmd := m.Update(dataMsg{Data: &DashboardData{Status: sampleStatus()}})
	um := next.(uiModel)
	assert.True(t, um.ready)
	assert.NotNil(t, um.dashboard)
	assert.NotNil(t, cmd, "a refresh is scheduled after each load")

	next, _ = um.Update(errMsg{err: errors.New("gone")})
	um = next.(uiModel)
	assert.Error(t, um.err)
	assert.NotNil(t, um.dashboard, "last good data stays on screen")

	_, cmd = um.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBar(t *testing.T) {
	assert.Equal(t, "▮▮··", bar(2, 4, 4))
	assert.Equal(t, "····", bar(0, 0, 4))
	assert.Equal(t, "▮▮▮▮", bar(9, 4, 4))
}

func TestRenderStatus(t *testing.T) {
	assert.Contains(t, RenderStatus(true, "running", "stopped"), "running")
	assert.Contains(t, RenderStatus(false, "running", "stopped"), "stopped")
}
