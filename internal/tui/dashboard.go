package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/honeyport/internal/daemon"
	"github.com/user/honeyport/internal/model"
)

// DashboardData holds data for the dashboard view.
type DashboardData struct {
	Status   *daemon.DaemonStatus
	Running  bool
	PID      int
	Sessions []model.SensorSession
}

// Dashboard is the main dashboard view.
type Dashboard struct {
	data   *DashboardData
	width  int
	height int
}

// NewDashboard creates a new dashboard.
func NewDashboard(data *DashboardData, width, height int) *Dashboard {
	return &Dashboard{
		data:   data,
		width:  width,
		height: height,
	}
}

// SetSize updates the dashboard size.
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	var sb strings.Builder

	sb.WriteString(HeaderStyle.Width(d.width).Render("honeyport"))
	sb.WriteString("\n\n")
	sb.WriteString(d.renderSensorSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderListenersSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderSessionsSection())
	sb.WriteString("\n")
	sb.WriteString(HelpStyle.Render("Press 'r' to refresh • 'q' to quit"))

	return sb.String()
}

func (d *Dashboard) sectionWidth() int {
	w := d.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func (d *Dashboard) renderSensorSection() string {
	st := d.data.Status

	state := RenderStatus(d.data.Running, fmt.Sprintf("running (PID %d)", d.data.PID), "stopped")
	lastBeat := "never"
	if !st.LastHeartbeat.IsZero() {
		lastBeat = st.LastHeartbeat.Format("15:04:05")
	}

	content := strings.Join([]string{
		LabelStyle.Render("State:") + " " + state,
		LabelStyle.Render("Host:") + " " + ValueStyle.Render(st.HostName),
		LabelStyle.Render("Uptime:") + " " + ValueStyle.Render(st.Uptime.Truncate(time.Second).String()),
		LabelStyle.Render("Attempts:") + " " + ValueStyle.Render(fmt.Sprintf("%d", st.Attempts)),
		LabelStyle.Render("Delivered:") + " " + ValueStyle.Render(fmt.Sprintf("%d", st.NotificationsSent)) +
			DimStyle.Render(fmt.Sprintf("  (%d failed)", st.NotificationsFailed)),
		LabelStyle.Render("Heartbeat:") + " " + ValueStyle.Render(lastBeat),
		LabelStyle.Render("Updated:") + " " + DimStyle.Render(st.UpdatedAt.Format("15:04:05")),
	}, "\n")

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("Sensor") + "\n" + content)
}

func (d *Dashboard) renderListenersSection() string {
	listeners := d.data.Status.Listeners
	if len(listeners) == 0 {
		return SectionStyle.Width(d.sectionWidth()).Render(
			SectionTitleStyle.Render("Listeners") + "\n" + DimStyle.Render("No listeners"))
	}

	var max int64
	for _, l := range listeners {
		if l.Attempts > max {
			max = l.Attempts
		}
	}

	rows := []string{
		fmt.Sprintf("%-6s %-11s %-8s %-8s %s", "Port", "Service", "State", "Hits", ""),
		strings.Repeat("─", 52),
	}
	for _, l := range listeners {
		state := SuccessStyle.Render(fmt.Sprintf("%-8s", "up"))
		switch {
		case l.Error != "":
			state = ErrorStyle.Render(fmt.Sprintf("%-8s", "failed"))
		case !l.Active:
			state = WarningStyle.Render(fmt.Sprintf("%-8s", "down"))
		}
		rows = append(rows, fmt.Sprintf("%-6d %-11s %s %-8d %s",
			l.Port, l.Service, state, l.Attempts, RenderBar(int(l.Attempts), int(max), 16)))
	}

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render(fmt.Sprintf("Listeners (%d active)", d.data.Status.ActiveListeners())) +
			"\n" + strings.Join(rows, "\n"))
}

func (d *Dashboard) renderSessionsSection() string {
	if len(d.data.Sessions) == 0 {
		return SectionStyle.Width(d.sectionWidth()).Render(
			SectionTitleStyle.Render("Recent Runs") + "\n" + DimStyle.Render("No session history"))
	}

	now := time.Now()
	var rows []string
	for _, s := range d.data.Sessions {
		end := "running"
		if s.StoppedAt != nil {
			end = s.StopReason
		}
		rows = append(rows, fmt.Sprintf("%s  %-10s %2d ports  %s",
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Duration(now).Truncate(time.Second),
			len(s.BoundPorts),
			DimStyle.Render(end)))
	}

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("Recent Runs") + "\n" + strings.Join(rows, "\n"))
}
