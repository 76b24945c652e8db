// Package tui provides a terminal dashboard for a running sensor.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/honeyport/internal/daemon"
	"github.com/user/honeyport/internal/model"
)

// refreshInterval is how often status.json is re-read.
const refreshInterval = 2 * time.Second

// SessionLister reads recorded sensor runs.
type SessionLister interface {
	Recent(limit int) ([]model.SensorSession, error)
}

// App is the main TUI application.
type App struct {
	dataDir  string
	sessions SessionLister
}

// NewApp creates a dashboard for the sensor whose files live in dataDir.
// sessions may be nil.
func NewApp(dataDir string, sessions SessionLister) *App {
	return &App{
		dataDir:  dataDir,
		sessions: sessions,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(newModel(a.dataDir, a.sessions), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type uiModel struct {
	dataDir   string
	sessions  SessionLister
	dashboard *Dashboard
	spinner   spinner.Model
	ready     bool
	width     int
	height    int
	err       error
}

func newModel(dataDir string, sessions SessionLister) uiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(Amber)

	return uiModel{
		dataDir:  dataDir,
		sessions: sessions,
		spinner:  s,
		width:    80,
	}
}

// Init initializes the model.
func (m uiModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadData(m.dataDir, m.sessions),
	)
}

// Update handles messages.
func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, loadData(m.dataDir, m.sessions)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.dashboard != nil {
			m.dashboard.SetSize(msg.Width, msg.Height)
		}

	case dataMsg:
		m.ready = true
		m.err = nil
		m.dashboard = NewDashboard(msg.Data, m.width, m.height)
		return m, scheduleRefresh()

	case refreshMsg:
		return m, loadData(m.dataDir, m.sessions)

	case errMsg:
		m.err = msg.err
		return m, scheduleRefresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI.
func (m uiModel) View() string {
	if m.err != nil && m.dashboard == nil {
		return ErrorStyle.Render("Error: "+m.err.Error()) + "\n" +
			HelpStyle.Render("Is the sensor running? Retrying every 2s • 'q' to quit")
	}

	if !m.ready {
		return LoadingStyle.Render(m.spinner.View() + " Loading...")
	}

	return m.dashboard.View()
}

// Messages
type dataMsg struct {
	Data *DashboardData
}

type refreshMsg struct{}

type errMsg struct {
	err error
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func loadData(dataDir string, sessions SessionLister) tea.Cmd {
	return func() tea.Msg {
		data, err := fetchDashboardData(dataDir, sessions)
		if err != nil {
			return errMsg{err}
		}
		return dataMsg{Data: data}
	}
}

func fetchDashboardData(dataDir string, sessions SessionLister) (*DashboardData, error) {
	status, err := daemon.ReadStatusFile(dataDir)
	if err != nil {
		return nil, err
	}

	running, pid := daemon.CheckRunning(dataDir)
	data := &DashboardData{
		Status:  status,
		Running: running && status.Running,
		PID:     pid,
	}

	if sessions != nil {
		if recent, err := sessions.Recent(5); err == nil {
			data.Sessions = recent
		}
	}

	return data, nil
}
