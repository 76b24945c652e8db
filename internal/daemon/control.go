package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	pidFileName    = "honeyport.pid"
	statusFileName = "status.json"
)

// DaemonStatus holds the current daemon status. It is also the on-disk
// format of status.json.
type DaemonStatus struct {
	Running             bool             `json:"running"`
	State               string           `json:"state"`
	PID                 int              `json:"pid"`
	HostName            string           `json:"host_name"`
	SessionID           string           `json:"session_id,omitempty"`
	StartTime           time.Time        `json:"start_time"`
	Uptime              time.Duration    `json:"uptime"`
	Listeners           []ListenerStatus `json:"listeners"`
	Attempts            int64            `json:"attempts"`
	NotificationsSent   int64            `json:"notifications_sent"`
	NotificationsFailed int64            `json:"notifications_failed"`
	Heartbeats          int64            `json:"heartbeats"`
	LastHeartbeat       time.Time        `json:"last_heartbeat"`
	Jobs                []JobStatus      `json:"jobs"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ListenerStatus describes one monitored port.
type ListenerStatus struct {
	Port     int    `json:"port"`
	Service  string `json:"service"`
	Active   bool   `json:"active"`
	Attempts int64  `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// ActiveListeners counts ports with a running accept loop.
func (s *DaemonStatus) ActiveListeners() int {
	n := 0
	for _, l := range s.Listeners {
		if l.Active {
			n++
		}
	}
	return n
}

// CheckRunning checks if a sensor is already running for dataDir.
func CheckRunning(dataDir string) (bool, int) {
	data, err := os.ReadFile(filepath.Join(dataDir, pidFileName))
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// Signal 0 probes for existence without delivering anything.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return false, 0
	}

	return true, pid
}

// SendStop sends SIGTERM to the running sensor.
func SendStop(dataDir string) error {
	running, pid := CheckRunning(dataDir)
	if !running {
		return fmt.Errorf("honeyport is not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}

	return nil
}

// WriteStatusFile writes status to dataDir/status.json atomically.
func WriteStatusFile(dataDir string, status *DaemonStatus) error {
	status.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}

	// Each writer gets its own temp file, so concurrent writers never share
	// a partially written file; the last rename wins.
	tmp, err := os.CreateTemp(dataDir, "status-*.json.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(dataDir, statusFileName))
}

// ReadStatusFile reads the last status written to dataDir.
func ReadStatusFile(dataDir string) (*DaemonStatus, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, statusFileName))
	if err != nil {
		return nil, err
	}

	var sf DaemonStatus
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}

	return &sf, nil
}
