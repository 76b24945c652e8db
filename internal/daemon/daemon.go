// Package daemon runs the sensor: it binds the monitored ports, drives the
// heartbeat and handles shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/user/honeyport/internal/listener"
	"github.com/user/honeyport/internal/metrics"
	"github.com/user/honeyport/internal/model"
	"github.com/user/honeyport/internal/util"
)

// ErrNoListeners is returned by Run when no monitored port could be bound.
var ErrNoListeners = errors.New("no listeners could be started")

// State is the lifecycle state of the daemon.
type State int32

const (
	StateInitializing State = iota
	StateBinding
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateBinding:
		return "binding"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Notifier is the event sink the daemon feeds.
type Notifier interface {
	listener.Sink
	HealthSender
	Stats() (sent, failed int64)
}

// SessionStore records sensor runs.
type SessionStore interface {
	Open(s *model.SensorSession) error
	Close(id string, stoppedAt time.Time, reason string) error
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithSessionStore records each run in store.
func WithSessionStore(store SessionStore) Option {
	return func(d *Daemon) {
		d.sessions = store
	}
}

// WithSignals controls whether Run also stops on SIGINT/SIGTERM. It is on
// by default.
func WithSignals(enabled bool) Option {
	return func(d *Daemon) {
		d.handleSignals = enabled
	}
}

// Daemon manages the sensor lifecycle.
type Daemon struct {
	config        *util.Config
	notifier      Notifier
	heartbeat     *Heartbeat
	scheduler     *Scheduler
	sessions      SessionStore
	handleSignals bool

	dataDir string
	pidFile string

	state     atomic.Int32
	ran       atomic.Bool
	mu        sync.RWMutex
	handles   []*listener.Handle
	failed    map[int]string
	startTime time.Time
	session   *model.SensorSession
}

// New validates cfg and creates a daemon. A missing WEBHOOK_URL is
// reported here, before any socket is opened.
func New(cfg *util.Config, n Notifier, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errors.New("daemon: nil notifier")
	}

	d := &Daemon{
		config:        cfg,
		notifier:      n,
		heartbeat:     NewHeartbeat(n, cfg.HeartbeatInterval),
		scheduler:     NewScheduler(),
		handleSignals: true,
		failed:        make(map[int]string),
	}
	for _, opt := range opts {
		opt(d)
	}

	if cfg.DataDir != "" {
		if err := util.EnsureDir(cfg.DataDir); err != nil {
			util.Warn("Data dir %s unavailable, running without PID and status files: %v", cfg.DataDir, err)
		} else {
			d.dataDir = cfg.DataDir
			d.pidFile = filepath.Join(cfg.DataDir, pidFileName)
		}
	}

	d.setState(StateInitializing)
	return d, nil
}

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	return State(d.state.Load())
}

func (d *Daemon) setState(s State) {
	d.state.Store(int32(s))
	util.Debug("Daemon state: %s", s)
}

// Run binds every configured port, announces startup and blocks until ctx
// is cancelled or a termination signal arrives. It returns ErrNoListeners
// when nothing could be bound, and nil after a clean shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.ran.CompareAndSwap(false, true) {
		return errors.New("daemon already started")
	}

	var sigCh chan os.Signal
	if d.handleSignals {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	util.Info("Starting honeypot on ports: %s", joinPorts(d.config.Ports))
	util.Info("Webhook URL: %s", d.config.WebhookURL)
	util.Info("Host Name: %s", d.config.HostName)

	d.bind()

	d.mu.RLock()
	bound := len(d.handles)
	d.mu.RUnlock()

	if bound == 0 {
		d.setState(StateTerminated)
		util.Error("No listeners could be started. Exiting.")
		return ErrNoListeners
	}

	util.Info("Successfully started %d listeners", bound)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	d.startTime = time.Now()
	d.mu.Unlock()
	d.setState(StateRunning)

	d.registerJobs()
	d.scheduler.Start(runCtx)
	d.heartbeat.Announce()

	d.writePIDFile()
	d.openSession()
	d.writeStatus()
	d.watchListeners()

	util.Info("Honeypot is running. Press Ctrl+C to stop.")

	reason := "context cancelled"
	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		reason = fmt.Sprintf("signal %v", sig)
		util.Info("Received signal: %v", sig)
	}

	util.Info("Shutting down honeypot...")
	cancel()
	d.scheduler.Wait()
	d.shutdown(reason)
	return nil
}

// bind starts one listener per configured port, in order.
func (d *Daemon) bind() {
	d.setState(StateBinding)

	for _, port := range d.config.Ports {
		h, err := listener.Start(port, listener.Options{
			Address: d.config.BindAddress,
			Sink:    d.notifier,
		})
		if err != nil {
			util.Error("Failed to start listener on port %d: %v", port, err)
			metrics.ObserveBindFailure(port)
			d.mu.Lock()
			d.failed[port] = err.Error()
			d.mu.Unlock()
			continue
		}

		util.Info("Listening on port %d (%s)", h.Port(), util.ServiceName(port))
		d.mu.Lock()
		d.handles = append(d.handles, h)
		d.mu.Unlock()
	}

	metrics.ListenersActive.Set(float64(d.activeCount()))
}

func (d *Daemon) registerJobs() {
	d.scheduler.AddJob(d.heartbeat.Job())

	if d.dataDir != "" && d.config.StatusInterval > 0 {
		d.scheduler.AddJob(&Job{
			Name:     "status_file",
			Interval: d.config.StatusInterval,
			Run: func(ctx context.Context) error {
				return d.writeStatus()
			},
		})
	}
}

// watchListeners logs accept loops that end before shutdown. The process
// keeps running; heartbeats still report it alive.
func (d *Daemon) watchListeners() {
	d.mu.RLock()
	handles := append([]*listener.Handle(nil), d.handles...)
	d.mu.RUnlock()

	for _, h := range handles {
		go func(h *listener.Handle) {
			<-h.Done()
			if d.State() == StateTerminated {
				return
			}
			util.Warn("Listener on port %d is no longer accepting connections", h.Port())
			metrics.ListenersActive.Set(float64(d.activeCount()))
			d.writeStatus()
		}(h)
	}
}

func (d *Daemon) shutdown(reason string) {
	d.setState(StateTerminated)

	d.mu.RLock()
	handles := d.handles
	d.mu.RUnlock()

	for _, h := range handles {
		h.Close()
	}
	metrics.ListenersActive.Set(0)

	d.closeSession(reason)
	d.writeStatus()
	d.removePIDFile()

	util.Info("Honeypot stopped")
}

func (d *Daemon) activeCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, h := range d.handles {
		if h.Active() {
			n++
		}
	}
	return n
}

// Ports returns the bound and failed ports, each sorted.
func (d *Daemon) Ports() (bound, failed []int) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handles {
		bound = append(bound, h.Port())
	}
	for p := range d.failed {
		failed = append(failed, p)
	}
	sort.Ints(bound)
	sort.Ints(failed)
	return bound, failed
}

func (d *Daemon) openSession() {
	if d.sessions == nil {
		return
	}

	bound, failed := d.Ports()
	s := &model.SensorSession{
		ID:          uuid.NewString(),
		HostName:    d.config.HostName,
		StartedAt:   time.Now(),
		BoundPorts:  bound,
		FailedPorts: failed,
	}
	if err := d.sessions.Open(s); err != nil {
		util.Warn("Failed to record session: %v", err)
		return
	}

	d.mu.Lock()
	d.session = s
	d.mu.Unlock()
}

func (d *Daemon) closeSession(reason string) {
	d.mu.RLock()
	s := d.session
	d.mu.RUnlock()
	if d.sessions == nil || s == nil {
		return
	}

	if err := d.sessions.Close(s.ID, time.Now(), reason); err != nil {
		util.Warn("Failed to close session %s: %v", s.ID, err)
	}
}

// SessionID returns the ID of the current run, if recorded.
func (d *Daemon) SessionID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.session == nil {
		return ""
	}
	return d.session.ID
}

func (d *Daemon) writePIDFile() {
	if d.pidFile == "" {
		return
	}
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		util.Warn("Failed to write PID file: %v", err)
	}
}

func (d *Daemon) removePIDFile() {
	if d.pidFile != "" {
		os.Remove(d.pidFile)
	}
}

func (d *Daemon) writeStatus() error {
	if d.dataDir == "" {
		return nil
	}
	if err := WriteStatusFile(d.dataDir, d.GetStatus()); err != nil {
		util.Warn("Failed to write status file: %v", err)
		return err
	}
	return nil
}

// GetStatus returns a snapshot of the daemon.
func (d *Daemon) GetStatus() *DaemonStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	state := d.State()
	status := &DaemonStatus{
		Running:   state == StateRunning,
		State:     state.String(),
		PID:       os.Getpid(),
		HostName:  d.config.HostName,
		StartTime: d.startTime,
		Jobs:      d.scheduler.GetJobStatuses(),
	}
	if !d.startTime.IsZero() && status.Running {
		status.Uptime = time.Since(d.startTime)
	}
	if d.session != nil {
		status.SessionID = d.session.ID
	}

	for _, h := range d.handles {
		ls := ListenerStatus{
			Port:     h.Port(),
			Service:  util.ServiceName(h.Port()),
			Active:   h.Active(),
			Attempts: h.Attempts(),
		}
		status.Attempts += ls.Attempts
		status.Listeners = append(status.Listeners, ls)
	}
	for port, errText := range d.failed {
		status.Listeners = append(status.Listeners, ListenerStatus{
			Port:    port,
			Service: util.ServiceName(port),
			Error:   errText,
		})
	}
	sort.Slice(status.Listeners, func(i, j int) bool {
		return status.Listeners[i].Port < status.Listeners[j].Port
	})

	status.NotificationsSent, status.NotificationsFailed = d.notifier.Stats()
	status.Heartbeats = d.heartbeat.Count()
	status.LastHeartbeat = d.heartbeat.Last()

	return status
}

// GetConfig returns the configuration.
func (d *Daemon) GetConfig() *util.Config {
	return d.config
}

func joinPorts(ports []int) string {
	s := ""
	for i, p := range ports {
		if i > 0 {
			s += ", "
		}
		s += strconv.Itoa(p)
	}
	return s
}
