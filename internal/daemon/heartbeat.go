package daemon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/user/honeyport/internal/metrics"
	"github.com/user/honeyport/internal/model"
	"github.com/user/honeyport/internal/util"
)

// DefaultHeartbeatInterval is the period between "still alive" messages.
const DefaultHeartbeatInterval = time.Hour

// HealthSender delivers health_check notifications.
type HealthSender interface {
	HealthCheck(msg string)
}

// Heartbeat emits liveness notifications regardless of listener health.
type Heartbeat struct {
	sender   HealthSender
	interval time.Duration

	beats    atomic.Int64
	lastBeat atomic.Int64 // unix nanos
}

// NewHeartbeat creates a heartbeat with the given period.
func NewHeartbeat(sender HealthSender, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Heartbeat{
		sender:   sender,
		interval: interval,
	}
}

// Job returns the scheduler job that fires the periodic heartbeat.
func (h *Heartbeat) Job() *Job {
	return &Job{
		Name:     "heartbeat",
		Interval: h.interval,
		Run:      h.beat,
	}
}

// Announce sends the one-off startup health check.
func (h *Heartbeat) Announce() {
	util.Info("Sending startup health check")
	h.send(model.HealthStarted)
}

func (h *Heartbeat) beat(ctx context.Context) error {
	util.Info("Sending health check")
	h.send(model.HealthAlive)
	return nil
}

func (h *Heartbeat) send(msg string) {
	h.sender.HealthCheck(msg)
	h.beats.Add(1)
	h.lastBeat.Store(time.Now().UnixNano())
	metrics.Heartbeats.Inc()
}

// Count returns how many health checks have been issued.
func (h *Heartbeat) Count() int64 {
	return h.beats.Load()
}

// Last returns when the last health check was issued.
func (h *Heartbeat) Last() time.Time {
	n := h.lastBeat.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
