// Package metrics exposes Prometheus instrumentation for the sensor core.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/honeyport/internal/util"
)

var (
	// ConnectionAttempts counts accepted connections per monitored port.
	ConnectionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "honeyport",
			Name:      "connection_attempts_total",
			Help:      "Total number of inbound connection attempts accepted",
		},
		[]string{"port", "service"},
	)

	// Notifications counts webhook deliveries by payload type and result.
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "honeyport",
			Name:      "notifications_total",
			Help:      "Total number of webhook notifications by outcome",
		},
		[]string{"type", "result"},
	)

	// ListenersActive is the number of ports with a running accept loop.
	ListenersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "honeyport",
			Name:      "listeners_active",
			Help:      "Number of monitored ports currently accepting connections",
		},
	)

	// BindFailures counts ports that could not be bound.
	BindFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "honeyport",
			Name:      "listener_bind_failures_total",
			Help:      "Total number of failed listener binds",
		},
		[]string{"port"},
	)

	// Heartbeats counts health checks handed to the notifier.
	Heartbeats = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "honeyport",
			Name:      "heartbeats_total",
			Help:      "Total number of health check notifications issued",
		},
	)

	once sync.Once
)

// Delivery results.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Init registers all metrics with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(ConnectionAttempts)
		prometheus.DefaultRegisterer.Register(Notifications)
		prometheus.DefaultRegisterer.Register(ListenersActive)
		prometheus.DefaultRegisterer.Register(BindFailures)
		prometheus.DefaultRegisterer.Register(Heartbeats)
	})
}

// ObserveAttempt records one accepted connection on port.
func ObserveAttempt(port int) {
	ConnectionAttempts.WithLabelValues(strconv.Itoa(port), util.ServiceName(port)).Inc()
}

// ObserveNotification records the outcome of one delivery.
func ObserveNotification(eventType string, ok bool) {
	result := ResultSent
	if !ok {
		result = ResultFailed
	}
	Notifications.WithLabelValues(eventType, result).Inc()
}

// ObserveBindFailure records a port that failed to bind.
func ObserveBindFailure(port int) {
	BindFailures.WithLabelValues(strconv.Itoa(port)).Inc()
}
