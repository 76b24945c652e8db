// Package notifier delivers sensor events to the alerting webhook.
//
// Delivery is fire-and-forget: Send marshals the payload, starts a goroutine
// that POSTs it, and returns. Failures are logged and counted, never retried
// and never reported to the caller.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/user/honeyport/internal/metrics"
	"github.com/user/honeyport/internal/model"
	"github.com/user/honeyport/internal/util"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 10 * time.Second

// maxDrain is how much of a response body is read before closing it.
const maxDrain = 64 << 10

// Notifier sends JSON payloads to a single endpoint.
type Notifier struct {
	url      string
	hostName string
	client   *http.Client
	now      func() time.Time

	wg     sync.WaitGroup
	sent   atomic.Int64
	failed atomic.Int64
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithTimeout sets the per-delivery timeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		if c != nil {
			n.client = c
		}
	}
}

// WithClock overrides the time source used for health check timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a notifier posting to url on behalf of hostName.
func New(url, hostName string, opts ...Option) *Notifier {
	n := &Notifier{
		url:      url,
		hostName: hostName,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// HostName returns the sensor identity stamped on every payload.
func (n *Notifier) HostName() string {
	return n.hostName
}

// Send dispatches payload in the background and returns immediately.
func (n *Notifier) Send(payload model.NotificationPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.failed.Add(1)
		metrics.ObserveNotification(string(payload.Type), false)
		util.Error("Failed to send webhook: %v", err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(payload.Type, body)
	}()
}

// ConnectionAttempt sends a connection_attempt event for a.
func (n *Notifier) ConnectionAttempt(a model.ConnectionAttempt) {
	n.Send(model.NewConnectionPayload(n.hostName, a))
}

// HealthCheck sends a health_check event carrying msg.
func (n *Notifier) HealthCheck(msg string) {
	n.Send(model.NewHealthPayload(n.hostName, n.now(), msg))
}

// Wait blocks until every delivery started so far has finished. The sensor
// itself never waits; this exists for tests and diagnostics.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Stats returns the number of successful and failed deliveries.
func (n *Notifier) Stats() (sent, failed int64) {
	return n.sent.Load(), n.failed.Load()
}

func (n *Notifier) deliver(eventType model.EventType, body []byte) {
	if err := n.post(body); err != nil {
		n.failed.Add(1)
		metrics.ObserveNotification(string(eventType), false)
		util.Error("Failed to send webhook: %v", err)
		return
	}

	n.sent.Add(1)
	metrics.ObserveNotification(string(eventType), true)
	util.Debug("Delivered %s notification", eventType)
}

func (n *Notifier) post(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}
