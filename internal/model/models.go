// Package model defines core data structures for honeyport.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampFormat is the ISO-8601 UTC layout used on the wire.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// ProtocolTCP is the only protocol the sensor listens on.
const ProtocolTCP = "TCP"

// EventType tags a NotificationPayload.
type EventType string

const (
	EventConnectionAttempt EventType = "connection_attempt"
	EventHealthCheck       EventType = "health_check"
)

// Health check messages.
const (
	HealthStarted = "honeypot started"
	HealthAlive   = "still alive"
)

// FormatTimestamp renders t in the wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ConnectionAttempt is one observed inbound connection.
type ConnectionAttempt struct {
	Timestamp  string `json:"timestamp"`
	SourceIP   string `json:"sourceIP"`
	TargetPort int    `json:"targetPort"`
	Protocol   string `json:"protocol"`
}

// NewConnectionAttempt builds an attempt observed at t.
func NewConnectionAttempt(t time.Time, sourceIP string, port int) ConnectionAttempt {
	return ConnectionAttempt{
		Timestamp:  FormatTimestamp(t),
		SourceIP:   sourceIP,
		TargetPort: port,
		Protocol:   ProtocolTCP,
	}
}

// NotificationPayload is the envelope POSTed to the webhook. Data holds a
// ConnectionAttempt for connection_attempt events and a string for
// health_check events.
type NotificationPayload struct {
	Type      EventType   `json:"type"`
	Timestamp string      `json:"timestamp"`
	HostName  string      `json:"host_name"`
	Data      interface{} `json:"data"`
}

// NewConnectionPayload wraps an attempt for delivery.
func NewConnectionPayload(hostName string, attempt ConnectionAttempt) NotificationPayload {
	return NotificationPayload{
		Type:      EventConnectionAttempt,
		Timestamp: attempt.Timestamp,
		HostName:  hostName,
		Data:      attempt,
	}
}

// NewHealthPayload builds a health_check payload carrying msg.
func NewHealthPayload(hostName string, t time.Time, msg string) NotificationPayload {
	return NotificationPayload{
		Type:      EventHealthCheck,
		Timestamp: FormatTimestamp(t),
		HostName:  hostName,
		Data:      msg,
	}
}

// Validate reports whether the Type tag matches the Data variant.
func (p NotificationPayload) Validate() error {
	switch p.Type {
	case EventConnectionAttempt:
		if _, ok := p.Data.(ConnectionAttempt); !ok {
			return fmt.Errorf("connection_attempt payload carries %T", p.Data)
		}
	case EventHealthCheck:
		if _, ok := p.Data.(string); !ok {
			return fmt.Errorf("health_check payload carries %T", p.Data)
		}
	default:
		return fmt.Errorf("unknown payload type %q", p.Type)
	}
	return nil
}

// UnmarshalJSON decodes Data into the variant named by Type.
func (p *NotificationPayload) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type      EventType       `json:"type"`
		Timestamp string          `json:"timestamp"`
		HostName  string          `json:"host_name"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	p.Type = raw.Type
	p.Timestamp = raw.Timestamp
	p.HostName = raw.HostName
	p.Data = nil

	if len(raw.Data) == 0 {
		return nil
	}

	switch raw.Type {
	case EventConnectionAttempt:
		var a ConnectionAttempt
		if err := json.Unmarshal(raw.Data, &a); err != nil {
			return fmt.Errorf("failed to decode connection attempt: %w", err)
		}
		p.Data = a
	case EventHealthCheck:
		var s string
		if err := json.Unmarshal(raw.Data, &s); err != nil {
			return fmt.Errorf("failed to decode health message: %w", err)
		}
		p.Data = s
	default:
		var v interface{}
		if err := json.Unmarshal(raw.Data, &v); err != nil {
			return err
		}
		p.Data = v
	}
	return nil
}

// SensorSession records one run of the sensor process. It never holds
// connection events.
type SensorSession struct {
	ID          string     `json:"id"`
	HostName    string     `json:"host_name"`
	StartedAt   time.Time  `json:"started_at"`
	StoppedAt   *time.Time `json:"stopped_at,omitempty"`
	BoundPorts  []int      `json:"bound_ports"`
	FailedPorts []int      `json:"failed_ports"`
	StopReason  string     `json:"stop_reason,omitempty"`
}

// Duration returns how long the session ran, or has been running.
func (s *SensorSession) Duration(now time.Time) time.Duration {
	if s.StoppedAt != nil {
		return s.StoppedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}
