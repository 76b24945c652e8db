package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionPayload_WireFormat(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.FixedZone("CET", 3600))
	attempt := NewConnectionAttempt(at, "203.0.113.7", 22)
	payload := NewConnectionPayload("sensor-1", attempt)

	b, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "connection_attempt",
		"timestamp": "2024-03-01T11:30:45.123Z",
		"host_name": "sensor-1",
		"data": {
			"timestamp": "2024-03-01T11:30:45.123Z",
			"sourceIP": "203.0.113.7",
			"targetPort": 22,
			"protocol": "TCP"
		}
	}`, string(b))
	assert.NoError(t, payload.Validate())
}

func TestHealthPayload_WireFormat(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	payload := NewHealthPayload("sensor-1", at, HealthAlive)

	b, err := json.Marshal(payload)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "health_check",
		"timestamp": "2024-03-01T00:00:00.000Z",
		"host_name": "sensor-1",
		"data": "still alive"
	}`, string(b))
}

func TestNotificationPayload_UnmarshalVariants(t *testing.T) {
	var conn NotificationPayload
	require.NoError(t, json.Unmarshal([]byte(`{"type":"connection_attempt","timestamp":"t","host_name":"h",
		"data":{"timestamp":"t","sourceIP":"10.0.0.1","targetPort":3306,"protocol":"TCP"}}`), &conn))
	attempt, ok := conn.Data.(ConnectionAttempt)
	require.True(t, ok)
	assert.Equal(t, 3306, attempt.TargetPort)
	assert.Equal(t, "10.0.0.1", attempt.SourceIP)

	var health NotificationPayload
	require.NoError(t, json.Unmarshal([]byte(`{"type":"health_check","timestamp":"t","host_name":"h","data":"honeypot started"}`), &health))
	assert.Equal(t, HealthStarted, health.Data)

	var bad NotificationPayload
	assert.Error(t, json.Unmarshal([]byte(`{"type":"health_check","data":{"x":1}}`), &bad))
}

func TestNotificationPayload_Validate(t *testing.T) {
	assert.Error(t, NotificationPayload{Type: EventHealthCheck, Data: 42}.Validate())
	assert.Error(t, NotificationPayload{Type: EventConnectionAttempt, Data: "x"}.Validate())
	assert.Error(t, NotificationPayload{Type: "other"}.Validate())
}

func TestSensorSession_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &SensorSession{StartedAt: start}
	assert.Equal(t, time.Hour, s.Duration(start.Add(time.Hour)))

	stop := start.Add(10 * time.Minute)
	s.StoppedAt = &stop
	assert.Equal(t, 10*time.Minute, s.Duration(start.Add(time.Hour)))
}
