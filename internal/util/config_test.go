package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.WebhookURL = "https://hooks.example.com/alert"
	cfg.HostName = "sensor-1"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		errText string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing webhook", mutate: func(c *Config) { c.WebhookURL = "" }, wantErr: ErrMissingWebhookURL},
		{name: "blank webhook", mutate: func(c *Config) { c.WebhookURL = "   " }, wantErr: ErrMissingWebhookURL},
		{name: "missing host name", mutate: func(c *Config) { c.HostName = "" }, wantErr: ErrMissingHostName},
		{name: "bad scheme", mutate: func(c *Config) { c.WebhookURL = "ftp://example.com" }, errText: "unsupported scheme"},
		{name: "no ports", mutate: func(c *Config) { c.Ports = nil }, errText: "no ports"},
		{name: "port out of range", mutate: func(c *Config) { c.Ports = []int{70000} }, errText: "invalid port"},
		{name: "zero heartbeat", mutate: func(c *Config) { c.HeartbeatInterval = 0 }, errText: "heartbeat_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfigFrom_Environment(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "http://127.0.0.1:9999/hook")
	t.Setenv("HOST_NAME", "edge-sensor")
	t.Setenv("HONEYPORT_HEARTBEAT_INTERVAL", "5m")
	t.Setenv("HONEYPORT_BIND_ADDRESS", "127.0.0.1")

	cfg, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9999/hook", cfg.WebhookURL)
	assert.Equal(t, "edge-sensor", cfg.HostName)
	assert.Equal(t, 5*time.Minute, cfg.HeartbeatInterval)
	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, MonitoredPorts(), cfg.Ports)
}

func TestLoadConfigFrom_PortsFromEnvironment(t *testing.T) {
	t.Setenv("HONEYPORT_PORTS", "2222")

	cfg, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, []int{2222}, cfg.Ports)
}

func TestLoadConfigFrom_PortsFromEnvironmentList(t *testing.T) {
	t.Setenv("HONEYPORT_PORTS", "2222,2323")

	cfg, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, []int{2222, 2323}, cfg.Ports)
}

func TestLoadConfigFrom_PortsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ports: [2222]\nbind_address: 127.0.0.1\n"), 0644))

	v := viper.New()
	v.SetConfigFile(path)

	cfg, err := LoadConfigFrom(v)
	require.NoError(t, err)
	assert.Equal(t, []int{2222}, cfg.Ports)
	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, time.Hour, cfg.HeartbeatInterval, "unset keys keep their defaults")
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("HOST_NAME", "")

	cfg, err := LoadConfigFrom(viper.New())
	require.NoError(t, err)

	assert.Empty(t, cfg.WebhookURL)
	assert.NotEmpty(t, cfg.HostName, "host name falls back to the OS hostname")
	assert.Equal(t, time.Hour, cfg.HeartbeatInterval)
	assert.Equal(t, "0.0.0.0", cfg.BindAddress)
	assert.Equal(t, MonitoredPorts(), cfg.Ports)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	assert.NotEmpty(t, cfg.DataDir)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingWebhookURL)
}

func TestMonitoredPorts(t *testing.T) {
	ports := MonitoredPorts()
	require.Len(t, ports, 20)
	assert.Equal(t, 21, ports[0])
	assert.Equal(t, 8443, ports[len(ports)-1])

	ports[0] = 1
	assert.Equal(t, 21, MonitoredPorts()[0], "callers get a copy")

	assert.Equal(t, "ssh", ServiceName(22))
	assert.Equal(t, "unknown", ServiceName(4444))
}
