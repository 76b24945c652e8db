// Package util provides configuration, logging and port helpers for honeyport.
package util

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingWebhookURL is returned by Validate when no alert endpoint is set.
	ErrMissingWebhookURL = errors.New("WEBHOOK_URL environment variable is required")

	// ErrMissingHostName is returned by Validate when the sensor has no identity.
	ErrMissingHostName = errors.New("host name is empty: set HOST_NAME")
)

// Config holds all application configuration.
type Config struct {
	WebhookURL string `mapstructure:"webhook_url"`
	HostName   string `mapstructure:"host_name"`

	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// Listener settings
	BindAddress string `mapstructure:"bind_address"`
	Ports       []int  `mapstructure:"ports"`

	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	WebhookTimeout    time.Duration `mapstructure:"webhook_timeout"`
	StatusInterval    time.Duration `mapstructure:"status_interval"`

	// Local status server, disabled when empty.
	StatusAddr string `mapstructure:"status_addr"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".honeyport")

	return &Config{
		DataDir:  dataDir,
		LogLevel: "info",
		LogFile:  filepath.Join(dataDir, "honeyport.log"),

		BindAddress: "0.0.0.0",
		Ports:       MonitoredPorts(),

		HeartbeatInterval: time.Hour,
		WebhookTimeout:    10 * time.Second,
		StatusInterval:    30 * time.Second,
	}
}

// LoadConfig loads configuration from the global viper instance, which the
// CLI has already bound its flags to.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom loads configuration from defaults, an optional config.yaml
// and the environment. WEBHOOK_URL and HOST_NAME are read unprefixed; every
// other key may be overridden with HONEYPORT_<KEY>.
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(cfg.DataDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("honeyport")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.BindEnv("webhook_url", "WEBHOOK_URL")
	v.BindEnv("host_name", "HOST_NAME")

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("bind_address", cfg.BindAddress)
	v.SetDefault("ports", cfg.Ports)
	v.SetDefault("heartbeat_interval", cfg.HeartbeatInterval)
	v.SetDefault("webhook_timeout", cfg.WebhookTimeout)
	v.SetDefault("status_interval", cfg.StatusInterval)
	v.SetDefault("status_addr", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Every default is registered above; decoding into a zero Config keeps
	// list values such as ports from being merged into the defaults.
	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if loaded.HostName == "" {
		name, err := os.Hostname()
		if err != nil {
			Warn("HOST_NAME not set and hostname lookup failed: %v", err)
		} else {
			loaded.HostName = name
		}
	}

	return loaded, nil
}

// Validate checks the settings the sensor cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WebhookURL) == "" {
		return ErrMissingWebhookURL
	}

	u, err := url.ParseRequestURI(c.WebhookURL)
	if err != nil {
		return fmt.Errorf("invalid WEBHOOK_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid WEBHOOK_URL: unsupported scheme %q", u.Scheme)
	}

	if strings.TrimSpace(c.HostName) == "" {
		return ErrMissingHostName
	}

	if len(c.Ports) == 0 {
		return errors.New("no ports configured")
	}
	for _, p := range c.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("invalid port %d", p)
		}
	}

	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %s", c.HeartbeatInterval)
	}

	return nil
}

// EnsureDir ensures a directory exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
