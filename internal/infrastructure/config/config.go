package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for portalctl.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	State    StateConfig    `yaml:"state"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BackendConfig contains connection settings for the portal REST backend.
type BackendConfig struct {
	// BaseURL is the backend origin, e.g. "http://localhost:5000".
	// The API base path (/api) is appended by the client.
	BaseURL string `yaml:"base_url"`

	// WSURL is the WebSocket origin, e.g. "ws://localhost:5000".
	// If empty, it is derived from BaseURL (http→ws, https→wss).
	WSURL string `yaml:"ws_url"`

	// RequestTimeout is the per-request HTTP timeout in seconds.
	RequestTimeout int `yaml:"request_timeout"`
}

// StateConfig contains local state storage settings.
type StateConfig struct {
	// Path is the filesystem path to the SQLite state file holding the
	// session credential. Defaults to a file under the user config dir.
	Path string `yaml:"path"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
}

// RealtimeConfig contains push-channel settings.
type RealtimeConfig struct {
	// Path is the WebSocket endpoint path on the backend.
	Path string `yaml:"path"`

	// ReconnectDelay is the fixed delay before a reconnect attempt (seconds).
	ReconnectDelay int `yaml:"reconnect_delay"`

	// MaxAttempts bounds consecutive reconnect attempts. 0 means unlimited.
	MaxAttempts int `yaml:"max_attempts"`

	// MaxMessageSize is the largest inbound message accepted (bytes).
	MaxMessageSize int `yaml:"max_message_size"`

	// PingInterval is how often protocol pings are sent (seconds).
	PingInterval int `yaml:"ping_interval"`

	// PongTimeout is how long to wait for a pong before the read fails (seconds).
	PongTimeout int `yaml:"pong_timeout"`
}

// RefreshConfig contains periodic view refresh settings.
type RefreshConfig struct {
	// Interval is the fallback refresh period for watched views (seconds).
	// Push events trigger refreshes independently of this timer.
	Interval int `yaml:"interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PORTAL_SECTION_KEY
// For example: PORTAL_BACKEND_URL, PORTAL_STATE_PATH
//
// A missing file is not an error when optional is true (the CLI runs fine on
// defaults plus environment); any other read or parse failure is.
func Load(path string, optional bool) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err) && optional:
		// Fall through to defaults + env.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultPath returns the default config file location for the current user.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "portalctl.yaml"
	}
	return filepath.Join(dir, "portalctl", "config.yaml")
}

// defaultStatePath returns the default SQLite state file location.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "portalctl.db"
	}
	return filepath.Join(dir, "portalctl", "state.db")
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:5000",
			RequestTimeout: 30,
		},
		State: StateConfig{
			Path:        defaultStatePath(),
			BusyTimeout: 5,
		},
		Realtime: RealtimeConfig{
			Path:           "/ws",
			ReconnectDelay: 5,
			MaxAttempts:    0,
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Refresh: RefreshConfig{
			Interval: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PORTAL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Backend
	if v := os.Getenv("PORTAL_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("PORTAL_BACKEND_WS_URL"); v != "" {
		cfg.Backend.WSURL = v
	}
	if v := os.Getenv("PORTAL_BACKEND_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.RequestTimeout = n
		}
	}

	// State
	if v := os.Getenv("PORTAL_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}

	// Realtime
	if v := os.Getenv("PORTAL_REALTIME_RECONNECT_DELAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.ReconnectDelay = n
		}
	}
	if v := os.Getenv("PORTAL_REALTIME_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.MaxAttempts = n
		}
	}

	// Logging
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PORTAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	} else if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, "backend.base_url must start with http:// or https://")
	}

	if c.Backend.WSURL != "" && !strings.HasPrefix(c.Backend.WSURL, "ws://") && !strings.HasPrefix(c.Backend.WSURL, "wss://") {
		errs = append(errs, "backend.ws_url must start with ws:// or wss://")
	}

	if c.State.Path == "" {
		errs = append(errs, "state.path is required")
	}

	if c.Backend.RequestTimeout <= 0 {
		errs = append(errs, "backend.request_timeout must be positive")
	}

	if c.Realtime.ReconnectDelay <= 0 {
		errs = append(errs, "realtime.reconnect_delay must be positive")
	}
	if c.Realtime.MaxAttempts < 0 {
		errs = append(errs, "realtime.max_attempts must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// WebSocketURL returns the full realtime endpoint URL, deriving the scheme
// from the backend base URL when ws_url is not set explicitly.
func (c *Config) WebSocketURL() string {
	base := c.Backend.WSURL
	if base == "" {
		base = c.Backend.BaseURL
		base = strings.Replace(base, "https://", "wss://", 1)
		base = strings.Replace(base, "http://", "ws://", 1)
	}
	return strings.TrimSuffix(base, "/") + c.Realtime.Path
}

// GetRequestTimeout returns the HTTP request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeout) * time.Second
}

// GetReconnectDelay returns the realtime reconnect delay as a Duration.
func (c *Config) GetReconnectDelay() time.Duration {
	return time.Duration(c.Realtime.ReconnectDelay) * time.Second
}

// GetRefreshInterval returns the periodic refresh interval as a Duration.
func (c *Config) GetRefreshInterval() time.Duration {
	return time.Duration(c.Refresh.Interval) * time.Second
}
