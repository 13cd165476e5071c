package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "http://localhost:5000" {
		t.Errorf("BaseURL = %q, want default", cfg.Backend.BaseURL)
	}
	if cfg.Realtime.ReconnectDelay != 5 {
		t.Errorf("ReconnectDelay = %d, want 5", cfg.Realtime.ReconnectDelay)
	}
	if cfg.Realtime.MaxAttempts != 0 {
		t.Errorf("MaxAttempts = %d, want 0 (unlimited)", cfg.Realtime.MaxAttempts)
	}
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err == nil {
		t.Fatal("expected error for missing required config file")
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfigFile(t, `
backend:
  base_url: "https://portal.example.com"
  request_timeout: 10
realtime:
  reconnect_delay: 3
  max_attempts: 4
logging:
  level: "debug"
`)

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://portal.example.com" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Realtime.ReconnectDelay != 3 {
		t.Errorf("ReconnectDelay = %d, want 3", cfg.Realtime.ReconnectDelay)
	}
	if cfg.Realtime.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", cfg.Realtime.MaxAttempts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	// Unset sections keep defaults.
	if cfg.State.BusyTimeout != 5 {
		t.Errorf("BusyTimeout = %d, want default 5", cfg.State.BusyTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
backend:
  base_url: "http://file.example.com"
`)

	t.Setenv("PORTAL_BACKEND_URL", "http://env.example.com")
	t.Setenv("PORTAL_REALTIME_MAX_ATTEMPTS", "7")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "http://env.example.com" {
		t.Errorf("BaseURL = %q, env should override file", cfg.Backend.BaseURL)
	}
	if cfg.Realtime.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", cfg.Realtime.MaxAttempts)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "backend: [not a mapping")
	if _, err := Load(path, false); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(_ *Config) {},
		},
		{
			name:    "empty base URL",
			mutate:  func(c *Config) { c.Backend.BaseURL = "" },
			wantErr: "backend.base_url is required",
		},
		{
			name:    "bad base URL scheme",
			mutate:  func(c *Config) { c.Backend.BaseURL = "ftp://example.com" },
			wantErr: "must start with http",
		},
		{
			name:    "bad ws URL scheme",
			mutate:  func(c *Config) { c.Backend.WSURL = "http://example.com" },
			wantErr: "ws_url must start with ws",
		},
		{
			name:    "empty state path",
			mutate:  func(c *Config) { c.State.Path = "" },
			wantErr: "state.path is required",
		},
		{
			name:    "zero reconnect delay",
			mutate:  func(c *Config) { c.Realtime.ReconnectDelay = 0 },
			wantErr: "reconnect_delay must be positive",
		},
		{
			name:    "negative max attempts",
			mutate:  func(c *Config) { c.Realtime.MaxAttempts = -1 },
			wantErr: "max_attempts must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wsURL   string
		want    string
	}{
		{
			name:    "derived from http",
			baseURL: "http://localhost:5000",
			want:    "ws://localhost:5000/ws",
		},
		{
			name:    "derived from https",
			baseURL: "https://portal.example.com/",
			want:    "wss://portal.example.com/ws",
		},
		{
			name:    "explicit ws URL wins",
			baseURL: "https://portal.example.com",
			wsURL:   "wss://push.example.com",
			want:    "wss://push.example.com/ws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Backend.BaseURL = tt.baseURL
			cfg.Backend.WSURL = tt.wsURL
			if got := cfg.WebSocketURL(); got != tt.want {
				t.Errorf("WebSocketURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
