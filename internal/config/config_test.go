package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
)

func clearEnv(t *testing.T) {
	t.Helper()
	// Run from an empty directory so no .env is picked up.
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"EXTRACKER_BASE_URL", "EXTRACKER_AUTH_SCHEME", "EXTRACKER_ROUTES",
		"EXTRACKER_SESSION_DB", "EXTRACKER_TIMEOUT", "EXTRACKER_NAV_DELAY", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Scheme != auth.SchemeBearer {
		t.Errorf("Scheme = %q, want Bearer", cfg.Scheme)
	}
	if cfg.Routes != api.RootRoutes {
		t.Errorf("Routes = %+v, want RootRoutes", cfg.Routes)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.NavDelay != 1 {
		t.Errorf("NavDelay = %v, want 1", cfg.NavDelay)
	}
	if cfg.SessionDB == "" {
		t.Error("SessionDB is empty")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXTRACKER_BASE_URL", "https://expenses.example.com/")
	t.Setenv("EXTRACKER_AUTH_SCHEME", "token")
	t.Setenv("EXTRACKER_ROUTES", "v1")
	t.Setenv("EXTRACKER_SESSION_DB", "/tmp/s.db")
	t.Setenv("EXTRACKER_TIMEOUT", "5s")
	t.Setenv("EXTRACKER_NAV_DELAY", "0")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.BaseURL != "https://expenses.example.com/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Scheme != auth.SchemeToken {
		t.Errorf("Scheme = %q, want Token", cfg.Scheme)
	}
	if cfg.Routes != api.V1Routes {
		t.Errorf("Routes = %+v, want V1Routes", cfg.Routes)
	}
	if cfg.SessionDB != "/tmp/s.db" {
		t.Errorf("SessionDB = %q", cfg.SessionDB)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.NavDelay != 0 {
		t.Errorf("NavDelay = %v, want 0", cfg.NavDelay)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"EXTRACKER_AUTH_SCHEME", "basic"},
		{"EXTRACKER_ROUTES", "v2"},
		{"EXTRACKER_TIMEOUT", "soon"},
		{"EXTRACKER_TIMEOUT", "-1s"},
		{"EXTRACKER_NAV_DELAY", "-1"},
		{"EXTRACKER_BASE_URL", "localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}
