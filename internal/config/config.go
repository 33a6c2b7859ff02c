// Package config loads the client configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/pkg/logging"
)

// DefaultBaseURL is where the backend runs in development.
const DefaultBaseURL = "http://localhost:8000/"

type Config struct {
	// Backend
	BaseURL string
	Scheme  auth.Scheme
	Routes  api.Routes
	Timeout time.Duration

	// Local session file
	SessionDB string

	// NavDelay scales the delay before post-success navigation. 0 navigates
	// immediately.
	NavDelay float64

	LogLevel slog.Level
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	scheme, err := auth.ParseScheme(os.Getenv("EXTRACKER_AUTH_SCHEME"))
	if err != nil {
		return nil, fmt.Errorf("EXTRACKER_AUTH_SCHEME: %w", err)
	}
	routes, err := api.ParseRoutes(os.Getenv("EXTRACKER_ROUTES"))
	if err != nil {
		return nil, fmt.Errorf("EXTRACKER_ROUTES: %w", err)
	}
	timeout, err := time.ParseDuration(getEnvDefault("EXTRACKER_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("EXTRACKER_TIMEOUT must be a positive duration, got %q", os.Getenv("EXTRACKER_TIMEOUT"))
	}
	navDelay, err := strconv.ParseFloat(getEnvDefault("EXTRACKER_NAV_DELAY", "1"), 64)
	if err != nil || navDelay < 0 {
		return nil, fmt.Errorf("EXTRACKER_NAV_DELAY must be a non-negative number, got %q", os.Getenv("EXTRACKER_NAV_DELAY"))
	}

	cfg := &Config{
		BaseURL:   getEnvDefault("EXTRACKER_BASE_URL", DefaultBaseURL),
		Scheme:    scheme,
		Routes:    routes,
		Timeout:   timeout,
		SessionDB: getEnvDefault("EXTRACKER_SESSION_DB", defaultSessionDB()),
		NavDelay:  navDelay,
		LogLevel:  logging.LevelFromEnv(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base URL must be absolute, got %q", c.BaseURL)
	}
	if c.SessionDB == "" {
		return fmt.Errorf("session database path is required")
	}
	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// defaultSessionDB is extracker/session.db under the user config directory,
// or under ./data when there is none.
func defaultSessionDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("data", "session.db")
	}
	return filepath.Join(dir, "extracker", "session.db")
}
