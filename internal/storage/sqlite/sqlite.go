// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/storage"
)

// Fixed keys of the session table.
const (
	keyToken = "token"
	keyUser  = "user"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using a local SQLite file.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// DefaultPath returns the session database location under the user's
// config directory (e.g. ~/.config/extracker/session.db).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "extracker", "session.db"), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored token and profile in one transaction.
func (s *Store) Save(ctx context.Context, token string, user *models.UserProfile) error {
	if token == "" {
		return storage.ErrEmptyToken
	}

	var userJSON []byte
	if user != nil {
		var err error
		userJSON, err = json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM session"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	now := time.Now().Unix()
	if err := put(ctx, tx, keyToken, token, now); err != nil {
		return err
	}
	if userJSON != nil {
		if err := put(ctx, tx, keyUser, string(userJSON), now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Load reads the stored session. Missing keys yield a zero Session.
func (s *Store) Load(ctx context.Context) (models.Session, error) {
	var session models.Session

	token, err := s.get(ctx, keyToken)
	if err != nil {
		return models.Session{}, err
	}
	session.Token = token

	raw, err := s.get(ctx, keyUser)
	if err != nil {
		return models.Session{}, err
	}
	if raw != "" {
		user := &models.UserProfile{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			return models.Session{}, fmt.Errorf("failed to decode stored user: %w", err)
		}
		session.User = user
	}

	return session, nil
}

// Clear deletes every stored key.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM session WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func put(ctx context.Context, tx *sql.Tx, key, value string, now int64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO session (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
