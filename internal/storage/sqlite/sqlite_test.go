package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/storage"
)

func TestSessionStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "extracker-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "session.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Load on empty store returns zero session", func(t *testing.T) {
		session, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if session.LoggedIn() {
			t.Error("Expected no token on a fresh store")
		}
		if session.User != nil {
			t.Errorf("Expected nil user, got %+v", session.User)
		}
	})

	t.Run("Save then Load round trips token and profile", func(t *testing.T) {
		user := &models.UserProfile{
			Username:              "alice",
			College:               "MIT",
			Semester:              3,
			DefaultPaymentMethods: "UPI",
		}
		if err := store.Save(ctx, "tok-1", user); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		session, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if session.Token != "tok-1" {
			t.Errorf("Token mismatch: got %s, want tok-1", session.Token)
		}
		if session.User == nil || *session.User != *user {
			t.Errorf("User mismatch: got %+v, want %+v", session.User, user)
		}
	})

	t.Run("Save replaces the previous session", func(t *testing.T) {
		if err := store.Save(ctx, "tok-2", nil); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		session, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if session.Token != "tok-2" {
			t.Errorf("Token mismatch: got %s, want tok-2", session.Token)
		}
		if session.User != nil {
			t.Errorf("Expected previous user to be gone, got %+v", session.User)
		}
	})

	t.Run("Save rejects empty token", func(t *testing.T) {
		if err := store.Save(ctx, "", nil); err != storage.ErrEmptyToken {
			t.Errorf("Expected ErrEmptyToken, got %v", err)
		}
	})

	t.Run("Clear removes everything", func(t *testing.T) {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		session, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if session.LoggedIn() {
			t.Error("Expected session to be cleared")
		}
	})
}

func TestSessionSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save(ctx, "persisted", &models.UserProfile{Username: "bob"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	session, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if session.Token != "persisted" || session.User == nil || session.User.Username != "bob" {
		t.Errorf("Unexpected session after reopen: %+v", session)
	}
}
