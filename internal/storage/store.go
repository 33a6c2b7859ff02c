// Package storage provides the client-side session store.
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/mmynk/extracker/internal/models"
)

// ErrEmptyToken is returned when saving a session without a token.
var ErrEmptyToken = errors.New("session token is empty")

// Store defines the interface for session persistence.
// This abstraction lets pages depend on the store instead of on ambient
// global state, and lets tests substitute an in-memory fake.
//
// There is no expiry, rotation or refresh: a token is valid until the
// backend rejects it.
type Store interface {
	// Save persists the token and the profile returned by login,
	// replacing any previous session.
	Save(ctx context.Context, token string, user *models.UserProfile) error

	// Load returns the current session. A zero Session means nobody is
	// logged in; that is not an error.
	Load(ctx context.Context) (models.Session, error)

	// Clear removes the session (logout).
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)

// Memory is a Store that keeps the session in process memory.
type Memory struct {
	mu      sync.Mutex
	session models.Session
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, token string, user *models.UserProfile) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = models.Session{Token: token, User: copyProfile(user)}
	return nil
}

func (m *Memory) Load(_ context.Context) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.Session{Token: m.session.Token, User: copyProfile(m.session.User)}, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = models.Session{}
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// copyProfile keeps callers from mutating the stored snapshot.
func copyProfile(u *models.UserProfile) *models.UserProfile {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
