package pages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/apitest"
	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/nav"
	"github.com/mmynk/extracker/internal/storage"
)

type harness struct {
	backend *apitest.Backend
	session *storage.Memory
	sched   *nav.ManualScheduler
	nav     *nav.Recorder
	deps    Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend, srv := apitest.Start(t)
	client, err := api.New(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	h := &harness{
		backend: backend,
		session: storage.NewMemory(),
		sched:   &nav.ManualScheduler{},
		nav:     &nav.Recorder{},
	}
	h.deps = Deps{
		API:        client,
		Session:    h.session,
		Nav:        h.nav,
		Scheduler:  h.sched,
		DelayScale: 1,
	}
	return h
}

// user creates a verified account in the UBC college.
func (h *harness) user(t *testing.T, username string) {
	t.Helper()
	_, err := h.backend.AddUser(apitest.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "pw-" + username,
		College:  "UBC",
		Semester: 2,
	})
	require.NoError(t, err)
}

// loginAs stores a session for username and returns its navigation context.
func (h *harness) loginAs(t *testing.T, username string) nav.Context {
	t.Helper()
	token, err := h.backend.Token(username)
	require.NoError(t, err)
	profile := &models.UserProfile{Username: username, College: "UBC"}
	require.NoError(t, h.session.Save(context.Background(), token, profile))
	return nav.Context{User: profile}
}

func mount(t *testing.T, p Page) {
	t.Helper()
	require.NoError(t, p.Mount(context.Background()))
	t.Cleanup(p.Unmount)
}
