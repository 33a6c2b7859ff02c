package pages

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/nav"
)

// LoginForm is what the login page collects.
type LoginForm struct {
	// Email is the identifier; the backend authenticates by email.
	Email    string
	Password string
}

// Login authenticates the user and starts a session.
type Login struct {
	*Lifecycle
	form LoginForm
}

// NewLogin creates the login page.
func NewLogin(d Deps) *Login {
	return &Login{Lifecycle: newLifecycle(d, nav.Context{})}
}

// Mount fetches the anti-forgery token.
func (p *Login) Mount(ctx context.Context) error {
	p.mount(ctx)
	return p.fetchCSRF()
}

// SetForm replaces the entered values.
func (p *Login) SetForm(f LoginForm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = f
}

// Form returns the entered values.
func (p *Login) Form() LoginForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Submit logs in. On success the token and profile are persisted and the
// home page opens after LoginDelay with the profile as context.
func (p *Login) Submit() error {
	var (
		req  api.LoginRequest
		csrf string
	)
	return Submit(p.Lifecycle, Submission[*api.LoginResponse]{
		Validate: func() error {
			req = api.LoginRequest{Email: strings.TrimSpace(p.form.Email), Password: p.form.Password}
			csrf = p.csrfLocked()

			verr := &ValidationError{}
			if err := auth.ValidateEmail(req.Email); err != nil {
				verr.add("email", message(err, ""))
			}
			if req.Password == "" {
				verr.add("password", message(auth.ErrPasswordRequired, ""))
			}
			return verr.orNil()
		},
		Call: func(ctx context.Context) (*api.LoginResponse, error) {
			resp, err := p.deps.API.Login(ctx, csrf, req)
			if err != nil {
				return nil, err
			}
			profile := resp.UserProfile
			if err := p.deps.Session.Save(ctx, resp.Token, &profile); err != nil {
				return nil, fmt.Errorf("failed to save session: %w", err)
			}
			return resp, nil
		},
		OnSuccess: func(resp *api.LoginResponse) string {
			profile := resp.UserProfile
			slog.Info("Logged in", "username", profile.Username)
			p.navigateAfterLocked(LoginDelay, nav.Home(), nav.Context{User: &profile})
			return "Login successful! Redirecting..."
		},
		Fallback: "Invalid credentials",
	})
}

// Render writes the page.
func (p *Login) Render(w io.Writer) error {
	v := p.View()
	form := p.Form()
	pr := &printer{w: w}
	renderHeader(pr, "Login", v)
	pr.printf("Email: %s\n", orDash(form.Email))
	return pr.err
}
