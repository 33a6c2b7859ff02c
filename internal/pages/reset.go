package pages

import (
	"context"
	"io"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/nav"
)

// ResetForm is what the reset page collects. Email is used to request a
// link; the passwords are used to confirm one.
type ResetForm struct {
	Email           string
	NewPassword     string
	ConfirmPassword string
}

// ResetPassword requests a reset link (no token) or sets a new password
// with the token from the link.
type ResetPassword struct {
	*Lifecycle
	token string
	form  ResetForm
}

// NewResetPassword creates the reset page. An empty token selects the
// request-link mode.
func NewResetPassword(d Deps, token string) *ResetPassword {
	return &ResetPassword{Lifecycle: newLifecycle(d, nav.Context{}), token: token}
}

// Confirming reports whether the page sets a new password.
func (p *ResetPassword) Confirming() bool {
	return p.token != ""
}

// Mount fetches the anti-forgery token.
func (p *ResetPassword) Mount(ctx context.Context) error {
	p.mount(ctx)
	return p.fetchCSRF()
}

// SetForm replaces the entered values.
func (p *ResetPassword) SetForm(f ResetForm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = f
}

// Form returns the entered values.
func (p *ResetPassword) Form() ResetForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Submit requests the link or confirms the new password, depending on the
// mode. A confirmed reset opens the login page after ResetConfirmDelay.
func (p *ResetPassword) Submit() error {
	if p.Confirming() {
		return p.confirm()
	}
	return p.request()
}

func (p *ResetPassword) request() error {
	var email, csrf string
	return Submit(p.Lifecycle, Submission[*api.MessageResponse]{
		Validate: func() error {
			email = p.form.Email
			csrf = p.csrfLocked()
			if err := auth.ValidateEmail(email); err != nil {
				return &ValidationError{Fields: map[string]string{"email": message(err, "")}}
			}
			return nil
		},
		Call: func(ctx context.Context) (*api.MessageResponse, error) {
			return p.deps.API.RequestPasswordReset(ctx, csrf, email)
		},
		OnSuccess: func(resp *api.MessageResponse) string {
			return resp.Message
		},
		Fallback: "Something went wrong",
	})
}

func (p *ResetPassword) confirm() error {
	var form ResetForm
	var csrf string
	return Submit(p.Lifecycle, Submission[*api.MessageResponse]{
		Validate: func() error {
			form = p.form
			csrf = p.csrfLocked()
			return auth.ValidatePasswordConfirmation(form.NewPassword, form.ConfirmPassword)
		},
		Call: func(ctx context.Context) (*api.MessageResponse, error) {
			return p.deps.API.ConfirmPasswordReset(ctx, csrf, p.token, form.NewPassword, form.ConfirmPassword)
		},
		OnSuccess: func(resp *api.MessageResponse) string {
			p.navigateAfterLocked(ResetConfirmDelay, nav.Login(), nav.Context{})
			return resp.Message
		},
		Fallback: "Something went wrong",
	})
}

// Render writes the page.
func (p *ResetPassword) Render(w io.Writer) error {
	pr := &printer{w: w}
	if p.Confirming() {
		renderHeader(pr, "Set New Password", p.View())
		return pr.err
	}
	renderHeader(pr, "Reset Password", p.View())
	pr.printf("Email: %s\n", orDash(p.Form().Email))
	return pr.err
}
