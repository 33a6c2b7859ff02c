package pages

import (
	"context"
	"io"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/nav"
)

// ResendCode asks the backend to email a new verification code.
type ResendCode struct {
	*Lifecycle
	email string
}

// NewResendCode creates the resend page.
func NewResendCode(d Deps) *ResendCode {
	return &ResendCode{Lifecycle: newLifecycle(d, nav.Context{})}
}

// Mount fetches the anti-forgery token.
func (p *ResendCode) Mount(ctx context.Context) error {
	p.mount(ctx)
	return p.fetchCSRF()
}

// SetEmail replaces the entered address.
func (p *ResendCode) SetEmail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.email = email
}

// Email returns the entered address.
func (p *ResendCode) Email() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.email
}

// Submit requests the code. On success the verification page opens after
// ResendDelay.
func (p *ResendCode) Submit() error {
	var email, csrf string
	return Submit(p.Lifecycle, Submission[*api.MessageResponse]{
		Validate: func() error {
			email = p.email
			csrf = p.csrfLocked()
			if err := auth.ValidateEmail(email); err != nil {
				return &ValidationError{Fields: map[string]string{"email": message(err, "")}}
			}
			return nil
		},
		Call: func(ctx context.Context) (*api.MessageResponse, error) {
			return p.deps.API.ResendCode(ctx, csrf, email)
		},
		OnSuccess: func(resp *api.MessageResponse) string {
			p.navigateAfterLocked(ResendDelay, nav.Route{Page: nav.PageVerifyCode}, nav.Context{})
			return resp.Message
		},
		Fallback: "An error occurred. Please try again.",
	})
}

// Render writes the page.
func (p *ResendCode) Render(w io.Writer) error {
	pr := &printer{w: w}
	renderHeader(pr, "Resend Verification Code", p.View())
	pr.printf("Email: %s\n", orDash(p.Email()))
	return pr.err
}
