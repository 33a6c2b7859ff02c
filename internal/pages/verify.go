package pages

import (
	"context"
	"io"
	"strings"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/nav"
)

// VerifyCodeForm is what the verification page collects.
type VerifyCodeForm struct {
	Email string
	Code  string
}

// VerifyCode confirms the code emailed at signup.
type VerifyCode struct {
	*Lifecycle
	form VerifyCodeForm
}

// NewVerifyCode creates the verification page.
func NewVerifyCode(d Deps) *VerifyCode {
	return &VerifyCode{Lifecycle: newLifecycle(d, nav.Context{})}
}

// Mount fetches the anti-forgery token.
func (p *VerifyCode) Mount(ctx context.Context) error {
	p.mount(ctx)
	return p.fetchCSRF()
}

// SetForm replaces the entered values.
func (p *VerifyCode) SetForm(f VerifyCodeForm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = f
}

// Form returns the entered values.
func (p *VerifyCode) Form() VerifyCodeForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Submit verifies the code. On success the login page opens after
// VerifyDelay.
func (p *VerifyCode) Submit() error {
	var form VerifyCodeForm
	var csrf string
	return Submit(p.Lifecycle, Submission[*api.MessageResponse]{
		Validate: func() error {
			form = p.form
			csrf = p.csrfLocked()
			verr := &ValidationError{}
			if err := auth.ValidateEmail(form.Email); err != nil {
				verr.add("email", message(err, ""))
			}
			if strings.TrimSpace(form.Code) == "" {
				verr.add("code", "Verification code is required")
			}
			return verr.orNil()
		},
		Call: func(ctx context.Context) (*api.MessageResponse, error) {
			return p.deps.API.VerifyCode(ctx, csrf, form.Email, form.Code)
		},
		OnSuccess: func(resp *api.MessageResponse) string {
			p.navigateAfterLocked(VerifyDelay, nav.Login(), nav.Context{})
			return resp.Message
		},
		Fallback: "Verification failed. Please try again.",
	})
}

// ResendCode opens the page that emails a new code.
func (p *VerifyCode) ResendCode() error {
	return p.Navigate(nav.Route{Page: nav.PageResendCode})
}

// Render writes the page.
func (p *VerifyCode) Render(w io.Writer) error {
	pr := &printer{w: w}
	renderHeader(pr, "Verify Code", p.View())
	pr.printf("Email: %s\n", orDash(p.Form().Email))
	return pr.err
}
