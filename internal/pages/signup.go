package pages

import (
	"context"
	"io"
	"strings"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/nav"
)

// SignupForm is what the signup page collects.
type SignupForm struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
	College              string
	Semester             string
	DefaultPaymentMethod string
}

// Signup registers a new, unverified account.
type Signup struct {
	*Lifecycle
	form SignupForm
}

// NewSignup creates the signup page.
func NewSignup(d Deps) *Signup {
	return &Signup{Lifecycle: newLifecycle(d, nav.Context{})}
}

// Mount fetches the anti-forgery token.
func (p *Signup) Mount(ctx context.Context) error {
	p.mount(ctx)
	return p.fetchCSRF()
}

// SetForm replaces the entered values.
func (p *Signup) SetForm(f SignupForm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = f
}

// Form returns the entered values.
func (p *Signup) Form() SignupForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Submit registers the account. Mismatched passwords and blank fields are
// rejected without contacting the backend. On success the verification page opens after
// SignupDelay.
func (p *Signup) Submit() error {
	var (
		req  api.SignupRequest
		csrf string
	)
	return Submit(p.Lifecycle, Submission[*api.MessageResponse]{
		Validate: func() error {
			f := p.form
			if f.Password != f.PasswordConfirmation {
				return auth.ErrPasswordMismatch
			}
			verr := &ValidationError{}
			if strings.TrimSpace(f.Username) == "" {
				verr.add("username", "Username is required")
			}
			if err := auth.ValidateEmail(f.Email); err != nil {
				verr.add("email", message(err, ""))
			}
			if f.Password == "" {
				verr.add("password", message(auth.ErrPasswordRequired, ""))
			}
			if strings.TrimSpace(f.College) == "" {
				verr.add("college", "College is required")
			}
			if strings.TrimSpace(f.Semester) == "" {
				verr.add("semester", "Semester is required")
			}
			if strings.TrimSpace(f.DefaultPaymentMethod) == "" {
				verr.add("default_payment_method", "Default payment method is required")
			}
			if err := verr.orNil(); err != nil {
				return err
			}

			req = api.SignupRequest{
				Username:             strings.TrimSpace(f.Username),
				Email:                strings.TrimSpace(f.Email),
				Password:             f.Password,
				PasswordConfirmation: f.PasswordConfirmation,
				College:              strings.TrimSpace(f.College),
				Semester:             strings.TrimSpace(f.Semester),
				DefaultPaymentMethod: strings.TrimSpace(f.DefaultPaymentMethod),
			}
			csrf = p.csrfLocked()
			return nil
		},
		Call: func(ctx context.Context) (*api.MessageResponse, error) {
			return p.deps.API.Signup(ctx, csrf, req)
		},
		OnSuccess: func(*api.MessageResponse) string {
			p.navigateAfterLocked(SignupDelay, nav.Route{Page: nav.PageVerifyCode}, nav.Context{})
			return "Sign up successful! Redirecting to verification page..."
		},
		Fallback: "Signup failed. Please check your details.",
	})
}

// Render writes the page.
func (p *Signup) Render(w io.Writer) error {
	v := p.View()
	form := p.Form()
	pr := &printer{w: w}
	renderHeader(pr, "Sign Up", v)
	pr.printf("Username: %s\n", orDash(form.Username))
	pr.printf("Email: %s\n", orDash(form.Email))
	pr.printf("College: %s\n", orDash(form.College))
	pr.printf("Semester: %s\n", orDash(form.Semester))
	pr.printf("Payment method: %s\n", orDash(form.DefaultPaymentMethod))
	return pr.err
}
