package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mmynk/extracker/internal/models"
)

// MessageResponse is the acknowledgement most account endpoints return.
type MessageResponse struct {
	Message string `json:"message"`
}

// CSRFToken fetches the anti-forgery token. The backend also sets it as a
// cookie, which the client's jar keeps for later WithCSRF calls.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: c.routes.CSRF}, nil)
	if err != nil {
		return "", err
	}
	if token := resp.Header.Get(HeaderCSRF); token != "" {
		return token, nil
	}
	if token := gjson.GetBytes(resp.Body, "csrfToken").String(); token != "" {
		return token, nil
	}
	return c.cookie(csrfCookie), nil
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the profile of the logged-in user plus the auth token.
type LoginResponse struct {
	models.UserProfile
	Token string `json:"token"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, csrf string, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	_, err := c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    c.routes.Login,
		Headers: WithCSRF,
		Creds:   Credentials{CSRFToken: csrf},
		JSON:    req,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Email == "" {
		out.Email = req.Email
	}
	return &out, nil
}

// SignupRequest is the registration form.
type SignupRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password1"`
	PasswordConfirmation string `json:"password2"`
	College              string `json:"college"`
	Semester             string `json:"semester"`
	DefaultPaymentMethod string `json:"default_payment_method"`
}

// Signup registers an unverified account. The backend answers 201 and
// emails a verification code.
func (c *Client) Signup(ctx context.Context, csrf string, req SignupRequest) (*MessageResponse, error) {
	var out MessageResponse
	_, err := c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    c.routes.Signup,
		Headers: WithCSRF,
		Creds:   Credentials{CSRFToken: csrf},
		JSON:    req,
		Expect:  []int{http.StatusCreated},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyCode confirms the emailed verification code.
func (c *Client) VerifyCode(ctx context.Context, csrf, email, code string) (*MessageResponse, error) {
	return c.postMessage(ctx, c.routes.VerifyCode, csrf, map[string]string{
		"email": strings.TrimSpace(email),
		"code":  strings.TrimSpace(code),
	})
}

// ResendCode asks the backend to email a new verification code.
func (c *Client) ResendCode(ctx context.Context, csrf, email string) (*MessageResponse, error) {
	return c.postMessage(ctx, c.routes.ResendCode, csrf, map[string]string{
		"email": strings.TrimSpace(email),
	})
}

// RequestPasswordReset asks the backend to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, csrf, email string) (*MessageResponse, error) {
	return c.postMessage(ctx, c.routes.ResetPassword, csrf, map[string]string{
		"email": strings.TrimSpace(email),
	})
}

// ConfirmPasswordReset sets a new password using the token from the link.
func (c *Client) ConfirmPasswordReset(ctx context.Context, csrf, token, password, confirmation string) (*MessageResponse, error) {
	return c.postMessage(ctx, path(c.routes.ResetConfirm, tokenParam(token)), csrf, map[string]string{
		"new_password":     password,
		"confirm_password": confirmation,
	})
}

func (c *Client) postMessage(ctx context.Context, p, csrf string, body any) (*MessageResponse, error) {
	var out MessageResponse
	_, err := c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    p,
		Headers: WithCSRF,
		Creds:   Credentials{CSRFToken: csrf},
		JSON:    body,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
