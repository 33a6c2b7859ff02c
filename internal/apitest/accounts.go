package apitest

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/models"
)

// User seeds an account.
type User struct {
	Username      string
	Email         string
	Password      string
	College       string
	Semester      int
	PaymentMethod string

	// Unverified leaves the account waiting for its verification code.
	Unverified bool
}

// AddUser creates an account and returns its id.
func (b *Backend) AddUser(u User) (int64, error) {
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.users[u.Username] != nil {
		return 0, fmt.Errorf("username %q already exists", u.Username)
	}
	if b.userByEmailLocked(u.Email) != nil {
		return 0, fmt.Errorf("email %q already exists", u.Email)
	}
	usr := &user{
		id: b.id(),
		profile: models.UserProfile{
			Username:              u.Username,
			Email:                 u.Email,
			College:               u.College,
			Semester:              u.Semester,
			DefaultPaymentMethods: u.PaymentMethod,
		},
		hash:     hash,
		verified: !u.Unverified,
	}
	if u.Unverified {
		usr.code, usr.codeAt = newCode(), b.now()
	}
	b.users[u.Username] = usr
	return usr.id, nil
}

// Token issues a login token for username, as a successful login would.
func (b *Backend) Token(username string) (string, error) {
	b.mu.Lock()
	usr := b.users[username]
	b.mu.Unlock()
	if usr == nil {
		return "", fmt.Errorf("unknown user %q", username)
	}
	return b.jwt.Generate(usr.id, username)
}

// VerificationCode returns the code last emailed to email.
func (b *Backend) VerificationCode(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if usr := b.userByEmailLocked(email); usr != nil {
		return usr.code
	}
	return ""
}

// Verified reports whether the account of email is verified.
func (b *Backend) Verified(email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	usr := b.userByEmailLocked(email)
	return usr != nil && usr.verified
}

// ResetToken returns the token of the last reset link emailed to email.
func (b *Backend) ResetToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	usr := b.userByEmailLocked(email)
	if usr == nil {
		return ""
	}
	for token, username := range b.resets {
		if username == usr.profile.Username {
			return token
		}
	}
	return ""
}

func (b *Backend) userByEmailLocked(email string) *user {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	for _, usr := range b.users {
		if strings.ToLower(usr.profile.Email) == email {
			return usr
		}
	}
	return nil
}

// newCode returns a 6-digit verification code.
func newCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(fmt.Sprintf("failed to generate code: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

type signupRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password1            string `json:"password1"`
	Password2            string `json:"password2"`
	College              string `json:"college"`
	Semester             string `json:"semester"`
	DefaultPaymentMethod string `json:"default_payment_method"`
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var details []string
	if strings.TrimSpace(req.Username) == "" {
		details = append(details, "username: This field is required.")
	}
	if err := auth.ValidateEmail(req.Email); err != nil {
		details = append(details, "email: Enter a valid email address.")
	}
	if req.Password1 == "" {
		details = append(details, "password1: This field is required.")
	} else if req.Password1 != req.Password2 {
		details = append(details, "password2: The two password fields didn't match.")
	}
	semester, err := strconv.Atoi(strings.TrimSpace(req.Semester))
	if err != nil || semester < 1 || semester > 8 {
		details = append(details, "semester: Ensure this value is between 1 and 8.")
	}

	b.mu.Lock()
	if b.users[req.Username] != nil {
		details = append(details, "username: A user with that username already exists.")
	}
	if b.userByEmailLocked(req.Email) != nil {
		details = append(details, "email: A user with that email already exists.")
	}
	b.mu.Unlock()

	if len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "There was an error with your signup.",
			"details": details,
		})
		return
	}

	_, err = b.AddUser(User{
		Username:      strings.TrimSpace(req.Username),
		Email:         strings.TrimSpace(req.Email),
		Password:      req.Password1,
		College:       req.College,
		Semester:      semester,
		PaymentMethod: req.DefaultPaymentMethod,
		Unverified:    true,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "An error occurred during signup: "+err.Error())
		return
	}

	slog.Info("User signed up", "username", req.Username, "code", b.VerificationCode(req.Email))
	writeMessage(w, http.StatusCreated, "Sign up successful! Please check your email for the verification code.")
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	usr := b.userByEmailLocked(req.Email)
	var (
		hash     string
		verified bool
		profile  models.UserProfile
	)
	if usr != nil {
		hash, verified, profile = usr.hash, usr.verified, usr.profile
	}
	b.mu.Unlock()

	if usr == nil || auth.CheckPassword(hash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}
	if !verified {
		writeError(w, http.StatusUnauthorized, "Account is not verified. Please verify your email.")
		return
	}

	token, err := b.jwt.Generate(usr.id, profile.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"username":                profile.Username,
		"college":                 profile.College,
		"semester":                profile.Semester,
		"default_payment_methods": profile.DefaultPaymentMethods,
		"token":                   token,
	})
}

func (b *Backend) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Email and verification code are required.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	usr := b.userByEmailLocked(req.Email)
	switch {
	case usr == nil:
		writeError(w, http.StatusNotFound, "User with this email does not exist.")
	case usr.code == "" || usr.code != req.Code:
		writeError(w, http.StatusBadRequest, "Invalid verification code. Please try again.")
	case b.now().After(usr.codeAt.Add(codeLifetime)):
		delete(b.users, usr.profile.Username)
		writeError(w, http.StatusBadRequest, "Verification code has expired. Please sign up again.")
	default:
		usr.verified = true
		usr.code = ""
		writeMessage(w, http.StatusOK, "Verification successful. You are now verified.")
	}
}

func (b *Backend) handleResendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	usr := b.userByEmailLocked(req.Email)
	switch {
	case usr == nil:
		writeError(w, http.StatusNotFound, "User with this email does not exist.")
	case usr.verified:
		writeError(w, http.StatusBadRequest, "This account is already verified.")
	default:
		usr.code, usr.codeAt = newCode(), b.now()
		slog.Info("Verification code resent", "username", usr.profile.Username, "code", usr.code)
		writeMessage(w, http.StatusOK, "A new verification code has been sent to your email.")
	}
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	usr := b.userByEmailLocked(req.Email)
	if usr == nil {
		writeError(w, http.StatusNotFound, "User with this email does not exist.")
		return
	}
	for token, username := range b.resets {
		if username == usr.profile.Username {
			delete(b.resets, token)
		}
	}
	token := uuid.NewString()
	b.resets[token] = usr.profile.Username
	slog.Info("Password reset requested", "username", usr.profile.Username, "token", token)
	writeMessage(w, http.StatusOK, "Password reset link sent to your email.")
}

const msgResetLink = "Invalid or expired reset link."

func (b *Backend) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch err := auth.ValidatePasswordConfirmation(req.NewPassword, req.ConfirmPassword); {
	case errors.Is(err, auth.ErrPasswordMismatch):
		writeError(w, http.StatusBadRequest, "Passwords do not match.")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "New password is required.")
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token := mux.Vars(r)["token"]
	b.mu.Lock()
	defer b.mu.Unlock()
	username, ok := b.resets[token]
	usr := b.users[username]
	if !ok || usr == nil {
		writeError(w, http.StatusBadRequest, msgResetLink)
		return
	}
	usr.hash = hash
	delete(b.resets, token)
	writeMessage(w, http.StatusOK, "Password has been reset successfully.")
}
