package pages

import "time"

// Delays before the navigation that follows a successful submission, so
// the success message can be read.
const (
	LoginDelay        = time.Second
	SignupDelay       = 1200 * time.Millisecond
	VerifyDelay       = time.Second
	ResendDelay       = 1200 * time.Millisecond
	ResetConfirmDelay = 1200 * time.Millisecond
	ExpenseDelay      = time.Second
)
