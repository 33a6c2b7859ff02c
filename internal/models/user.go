package models

// UserProfile is the last-known profile of the logged-in user.
//
// It is an immutable snapshot: it is returned by login, passed between pages
// as navigation context and never re-fetched, so it can go stale relative to
// the backend.
type UserProfile struct {
	// Username identifies the user to every authenticated endpoint.
	Username string `json:"username"`

	// Email is only known when the profile was built from a form.
	Email string `json:"email,omitempty"`

	College string `json:"college,omitempty"`

	// Semester is 1-8 on the backend; 0 means unknown.
	Semester int `json:"semester,omitempty"`

	DefaultPaymentMethods string `json:"default_payment_methods,omitempty"`
}

// Session is what the client persists between runs.
// A zero Session (empty token, nil user) means nobody is logged in.
type Session struct {
	Token string
	User  *UserProfile
}

// LoggedIn reports whether the session holds a token.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}
