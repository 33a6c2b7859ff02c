// Package auth holds the authentication pieces shared by the client and the
// reference backend: the Authorization header scheme, JWT handling and
// credential checks.
package auth

import (
	"fmt"
	"strings"
)

// Scheme is the Authorization header scheme used for authenticated calls.
type Scheme string

const (
	// SchemeBearer sends "Authorization: Bearer <token>". This is the contract.
	SchemeBearer Scheme = "Bearer"

	// SchemeToken sends "Authorization: Token <token>".
	//
	// Deprecated: only older backend revisions accept it.
	SchemeToken Scheme = "Token"
)

// ParseScheme maps a configuration value to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bearer":
		return SchemeBearer, nil
	case "token", "legacy":
		return SchemeToken, nil
	default:
		return "", fmt.Errorf("unknown auth scheme %q", s)
	}
}

// Header returns the Authorization header value for token.
func (s Scheme) Header(token string) string {
	return string(s) + " " + token
}

// ParseHeader splits an Authorization header into scheme and token.
// It accepts both schemes.
func ParseHeader(value string) (Scheme, string, bool) {
	parts := strings.Split(value, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	switch Scheme(parts[0]) {
	case SchemeBearer, SchemeToken:
		return Scheme(parts[0]), parts[1], true
	}
	return "", "", false
}
