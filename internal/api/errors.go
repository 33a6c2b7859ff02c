package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoSession is returned before any network I/O when a call needs an
	// auth token and none is available.
	ErrNoSession = errors.New("no session token")

	// ErrNoUser is returned before any network I/O when a call needs the
	// acting username and none is available.
	ErrNoUser = errors.New("no acting user")
)

const (
	// NoSessionMessage is shown for ErrNoSession.
	NoSessionMessage = "Authorization token not found."

	// NoUserMessage is shown for ErrNoUser.
	NoUserMessage = "User details are missing. Please log in again."
)

// TransportMessage is shown when the backend could not be reached.
const TransportMessage = "No response from the server. Please try again."

// Kind classifies a failed call.
type Kind int

const (
	// KindTransport: no response (connection refused, timeout, cancelled).
	KindTransport Kind = iota + 1
	// KindBackend: the backend answered with an unexpected status.
	KindBackend
	// KindDecode: the backend answered but the payload could not be read.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the normalized failure of a backend call.
type Error struct {
	Kind   Kind
	Method string
	Path   string
	Status int

	// Message is the backend's "error" field, verbatim. Empty when the
	// backend did not provide one.
	Message string

	// Details are secondary messages: a "details" field, or field errors
	// of a rejected form ("amount: A valid number is required.").
	Details []string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case KindDecode:
		return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the text a page shows for err: the backend's own message
// when there is one, a retry hint for transport failures, the session
// sentinels' text, and fallback otherwise.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Kind == KindTransport:
			return TransportMessage
		case apiErr.Message != "":
			return apiErr.Message
		}
		return fallback
	}
	switch {
	case errors.Is(err, ErrNoSession):
		return NoSessionMessage
	case errors.Is(err, ErrNoUser):
		return NoUserMessage
	}
	return fallback
}

// Details returns the secondary messages of err, if it is an *Error.
func Details(err error) []string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Details
	}
	return nil
}

// StatusCode returns the HTTP status of err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// parseErrorBody extracts the backend message and details from a JSON
// error payload. Non-JSON bodies (HTML error pages) yield nothing.
func parseErrorBody(body []byte) (string, []string) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", nil
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return "", nil
	}

	var message string
	if e := res.Get("error"); e.Exists() {
		message = flatten(e)
	}

	var details []string
	if d := res.Get("details"); d.Exists() {
		if d.IsArray() {
			for _, v := range d.Array() {
				details = append(details, v.String())
			}
		} else {
			details = append(details, flatten(d))
		}
	}

	if message == "" && len(details) == 0 {
		details = fieldErrors(res)
	}

	return message, details
}

// fieldErrors turns a serializer error object ({"amount": ["..."]}) into
// "field: message" lines, sorted by field.
func fieldErrors(res gjson.Result) []string {
	var out []string
	res.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "message" {
			return true
		}
		out = append(out, key.String()+": "+flatten(value))
		return true
	})
	sort.Strings(out)
	return out
}

func flatten(v gjson.Result) string {
	if !v.IsArray() {
		return v.String()
	}
	parts := make([]string, 0, len(v.Array()))
	for _, item := range v.Array() {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, " ")
}
