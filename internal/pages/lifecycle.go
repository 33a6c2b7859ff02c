// Package pages implements the page controllers of the client.
//
// A page is mounted with Mount, driven through its methods (form setters,
// Submit and friends), rendered with Render and left with Unmount. All
// pages share one request lifecycle:
//
//	idle -> loading -> success(message) | failed(error)
//
// Results that arrive after the page was unmounted are dropped, a second
// submission while one is in flight is refused with ErrBusy, and a failure
// never clears what the user entered.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/nav"
	"github.com/mmynk/extracker/internal/storage"
)

var (
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrNotMounted is returned when the page is not mounted, or was
	// unmounted before a result arrived.
	ErrNotMounted = errors.New("page is not mounted")
)

// csrfFailed is shown when the anti-forgery token could not be fetched.
// The page stays usable; the cookie set by the backend may still work.
const csrfFailed = "Failed to fetch CSRF token."

// localMessages is the text shown for errors raised before any request.
var localMessages = []struct {
	err  error
	text string
}{
	{auth.ErrEmailRequired, "Email is required"},
	{auth.ErrEmailInvalid, "Email is invalid"},
	{auth.ErrPasswordRequired, "Password is required"},
	{auth.ErrPasswordMismatch, "Passwords do not match."},
	{ErrNotCreator, "Only the group creator can add members"},
	{ErrSettlementNotFound, "Settlement not found."},
	{ErrAlreadyCompleted, "Settlement is already completed."},
	{ErrBusy, "Please wait for the current request to finish."},
}

// message returns the display text for err, falling back to fallback.
func message(err error, fallback string) string {
	for _, m := range localMessages {
		if errors.Is(err, m.err) {
			return m.text
		}
	}
	return api.Message(err, fallback)
}

// Status is the state of a page's current request.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is what a page shows about its last request.
type View struct {
	Status  Status
	Message string
	Error   string

	// Details are secondary messages from the backend.
	Details []string

	// FieldErrors are local validation failures keyed by form field.
	FieldErrors map[string]string
}

// Deps are the collaborators every page needs.
type Deps struct {
	API       *api.Client
	Session   storage.Store
	Nav       nav.Navigator
	Scheduler nav.Scheduler

	// DelayScale multiplies the delay before post-success navigation.
	// Zero navigates as soon as the scheduler runs.
	DelayScale float64

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) delay(base time.Duration) time.Duration {
	if d.DelayScale <= 0 {
		return 0
	}
	return time.Duration(float64(base) * d.DelayScale)
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

var defaultScheduler = &nav.TimerScheduler{}

func (d Deps) scheduler() nav.Scheduler {
	if d.Scheduler != nil {
		return d.Scheduler
	}
	return defaultScheduler
}

// ValidationError collects local form errors. No request is made when
// validation fails.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Collect(maps.Keys(e.Fields))
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, " ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// orNil returns e when it holds any field error.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Lifecycle is the state shared by every page: mount generation, view,
// in-flight flag and pending navigation. Pages embed it and guard their own
// fields with its mutex.
type Lifecycle struct {
	deps Deps
	nav  nav.Context

	mu     sync.Mutex
	view   View
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
	busy   bool
	timer  nav.Timer
	csrf   string
}

func newLifecycle(d Deps, nc nav.Context) *Lifecycle {
	return &Lifecycle{deps: d, nav: nc}
}

// View returns a copy of the current view.
func (l *Lifecycle) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.view
	v.Details = slices.Clone(v.Details)
	v.FieldErrors = maps.Clone(v.FieldErrors)
	return v
}

// Alive reports whether the page is mounted.
func (l *Lifecycle) Alive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// User returns the profile the page was opened with.
func (l *Lifecycle) User() *models.UserProfile {
	return l.nav.User
}

// Unmount cancels in-flight requests and pending navigation. Results that
// arrive afterwards are dropped.
func (l *Lifecycle) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Lifecycle) stopLocked() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.busy = false
}

// mount starts a new generation. Anything still in flight from a previous
// mount is dropped when it returns.
func (l *Lifecycle) mount(parent context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.ctx, l.cancel = context.WithCancel(parent)
	l.gen++
	l.view = View{}
}

// aliveLocked reports whether generation gen is still the mounted one.
func (l *Lifecycle) aliveLocked(gen uint64) bool {
	return l.cancel != nil && l.gen == gen
}

// Submission describes one user action.
type Submission[T any] struct {
	// Validate runs under the page lock before anything is sent. It is the
	// place to snapshot form fields for Call. A non-nil error fails the
	// view and no request is made.
	Validate func() error

	// Call performs the request(s) without holding the lock.
	Call func(ctx context.Context) (T, error)

	// OnSuccess runs under the page lock with Call's result and returns the
	// success message.
	OnSuccess func(T) string

	// Fallback is shown when a failed call carries no backend message.
	Fallback string
}

// Submit runs s through the page lifecycle.
func Submit[T any](l *Lifecycle, s Submission[T]) error {
	return run(l, s, StatusSuccess)
}

// load is Submit for mount-time fetches: success leaves the page idle.
func load[T any](l *Lifecycle, call func(ctx context.Context) (T, error), apply func(T), fallback string) error {
	return run(l, Submission[T]{
		Call: call,
		OnSuccess: func(v T) string {
			apply(v)
			return ""
		},
		Fallback: fallback,
	}, StatusIdle)
}

func run[T any](l *Lifecycle, s Submission[T], done Status) error {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return ErrNotMounted
	}
	if l.busy {
		l.mu.Unlock()
		return ErrBusy
	}
	if s.Validate != nil {
		if err := s.Validate(); err != nil {
			l.view = invalidView(err)
			l.mu.Unlock()
			return err
		}
	}
	l.busy = true
	l.view = View{Status: StatusLoading}
	ctx, gen := l.ctx, l.gen
	l.mu.Unlock()

	res, err := s.Call(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.aliveLocked(gen) {
		slog.Debug("Dropping result of unmounted page", "error", err)
		return ErrNotMounted
	}
	l.busy = false
	if err != nil {
		l.view = failedView(err, s.Fallback)
		slog.Debug("Page request failed", "error", err)
		return err
	}
	var msg string
	if s.OnSuccess != nil {
		msg = s.OnSuccess(res)
	}
	l.view = View{Status: done, Message: msg}
	return nil
}

func invalidView(err error) View {
	v := View{Status: StatusFailed, Error: message(err, err.Error())}
	var verr *ValidationError
	if errors.As(err, &verr) {
		v.FieldErrors = maps.Clone(verr.Fields)
	}
	return v
}

func failedView(err error, fallback string) View {
	return View{
		Status:  StatusFailed,
		Error:   message(err, fallback),
		Details: api.Details(err),
	}
}

// fetchCSRF stores the anti-forgery token for later submissions.
func (l *Lifecycle) fetchCSRF() error {
	return load(l, l.deps.API.CSRFToken, func(token string) {
		l.csrf = token
	}, csrfFailed)
}

// credentials combines the stored token with the acting user.
func (l *Lifecycle) credentials(ctx context.Context) (api.Credentials, error) {
	sess, err := l.deps.Session.Load(ctx)
	if err != nil {
		return api.Credentials{}, fmt.Errorf("failed to load session: %w", err)
	}
	l.mu.Lock()
	csrf := l.csrf
	l.mu.Unlock()
	return api.Credentials{
		Token:     sess.Token,
		Username:  l.nav.Username(),
		CSRFToken: csrf,
	}, nil
}

// csrfLocked returns the stored token; the caller holds the lock.
func (l *Lifecycle) csrfLocked() string {
	return l.csrf
}

// navigateAfterLocked schedules the single post-success navigation,
// replacing any pending one. The caller holds the lock.
func (l *Lifecycle) navigateAfterLocked(base time.Duration, r nav.Route, nc nav.Context) {
	if l.timer != nil {
		l.timer.Stop()
	}
	gen := l.gen
	l.timer = l.deps.scheduler().AfterFunc(l.deps.delay(base), func() {
		l.mu.Lock()
		alive := l.aliveLocked(gen)
		if alive {
			l.timer = nil
		}
		l.mu.Unlock()
		if alive {
			l.deps.Nav.Navigate(r, nc)
		}
	})
}

// Navigate leaves the page for r, carrying the page's navigation context.
func (l *Lifecycle) Navigate(r nav.Route) error {
	if !l.Alive() {
		return ErrNotMounted
	}
	l.deps.Nav.Navigate(r, l.nav)
	return nil
}

// Logout clears the stored session and returns to the login page.
func (l *Lifecycle) Logout(ctx context.Context) error {
	if err := l.deps.Session.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	slog.Info("Logged out", "username", l.nav.Username())
	l.deps.Nav.Navigate(nav.Login(), nav.Context{})
	return nil
}
