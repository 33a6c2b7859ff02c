// Package apitest is an in-memory implementation of the expense tracker
// backend. Tests use it to drive the client end to end and to count calls
// per route; cmd/devserver serves it for local runs.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/middleware"
	"github.com/mmynk/extracker/internal/models"
)

// Route names, as counted by Calls.
const (
	RouteCSRF             = "csrf"
	RouteLogin            = "login"
	RouteSignup           = "signup"
	RouteVerifyCode       = "verify_code"
	RouteResendCode       = "resend_code"
	RouteResetPassword    = "reset_password"
	RouteResetConfirm     = "reset_password_confirm"
	RouteGroups           = "groups"
	RouteCreateGroup      = "create_group"
	RouteGroupDetail      = "group_detail"
	RouteAddMember        = "add_member"
	RouteCategories       = "categories"
	RouteCreateExpense    = "create_expense"
	RouteSettlements      = "settlements"
	RouteSettlementStatus = "settlement_status"
)

const (
	csrfCookie    = "csrftoken"
	codeLifetime  = time.Hour
	tokenLifetime = time.Hour
	dateLayout    = "2006-01-02"
)

// DefaultCategories are the categories a new backend offers.
var DefaultCategories = []string{"Food", "Travel", "Rent", "Utilities", "Entertainment", "Other"}

type user struct {
	id      int64
	profile models.UserProfile
	hash    string

	verified bool
	code     string
	codeAt   time.Time
}

type group struct {
	id      int64
	name    string
	creator string
	members []string
}

type settlement struct {
	models.Settlement
	username string
	groupID  int64
}

// Backend is the in-memory backend. The zero value is not usable; use New.
type Backend struct {
	mu          sync.Mutex
	users       map[string]*user // by username
	groups      map[int64]*group
	expenses    map[int64][]models.Expense // by group
	receipts    map[int64][]byte           // by expense
	settlements []*settlement
	categories  []models.Category
	resets      map[string]string // reset token -> username
	csrfTokens  map[string]bool
	calls       map[string]int
	intercepts  map[string]http.HandlerFunc
	nextID      int64

	jwt    *auth.JWTManager
	now    func() time.Time
	router *mux.Router
}

// Option configures a Backend.
type Option func(*config)

type config struct {
	routes api.Routes
	secret string
	now    func() time.Time
}

// WithRoutes serves a route table other than api.RootRoutes.
func WithRoutes(r api.Routes) Option {
	return func(c *config) { c.routes = r }
}

// WithSecret sets the JWT signing secret.
func WithSecret(secret string) Option {
	return func(c *config) { c.secret = secret }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// New creates a backend with the default categories and no users.
func New(opts ...Option) *Backend {
	cfg := config{routes: api.RootRoutes, secret: "apitest-secret", now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Backend{
		users:      make(map[string]*user),
		groups:     make(map[int64]*group),
		expenses:   make(map[int64][]models.Expense),
		receipts:   make(map[int64][]byte),
		resets:     make(map[string]string),
		csrfTokens: make(map[string]bool),
		calls:      make(map[string]int),
		intercepts: make(map[string]http.HandlerFunc),
		jwt:        auth.NewJWTManager(cfg.secret, tokenLifetime),
		now:        cfg.now,
	}
	for _, name := range DefaultCategories {
		b.categories = append(b.categories, models.Category{ID: b.id(), Name: name})
	}
	b.router = b.routes(cfg.routes)
	return b
}

// Start serves b on a test server that is closed with the test.
func Start(tb testing.TB, opts ...Option) (*Backend, *httptest.Server) {
	tb.Helper()
	b := New(opts...)
	srv := httptest.NewServer(b.Handler())
	tb.Cleanup(srv.Close)
	return b, srv
}

// Handler returns the HTTP handler of the backend.
func (b *Backend) Handler() http.Handler {
	return b.router
}

// placeholder turns a route template into a mux pattern.
var placeholder = regexp.MustCompile(`\{(groupId|settlementId)\}`)

func pattern(tmpl string) string {
	return "/" + placeholder.ReplaceAllString(tmpl, "{$1:[0-9]+}")
}

func (b *Backend) routes(rt api.Routes) *mux.Router {
	r := mux.NewRouter()
	r.Use(b.count)

	authed := middleware.RequireAuth(b.jwt)
	handle := func(name, tmpl, method string, h http.HandlerFunc, wrap ...func(http.Handler) http.Handler) {
		var handler http.Handler = b.intercept(name, h)
		for i := len(wrap) - 1; i >= 0; i-- {
			handler = wrap[i](handler)
		}
		r.Handle(pattern(tmpl), handler).Methods(method).Name(name)
	}

	handle(RouteCSRF, rt.CSRF, http.MethodGet, b.handleCSRF)
	handle(RouteLogin, rt.Login, http.MethodPost, b.handleLogin, b.requireCSRF)
	handle(RouteSignup, rt.Signup, http.MethodPost, b.handleSignup, b.requireCSRF)
	handle(RouteVerifyCode, rt.VerifyCode, http.MethodPost, b.handleVerifyCode, b.requireCSRF)
	handle(RouteResendCode, rt.ResendCode, http.MethodPost, b.handleResendCode, b.requireCSRF)
	handle(RouteResetPassword, rt.ResetPassword, http.MethodPost, b.handleResetPassword, b.requireCSRF)
	handle(RouteResetConfirm, rt.ResetConfirm, http.MethodPost, b.handleResetConfirm, b.requireCSRF)

	handle(RouteGroups, rt.Groups, http.MethodGet, b.handleListGroups, authed, b.requireUsername)
	handle(RouteCreateGroup, rt.CreateGroup, http.MethodPost, b.handleCreateGroup, authed, b.requireUsername, b.requireCSRF)
	handle(RouteGroupDetail, rt.GroupDetail, http.MethodGet, b.handleGroupDetail, authed, b.requireUsername)
	handle(RouteAddMember, rt.AddMember, http.MethodPost, b.handleAddMember, authed, b.requireUsername, b.requireCSRF)
	handle(RouteCategories, rt.Categories, http.MethodGet, b.handleCategories, authed)
	handle(RouteCreateExpense, rt.CreateExpense, http.MethodPost, b.handleCreateExpense, authed)
	handle(RouteSettlementStatus, rt.SettlementStatus, http.MethodPatch, b.handleUpdateSettlement, authed, b.requireUsername)
	handle(RouteSettlements, rt.Settlements, http.MethodGet, b.handleListSettlements, authed, b.requireUsername)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	return r
}

// count records one call per matched route.
func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			b.mu.Lock()
			b.calls[route.GetName()]++
			b.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) intercept(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		override := b.intercepts[name]
		b.mu.Unlock()
		if override != nil {
			override(w, r)
			return
		}
		h(w, r)
	}
}

// Intercept replaces the handler of a route after authentication and CSRF
// checks. A nil handler restores the default.
func (b *Backend) Intercept(route string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h == nil {
		delete(b.intercepts, route)
		return
	}
	b.intercepts[route] = h
}

// Calls returns how many requests reached route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// TotalCalls returns how many requests reached any route.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// id returns the next identifier. The caller holds the lock or owns b.
func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *Backend) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(csrfCookie); err == nil {
		b.mu.Lock()
		if b.csrfTokens[c.Value] {
			token = c.Value
		}
		b.mu.Unlock()
	}
	if token == "" {
		token = uuid.NewString()
		b.mu.Lock()
		b.csrfTokens[token] = true
		b.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: token, Path: "/", SameSite: http.SameSiteLaxMode})
	w.Header().Set(api.HeaderCSRF, token)
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// requireCSRF checks the double-submitted anti-forgery token: the header
// must match the cookie, and the cookie must have been issued here.
func (b *Backend) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(api.HeaderCSRF)
		cookie, err := r.Cookie(csrfCookie)
		if header == "" || err != nil || cookie.Value != header {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			return
		}
		b.mu.Lock()
		known := b.csrfTokens[header]
		b.mu.Unlock()
		if !known {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUsername checks X-Username against the authenticated user.
func (b *Backend) requireUsername(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(api.HeaderUsername)
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		if header != middleware.GetUsername(r.Context()) {
			writeError(w, http.StatusForbidden, "Invalid username for the authenticated user.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}
