package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/models"
)

func newTestClient(t *testing.T, h http.Handler, opts ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL}
	for _, opt := range opts {
		opt(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "localhost-without-scheme"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost:8000"})
	require.NoError(t, err)
	assert.Equal(t, RootRoutes, c.Routes())
}

func TestHeadersResolvedBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"groups": []any{}})
	}))
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		_, err := c.ListGroups(ctx, Credentials{Username: "alice"})
		require.ErrorIs(t, err, ErrNoSession)
		assert.Equal(t, "Authorization token not found.", Message(err, "fallback"))
	})

	t.Run("missing username", func(t *testing.T) {
		_, err := c.ListSettlements(ctx, Credentials{Token: "tok"})
		require.ErrorIs(t, err, ErrNoUser)
	})

	t.Run("expense without token", func(t *testing.T) {
		_, err := c.CreateExpense(ctx, Credentials{}, NewExpense{GroupID: 1})
		require.ErrorIs(t, err, ErrNoSession)
	})

	assert.Zero(t, hits.Load(), "no request may reach the backend")
}

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name   string
		scheme auth.Scheme
		want   string
	}{
		{name: "default bearer", want: "Bearer tok"},
		{name: "legacy token", scheme: auth.SchemeToken, want: "Token tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got http.Header
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				writeJSON(w, http.StatusOK, map[string]any{"groups": []any{}})
			}), func(cfg *Config) { cfg.Scheme = tt.scheme })

			_, err := c.ListGroups(context.Background(), Credentials{Token: "tok", Username: "alice"})
			require.NoError(t, err)

			assert.Equal(t, tt.want, got.Get(HeaderAuthorization))
			assert.Equal(t, "alice", got.Get(HeaderUsername))
			assert.NotEmpty(t, got.Get(HeaderRequestID))
			assert.Empty(t, got.Get(HeaderCSRF), "list groups does not send CSRF")
		})
	}
}

func TestCSRFFromCookie(t *testing.T) {
	var gotCSRF string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /csrf/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "cookie-token", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": "body-token"})
	})
	mux.HandleFunc("POST /api/groups/create/", func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get(HeaderCSRF)
		writeJSON(w, http.StatusCreated, map[string]any{"group_id": 7, "name": "Trip", "created_by": "alice"})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	token, err := c.CSRFToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "body-token", token)

	g, err := c.CreateGroup(ctx, Credentials{Token: "tok", Username: "alice"}, "Trip")
	require.NoError(t, err)
	assert.Equal(t, int64(7), g.ID)
	assert.Equal(t, "cookie-token", gotCSRF, "jar cookie is used when no token is passed")
}

func TestBackendErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		fallback    string
		wantMessage string
		wantDetails []string
	}{
		{
			name:        "error field verbatim",
			status:      http.StatusUnauthorized,
			body:        `{"error": "Invalid username or password."}`,
			fallback:    "Invalid credentials",
			wantMessage: "Invalid username or password.",
		},
		{
			name:        "details array",
			status:      http.StatusBadRequest,
			body:        `{"error": "There was an error with your signup.", "details": ["Email taken", "Weak password"]}`,
			fallback:    "Signup failed. Please check your details.",
			wantMessage: "There was an error with your signup.",
			wantDetails: []string{"Email taken", "Weak password"},
		},
		{
			name:        "field errors",
			status:      http.StatusBadRequest,
			body:        `{"date": ["Enter a valid date."], "amount": ["A valid number is required."]}`,
			fallback:    "Failed to add expense.",
			wantMessage: "Failed to add expense.",
			wantDetails: []string{"amount: A valid number is required.", "date: Enter a valid date."},
		},
		{
			name:        "html error page",
			status:      http.StatusInternalServerError,
			body:        `<html><body>Server Error</body></html>`,
			fallback:    "Invalid credentials",
			wantMessage: "Invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.Login(context.Background(), "csrf", LoginRequest{Email: "a@b.co", Password: "x"})
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, KindBackend, apiErr.Kind)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.wantMessage, Message(err, tt.fallback))
			assert.Equal(t, tt.wantDetails, Details(err))
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base})
	require.NoError(t, err)

	_, err = c.CSRFToken(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.Equal(t, TransportMessage, Message(err, "Invalid credentials"))
}

func TestLoginDecodesProfile(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"username":                "alice",
			"college":                 "UBC",
			"semester":                3,
			"default_payment_methods": "UPI",
			"token":                   "jwt",
		})
	}))

	resp, err := c.Login(context.Background(), "csrf", LoginRequest{Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"email": "alice@example.com", "password": "pw"}, body)
	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, models.UserProfile{
		Username:              "alice",
		Email:                 "alice@example.com",
		College:               "UBC",
		Semester:              3,
		DefaultPaymentMethods: "UPI",
	}, resp.UserProfile)
}

func TestSignupExpectsCreated(t *testing.T) {
	status := http.StatusOK
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, map[string]string{"message": "Sign up successful!"})
	}))
	req := SignupRequest{Username: "alice", Email: "alice@example.com", Password: "pw", PasswordConfirmation: "pw"}

	_, err := c.Signup(context.Background(), "csrf", req)
	require.Error(t, err, "200 is not a successful signup")

	status = http.StatusCreated
	resp, err := c.Signup(context.Background(), "csrf", req)
	require.NoError(t, err)
	assert.Equal(t, "Sign up successful!", resp.Message)
}

func TestCreateExpenseMultipart(t *testing.T) {
	var (
		fields  = map[string]string{}
		receipt string
		status  = http.StatusCreated
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/expense/add_expense_api/42", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		if f, _, err := r.FormFile("receipt_image"); err == nil {
			data, _ := io.ReadAll(f)
			receipt = string(data)
			_ = f.Close()
		}
		writeJSON(w, status, map[string]any{"id": 1, "amount": "90.00", "group_id": 42})
	}))

	e := NewExpense{
		Amount:    decimal.RequireFromString("90"),
		Category:  3,
		Date:      "2024-05-01",
		CreatedBy: "alice",
		GroupID:   42,
		Receipt:   &Receipt{Filename: "r.png", Content: strings.NewReader("png-bytes")},
	}
	creds := Credentials{Token: "tok"}

	got, err := c.CreateExpense(context.Background(), creds, e)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, map[string]string{
		"amount":     "90.00",
		"category":   "3",
		"split_type": "equal",
		"date":       "2024-05-01",
		"created_by": "alice",
		"group_id":   "42",
	}, fields)
	assert.Equal(t, "png-bytes", receipt)

	status = http.StatusOK
	e.Receipt = nil
	_, err = c.CreateExpense(context.Background(), creds, e)
	require.Error(t, err, "only 201 counts as created")
}

func TestUpdateSettlementStatus(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Payment status updated successfully!"})
	}))

	resp, err := c.UpdateSettlementStatus(context.Background(), Credentials{Token: "tok", Username: "alice"}, 9, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, "/settlements/api/9/", gotPath)
	assert.Equal(t, map[string]string{"payment_status": "Completed"}, gotBody)
	assert.Equal(t, "Payment status updated successfully!", resp.Message)
}

func TestRouteSets(t *testing.T) {
	var gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"settlements": []any{}})
	})
	creds := Credentials{Token: "tok", Username: "bob smith"}

	c := newTestClient(t, handler)
	_, err := c.ListSettlements(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "/settlements/bob smith/", gotPath)

	v1, err := ParseRoutes("v1")
	require.NoError(t, err)
	c = newTestClient(t, handler, func(cfg *Config) { cfg.Routes = &v1 })
	_, err = c.ListSettlements(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/settlements/bob smith/", gotPath)

	_, err = ParseRoutes("v2")
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": "x"})
	}), func(cfg *Config) { cfg.Registerer = reg })

	_, err := c.CSRFToken(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["extracker_api_requests_total"])
	assert.True(t, names["extracker_api_request_duration_seconds"])
	assert.True(t, names["extracker_api_inflight_requests"])
}
