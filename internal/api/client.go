// Package api is the client of the expense tracker backend.
//
// Every call goes through Client.Do, which resolves the header set the
// caller declares, sends cookies, and normalizes failures into *Error.
// The typed endpoint methods only describe paths and payloads.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/publicsuffix"

	"github.com/mmynk/extracker/internal/auth"
)

// Header names the backend reads.
const (
	HeaderAuthorization = "Authorization"
	HeaderUsername      = "X-Username"
	HeaderCSRF          = "X-CSRFToken"
	HeaderRequestID     = "X-Request-ID"
)

// csrfCookie is the cookie the backend sets alongside the token.
const csrfCookie = "csrftoken"

// HeaderSet declares which identity headers a call needs.
type HeaderSet uint8

const (
	// WithAuth sends the Authorization header built from the session token.
	WithAuth HeaderSet = 1 << iota
	// WithUsername sends X-Username with the acting user.
	WithUsername
	// WithCSRF sends X-CSRFToken.
	WithCSRF
)

// Has reports whether h contains all of other.
func (h HeaderSet) Has(other HeaderSet) bool {
	return h&other == other
}

// Credentials are the values the header set is resolved against.
type Credentials struct {
	Token     string
	Username  string
	CSRFToken string
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000/".
	BaseURL string

	// Scheme is the Authorization scheme; defaults to auth.SchemeBearer.
	Scheme auth.Scheme

	// Routes defaults to RootRoutes.
	Routes *Routes

	// Timeout bounds a single call; defaults to 30s.
	Timeout time.Duration

	// Registerer receives the request metrics. Nil disables them.
	Registerer prometheus.Registerer

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client is a client for the expense tracker backend.
type Client struct {
	baseURL    *url.URL
	scheme     auth.Scheme
	routes     Routes
	httpClient *http.Client
}

// New creates a new backend client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = auth.SchemeBearer
	}
	routes := RootRoutes
	if cfg.Routes != nil {
		routes = *cfg.Routes
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Registerer != nil {
		transport = NewMetrics(cfg.Registerer).InstrumentRoundTripper(transport)
	}

	return &Client{
		baseURL: base,
		scheme:  scheme,
		routes:  routes,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: transport,
		},
	}, nil
}

// Routes returns the route table in use.
func (c *Client) Routes() Routes {
	return c.routes
}

// Request describes one backend call.
type Request struct {
	Method  string
	Path    string
	Headers HeaderSet
	Creds   Credentials

	// JSON is encoded as the request body. Mutually exclusive with Form.
	JSON any

	// Form is sent as multipart/form-data.
	Form *Multipart

	// Expect lists the accepted statuses; empty accepts any 2xx.
	Expect []int
}

// Response is a successful reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Multipart is a multipart/form-data payload.
type Multipart struct {
	Fields []FormField
	Files  []FormFile
}

// FormField is a plain form value.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a file part.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Do performs req and decodes a successful JSON payload into out (which may
// be nil). Identity headers are resolved before anything is sent: a missing
// token or username fails with ErrNoSession / ErrNoUser and no request is
// made.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	header := make(http.Header)
	if err := c.resolveHeaders(header, req.Headers, req.Creds); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	target := c.resolve(req.Path)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header = header
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Debug("API call failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, &Error{Kind: KindTransport, Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: req.Method, Path: req.Path, Status: resp.StatusCode, Err: err}
	}

	slog.Debug("API call",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !accepted(resp.StatusCode, req.Expect) {
		message, details := parseErrorBody(respBody)
		return nil, &Error{
			Kind:    KindBackend,
			Method:  req.Method,
			Path:    req.Path,
			Status:  resp.StatusCode,
			Message: message,
			Details: details,
			Err:     fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, &Error{Kind: KindDecode, Method: req.Method, Path: req.Path, Status: resp.StatusCode, Err: err}
		}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

func (c *Client) resolveHeaders(h http.Header, set HeaderSet, creds Credentials) error {
	if set.Has(WithAuth) {
		if creds.Token == "" {
			return ErrNoSession
		}
		h.Set(HeaderAuthorization, c.scheme.Header(creds.Token))
	}
	if set.Has(WithUsername) {
		if creds.Username == "" {
			return ErrNoUser
		}
		h.Set(HeaderUsername, creds.Username)
	}
	if set.Has(WithCSRF) {
		token := creds.CSRFToken
		if token == "" {
			token = c.cookie(csrfCookie)
		}
		if token != "" {
			h.Set(HeaderCSRF, token)
		}
	}
	return nil
}

// cookie reads a cookie the backend set for the base URL.
func (c *Client) cookie(name string) string {
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) resolve(p string) *url.URL {
	ref, err := url.Parse(strings.TrimLeft(p, "/"))
	if err != nil {
		// Paths come from route templates with escaped values.
		return c.baseURL.JoinPath(p)
	}
	return c.baseURL.ResolveReference(ref)
}

func accepted(status int, expect []int) bool {
	if len(expect) > 0 {
		return slices.Contains(expect, status)
	}
	return status >= 200 && status < 300
}

func encodeBody(req Request) (io.Reader, string, error) {
	switch {
	case req.Form != nil:
		return encodeMultipart(req.Form)
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
	return nil, "", nil
}

func encodeMultipart(form *Multipart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range form.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range form.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
