// Package app drives the pages: it is the navigator the pages report to.
// Each navigation unmounts the current page, mounts the next one and
// renders it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mmynk/extracker/internal/nav"
	"github.com/mmynk/extracker/internal/pages"
)

// App holds the single mounted page.
type App struct {
	ctx  context.Context
	deps pages.Deps

	mu      sync.Mutex
	out     io.Writer
	current pages.Page
	route   nav.Route
	history []nav.Route
}

// New creates an app that renders to out. d.Nav is replaced by the app.
func New(ctx context.Context, d pages.Deps, out io.Writer) *App {
	a := &App{ctx: ctx, out: out}
	d.Nav = a
	a.deps = d
	return a
}

// Navigate implements nav.Navigator. Mount failures are shown by the page
// itself and logged here.
func (a *App) Navigate(r nav.Route, c nav.Context) {
	if _, err := a.Open(r, c); err != nil {
		slog.Warn("Page failed to load", "route", r.String(), "error", err)
	}
}

// Open replaces the current page with the page for r, mounts and renders
// it. The page is returned even when mounting failed.
func (a *App) Open(r nav.Route, c nav.Context) (pages.Page, error) {
	p, err := pages.New(a.deps, r, c)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	prev := a.current
	a.current, a.route = p, r
	a.history = append(a.history, r)
	a.mu.Unlock()
	if prev != nil {
		prev.Unmount()
	}

	slog.Debug("Opening page", "route", r.String(), "username", c.Username())
	mountErr := p.Mount(a.ctx)
	if err := a.render(p); err != nil {
		return p, err
	}
	if mountErr != nil {
		return p, fmt.Errorf("failed to load %s: %w", r, mountErr)
	}
	return p, nil
}

// Render writes the current page again.
func (a *App) Render() error {
	a.mu.Lock()
	p := a.current
	a.mu.Unlock()
	if p == nil {
		return nil
	}
	return a.render(p)
}

func (a *App) render(p pages.Page) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p != a.current {
		return nil
	}
	if err := p.Render(a.out); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// Current returns the mounted page and its route.
func (a *App) Current() (pages.Page, nav.Route) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, a.route
}

// History returns every route opened, oldest first.
func (a *App) History() []nav.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]nav.Route(nil), a.history...)
}

// Close unmounts the current page.
func (a *App) Close() {
	a.mu.Lock()
	p := a.current
	a.current = nil
	a.mu.Unlock()
	if p != nil {
		p.Unmount()
	}
}
