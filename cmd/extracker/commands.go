package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/extracker/internal/auth"
	"github.com/mmynk/extracker/internal/nav"
	"github.com/mmynk/extracker/internal/pages"
	"github.com/mmynk/extracker/internal/sorting"
)

type command struct {
	summary string
	run     func(ctx context.Context, e *env, name string, args []string) error
}

var commands = map[string]command{
	"login":       {"log in and store the session", runLogin},
	"signup":      {"create an account", runSignup},
	"verify":      {"confirm the emailed verification code", runVerify},
	"resend":      {"email a new verification code", runResend},
	"reset":       {"request a reset link, or set a new password with -token", runReset},
	"home":        {"list your groups (-create NAME adds one)", runHome},
	"group":       {"show a group (-add USER adds a member)", runGroup},
	"expense":     {"add an expense to a group", runExpense},
	"settlements": {"list your settlements (-sort KEY, -complete ID)", runSettlements},
	"logout":      {"forget the stored session", runLogout},
	"whoami":      {"show the stored session", runWhoami},
}

var commandOrder = []string{
	"login", "signup", "verify", "resend", "reset",
	"home", "group", "expense", "settlements", "logout", "whoami",
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet("extracker "+name, flag.ContinueOnError)
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return errUsage
	}
	return nil
}

// open opens the page for r and checks its type.
func open[P pages.Page](e *env, r nav.Route, nc nav.Context) (P, error) {
	var zero P
	p, err := e.app.Open(r, nc)
	if p == nil {
		return zero, err
	}
	page, ok := p.(P)
	if !ok {
		return zero, fmt.Errorf("route %s opened %T", r, p)
	}
	return page, err
}

// act runs a page action and renders the result.
func act(e *env, action func() error) error {
	err := action()
	if renderErr := e.app.Render(); renderErr != nil {
		return renderErr
	}
	return err
}

// loggedIn returns the navigation context of the stored session.
func loggedIn(ctx context.Context, e *env) (nav.Context, error) {
	sess, err := e.session.Load(ctx)
	if err != nil {
		return nav.Context{}, fmt.Errorf("failed to load session: %w", err)
	}
	return nav.Context{User: sess.User}, nil
}

func runLogin(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}

	p, err := open[*pages.Login](e, nav.Login(), nav.Context{})
	if p == nil {
		return err
	}
	p.SetForm(pages.LoginForm{Email: *email, Password: *password})
	return act(e, p.Submit)
}

func runSignup(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	var f pages.SignupForm
	fs.StringVar(&f.Username, "username", "", "username")
	fs.StringVar(&f.Email, "email", "", "email")
	fs.StringVar(&f.Password, "password", "", "password")
	fs.StringVar(&f.PasswordConfirmation, "confirm", "", "password again")
	fs.StringVar(&f.College, "college", "", "college")
	fs.StringVar(&f.Semester, "semester", "", "semester (1-8)")
	fs.StringVar(&f.DefaultPaymentMethod, "payment-method", "", "default payment method")
	if err := parse(fs, args); err != nil {
		return err
	}

	p, err := open[*pages.Signup](e, nav.Route{Page: nav.PageSignup}, nav.Context{})
	if p == nil {
		return err
	}
	p.SetForm(f)
	return act(e, p.Submit)
}

func runVerify(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	var f pages.VerifyCodeForm
	fs.StringVar(&f.Email, "email", "", "account email")
	fs.StringVar(&f.Code, "code", "", "verification code")
	if err := parse(fs, args); err != nil {
		return err
	}

	p, err := open[*pages.VerifyCode](e, nav.Route{Page: nav.PageVerifyCode}, nav.Context{})
	if p == nil {
		return err
	}
	p.SetForm(f)
	return act(e, p.Submit)
}

func runResend(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}

	p, err := open[*pages.ResendCode](e, nav.Route{Page: nav.PageResendCode}, nav.Context{})
	if p == nil {
		return err
	}
	p.SetEmail(*email)
	return act(e, p.Submit)
}

func runReset(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	token := fs.String("token", "", "token from the reset link")
	var f pages.ResetForm
	fs.StringVar(&f.Email, "email", "", "account email (request a link)")
	fs.StringVar(&f.NewPassword, "password", "", "new password (with -token)")
	fs.StringVar(&f.ConfirmPassword, "confirm", "", "new password again (with -token)")
	if err := parse(fs, args); err != nil {
		return err
	}

	r := nav.Route{Page: nav.PageResetPassword, Token: *token}
	p, err := open[*pages.ResetPassword](e, r, nav.Context{})
	if p == nil {
		return err
	}
	p.SetForm(f)
	return act(e, p.Submit)
}

func runHome(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	create := fs.String("create", "", "name of a group to create")
	if err := parse(fs, args); err != nil {
		return err
	}
	nc, err := loggedIn(ctx, e)
	if err != nil {
		return err
	}

	p, err := open[*pages.Home](e, nav.Home(), nc)
	if err != nil || *create == "" {
		return err
	}
	p.SetGroupName(*create)
	return act(e, p.CreateGroup)
}

func runGroup(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	id := fs.Int64("id", 0, "group id")
	add := fs.String("add", "", "username to add as a member")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errUsage
	}
	nc, err := loggedIn(ctx, e)
	if err != nil {
		return err
	}

	p, err := open[*pages.Group](e, nav.Group(*id), nc)
	if err != nil || *add == "" {
		return err
	}
	p.Select(*add)
	return act(e, p.AddMember)
}

func runExpense(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	group := fs.Int64("group", 0, "group id")
	amount := fs.String("amount", "", "total paid, e.g. 45.50")
	category := fs.Int64("category", 0, "category id (run without -amount to list them)")
	date := fs.String("date", "", "YYYY-MM-DD (default today)")
	receipt := fs.String("receipt", "", "receipt image to attach")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *group <= 0 {
		fs.Usage()
		return errUsage
	}
	nc, err := loggedIn(ctx, e)
	if err != nil {
		return err
	}

	p, err := open[*pages.Expense](e, nav.Expense(*group), nc)
	if err != nil || *amount == "" {
		return err
	}
	f := p.Form()
	f.Amount, f.Category = *amount, *category
	if *date != "" {
		f.Date = *date
	}
	if *receipt != "" {
		data, err := os.ReadFile(*receipt)
		if err != nil {
			return fmt.Errorf("failed to read receipt: %w", err)
		}
		f.Receipt = &pages.ReceiptFile{Name: filepath.Base(*receipt), Data: data}
	}
	p.SetForm(f)
	return act(e, p.Submit)
}

// sortKeys collects repeated -sort flags.
type sortKeys []sorting.Key

func (s *sortKeys) String() string {
	parts := make([]string, len(*s))
	for i, k := range *s {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

func (s *sortKeys) Set(v string) error {
	k, err := sorting.ParseKey(v)
	if err != nil {
		return err
	}
	*s = append(*s, k)
	return nil
}

func runSettlements(ctx context.Context, e *env, name string, args []string) error {
	fs := newFlags(name)
	var keys sortKeys
	fs.Var(&keys, "sort", "click a column; repeat to click again ("+keyNames()+")")
	complete := fs.Int64("complete", 0, "mark this settlement id as completed")
	if err := parse(fs, args); err != nil {
		return err
	}
	nc, err := loggedIn(ctx, e)
	if err != nil {
		return err
	}

	p, err := open[*pages.Settlements](e, nav.Settlements(nc.Username()), nc)
	if err != nil {
		return err
	}
	if *complete > 0 {
		if err := act(e, func() error { return p.MarkCompleted(*complete) }); err != nil {
			return err
		}
	}
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		if err := p.Sort(k); err != nil {
			return err
		}
	}
	return e.app.Render()
}

func keyNames() string {
	names := make([]string, len(sorting.Keys))
	for i, k := range sorting.Keys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func runLogout(ctx context.Context, e *env, name string, args []string) error {
	if err := parse(newFlags(name), args); err != nil {
		return err
	}
	nc, err := loggedIn(ctx, e)
	if err != nil {
		return err
	}
	// Logging out works even when the home page cannot load.
	p, err := open[*pages.Home](e, nav.Home(), nc)
	if p == nil {
		return err
	}
	return p.Logout(ctx)
}

func runWhoami(ctx context.Context, e *env, name string, args []string) error {
	if err := parse(newFlags(name), args); err != nil {
		return err
	}
	sess, err := e.session.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !sess.LoggedIn() {
		fmt.Fprintln(e.out, "Not logged in.")
		return nil
	}
	if sess.User != nil {
		fmt.Fprintf(e.out, "Username: %s\n", sess.User.Username)
		if sess.User.College != "" {
			fmt.Fprintf(e.out, "College: %s\n", sess.User.College)
		}
	}
	claims, err := auth.Inspect(sess.Token)
	if err != nil {
		// Opaque tokens are fine; only the backend can judge them.
		if errors.Is(err, auth.ErrInvalidToken) {
			fmt.Fprintln(e.out, "Token: opaque")
			return nil
		}
		return err
	}
	if claims.ExpiresAt != nil {
		state := "valid"
		if claims.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(e.out, "Token expires: %s (%s)\n", claims.ExpiresAt.Time.Local().Format(time.RFC1123), state)
	}
	if claims.UserID != 0 {
		fmt.Fprintf(e.out, "User id: %s\n", strconv.FormatInt(claims.UserID, 10))
	}
	return nil
}
