package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/mmynk/extracker/internal/nav"
)

// Page is the behavior every page controller shares.
type Page interface {
	Mount(ctx context.Context) error
	Unmount()
	Alive() bool
	View() View
	Render(w io.Writer) error
}

var (
	_ Page = (*Login)(nil)
	_ Page = (*Signup)(nil)
	_ Page = (*VerifyCode)(nil)
	_ Page = (*ResendCode)(nil)
	_ Page = (*ResetPassword)(nil)
	_ Page = (*Home)(nil)
	_ Page = (*Group)(nil)
	_ Page = (*Expense)(nil)
	_ Page = (*Settlements)(nil)
)

// New creates the page that serves r. It is not mounted.
func New(d Deps, r nav.Route, nc nav.Context) (Page, error) {
	switch r.Page {
	case nav.PageLogin:
		return NewLogin(d), nil
	case nav.PageSignup:
		return NewSignup(d), nil
	case nav.PageVerifyCode:
		return NewVerifyCode(d), nil
	case nav.PageResendCode:
		return NewResendCode(d), nil
	case nav.PageResetPassword:
		return NewResetPassword(d, r.Token), nil
	case nav.PageHome:
		return NewHome(d, nc), nil
	case nav.PageGroup:
		return NewGroup(d, nc, r.GroupID), nil
	case nav.PageExpense:
		return NewExpense(d, nc, r.GroupID), nil
	case nav.PageSettlements:
		return NewSettlements(d, nc), nil
	default:
		return nil, fmt.Errorf("%w: %s", nav.ErrUnknownRoute, r)
	}
}
