// Package nav names the client's pages and moves between them.
//
// A Route is where to go; a Context is what travels with it (the logged-in
// profile). Pages never call each other: they ask a Navigator, possibly
// after a delay through a Scheduler.
package nav

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmynk/extracker/internal/models"
)

// Page identifies a page controller.
type Page string

const (
	PageLogin         Page = "login"
	PageSignup        Page = "signup"
	PageVerifyCode    Page = "verifycode"
	PageResendCode    Page = "resendcode"
	PageResetPassword Page = "resetpassword"
	PageHome          Page = "home"
	PageGroup         Page = "group"
	PageExpense       Page = "expense"
	PageSettlements   Page = "settlements"
)

// ErrUnknownRoute is returned by ParseRoute for paths no page serves.
var ErrUnknownRoute = errors.New("unknown route")

// Route is a navigation target.
type Route struct {
	Page Page

	// GroupID is set for PageGroup and PageExpense.
	GroupID int64

	// Username is set for PageSettlements.
	Username string

	// Token is the reset token for PageResetPassword in confirm mode.
	Token string
}

// Login is the landing route.
func Login() Route { return Route{Page: PageLogin} }

// Home is the group list.
func Home() Route { return Route{Page: PageHome} }

// Group is the detail page of a group.
func Group(id int64) Route { return Route{Page: PageGroup, GroupID: id} }

// Expense is the expense entry page of a group.
func Expense(groupID int64) Route { return Route{Page: PageExpense, GroupID: groupID} }

// Settlements lists what username owes.
func Settlements(username string) Route {
	return Route{Page: PageSettlements, Username: username}
}

// Path renders the route as a URL path.
func (r Route) Path() string {
	switch r.Page {
	case PageLogin:
		return "/"
	case PageGroup:
		return "/groups/" + strconv.FormatInt(r.GroupID, 10)
	case PageExpense:
		return "/expense/" + strconv.FormatInt(r.GroupID, 10)
	case PageSettlements:
		return "/settlements/" + url.PathEscape(r.Username)
	case PageResetPassword:
		if r.Token != "" {
			return "/resetpassword/" + url.PathEscape(r.Token)
		}
	}
	return "/" + string(r.Page)
}

func (r Route) String() string {
	return r.Path()
}

// ParseRoute is the inverse of Route.Path.
func ParseRoute(p string) (Route, error) {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" || trimmed == "login" {
		return Login(), nil
	}
	parts := strings.Split(trimmed, "/")

	switch len(parts) {
	case 1:
		switch page := Page(parts[0]); page {
		case PageSignup, PageVerifyCode, PageResendCode, PageResetPassword, PageHome:
			return Route{Page: page}, nil
		}
	case 2:
		arg, err := url.PathUnescape(parts[1])
		if err != nil {
			return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, p)
		}
		switch parts[0] {
		case "groups", "expense":
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil || id <= 0 {
				return Route{}, fmt.Errorf("%w: invalid group id %q", ErrUnknownRoute, arg)
			}
			if parts[0] == "groups" {
				return Group(id), nil
			}
			return Expense(id), nil
		case "settlements":
			return Settlements(arg), nil
		case "resetpassword":
			return Route{Page: PageResetPassword, Token: arg}, nil
		}
	}
	return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, p)
}

// Context travels with a navigation.
type Context struct {
	// User is the profile snapshot taken at login. Nil for anonymous pages.
	User *models.UserProfile
}

// Username returns the acting username, or "".
func (c Context) Username() string {
	if c.User == nil {
		return ""
	}
	return c.User.Username
}

// Navigator switches the mounted page.
type Navigator interface {
	Navigate(r Route, c Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(r Route, c Context)

func (f NavigatorFunc) Navigate(r Route, c Context) {
	f(r, c)
}
