package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Routes are the path templates of the backend, relative to the base URL.
// Placeholders: {groupId}, {settlementId}, {username}, {token}.
type Routes struct {
	CSRF          string
	Login         string
	Signup        string
	VerifyCode    string
	ResendCode    string
	ResetPassword string
	ResetConfirm  string

	Groups      string
	CreateGroup string
	GroupDetail string
	AddMember   string

	Categories    string
	CreateExpense string

	Settlements      string
	SettlementStatus string
}

// RootRoutes is the contract: the unversioned paths served at the root of
// the backend.
var RootRoutes = Routes{
	CSRF:          "csrf/",
	Login:         "login/",
	Signup:        "signup/",
	VerifyCode:    "verify_code/",
	ResendCode:    "resend_code/",
	ResetPassword: "reset_password/",
	ResetConfirm:  "reset_password_confirm/{token}/",

	Groups:      "api/groups/",
	CreateGroup: "api/groups/create/",
	GroupDetail: "groups/api/{groupId}/",
	AddMember:   "group/{groupId}/add_member/",

	Categories:    "expense/add/{groupId}",
	CreateExpense: "expense/add_expense_api/{groupId}",

	Settlements:      "settlements/{username}/",
	SettlementStatus: "settlements/api/{settlementId}/",
}

// V1Routes are the versioned API paths of a later backend revision.
//
// Deprecated: kept for backends that only mount api/v1/. The account
// endpoints are not versioned there.
var V1Routes = Routes{
	CSRF:          "csrf/",
	Login:         "login/",
	Signup:        "signup/",
	VerifyCode:    "verify_code/",
	ResendCode:    "resend-code/",
	ResetPassword: "reset_password/",
	ResetConfirm:  "reset_password/{token}/",

	Groups:      "api/v1/groups/",
	CreateGroup: "api/v1/groups/create/",
	GroupDetail: "api/v1/groups/{groupId}/",
	AddMember:   "api/v1/groups/{groupId}/add_member/",

	Categories:    "api/v1/categories/",
	CreateExpense: "api/v1/expenses/{groupId}/add/",

	Settlements:      "api/v1/settlements/{username}/",
	SettlementStatus: "api/v1/settlements/{settlementId}/",
}

// ParseRoutes maps a configuration value to a route table.
func ParseRoutes(s string) (Routes, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "root":
		return RootRoutes, nil
	case "v1":
		return V1Routes, nil
	default:
		return Routes{}, fmt.Errorf("unknown route set %q", s)
	}
}

// path fills the placeholders of tmpl. Values are path-escaped.
func path(tmpl string, params ...pathParam) string {
	if len(params) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(params)*2)
	for _, p := range params {
		pairs = append(pairs, "{"+p.name+"}", url.PathEscape(p.value))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

type pathParam struct {
	name  string
	value string
}

func groupParam(id int64) pathParam {
	return pathParam{name: "groupId", value: strconv.FormatInt(id, 10)}
}

func settlementParam(id int64) pathParam {
	return pathParam{name: "settlementId", value: strconv.FormatInt(id, 10)}
}

func userParam(u string) pathParam {
	return pathParam{name: "username", value: u}
}

func tokenParam(t string) pathParam {
	return pathParam{name: "token", value: t}
}
