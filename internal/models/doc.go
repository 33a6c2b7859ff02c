// Package models defines the view models the expense tracker client works with.
//
// # Ownership
//
// Every entity here is owned by the backend. The client fetches a copy when a
// page mounts, keeps it in the page's state and drops it when the page is
// unmounted. Nothing is cached or normalized across pages: the member list of
// a group and the settlement list are never reconciled.
//
// # Wire format
//
// Field names follow the backend's JSON. Monetary amounts are
// decimal.Decimal because the backend serializes decimals as strings
// ("200.00"); plain JSON numbers decode as well.
//
// # Models
//
//   - UserProfile: snapshot of the logged-in user, carried between pages
//   - Session: auth token plus the profile, persisted locally
//   - Group, Member: a group with its members
//   - Expense, Category: expenses recorded in a group and their categories
//   - Settlement: one user's share of an expense and its payment status
package models
