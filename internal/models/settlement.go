package models

import "github.com/shopspring/decimal"

// PaymentStatus is the state of a settlement.
// The only transition the client performs is Pending -> Completed.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "Pending"
	StatusCompleted PaymentStatus = "Completed"
)

// Valid reports whether the backend accepts s.
func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Settlement is what one user owes for one expense split.
type Settlement struct {
	// ID is the unique identifier of the settlement.
	ID int64 `json:"id"`

	// GroupName is added by the backend from the settlement's group.
	GroupName string `json:"group_name"`

	// Amount is this user's share.
	Amount decimal.Decimal `json:"amount"`

	PaymentStatus    PaymentStatus `json:"payment_status"`
	SettlementMethod string        `json:"settlement_method,omitempty"`

	// DueDate and SettlementDate are YYYY-MM-DD strings and compare lexically.
	DueDate        string `json:"due_date"`
	SettlementDate string `json:"settlement_date,omitempty"`
}
