package models

import "github.com/shopspring/decimal"

// SplitEqual is the only split type the backend supports.
const SplitEqual = "equal"

// Expense is an amount paid on behalf of a group.
type Expense struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Category  int64           `json:"category"`
	SplitType string          `json:"split_type"`

	// Date is YYYY-MM-DD.
	Date      string  `json:"date"`
	CreatedBy UserRef `json:"created_by"`
	GroupID   int64   `json:"group_id"`

	// ReceiptImage is the URL of the uploaded receipt, if any.
	ReceiptImage string `json:"receipt_image,omitempty"`
}

// Category is reference data used to classify expenses.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
