package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/extracker/internal/models"
)

// Totals summarizes a settlement list by payment status.
type Totals struct {
	Pending        decimal.Decimal
	Completed      decimal.Decimal
	PendingCount   int
	CompletedCount int
}

// SettlementTotals adds up settlements per payment status.
// Settlements with an unknown status are ignored.
func SettlementTotals(settlements []models.Settlement) Totals {
	var t Totals
	for _, s := range settlements {
		switch s.PaymentStatus {
		case models.StatusPending:
			t.Pending = t.Pending.Add(s.Amount)
			t.PendingCount++
		case models.StatusCompleted:
			t.Completed = t.Completed.Add(s.Amount)
			t.CompletedCount++
		}
	}
	return t
}

// Outstanding is what is still to be paid.
func (t Totals) Outstanding() decimal.Decimal {
	return t.Pending
}
