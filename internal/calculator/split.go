// Package calculator holds the money arithmetic: splitting an expense
// equally between group members and summarizing settlements.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Share is one member's part of an equally split expense.
type Share struct {
	Username string
	Amount   decimal.Decimal
}

// SplitEqual divides amount between members in cents. Cents that do not
// divide evenly go to the first members, one each, so the shares always sum
// to amount.
func SplitEqual(amount decimal.Decimal, members []string) ([]Share, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("group has no members to split the expense")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}

	cents := amount.Shift(2).Round(0).IntPart()
	n := int64(len(members))
	base := cents / n
	remainder := cents % n

	shares := make([]Share, len(members))
	for i, member := range members {
		c := base
		if int64(i) < remainder {
			c++
		}
		shares[i] = Share{
			Username: member,
			Amount:   decimal.New(c, -2),
		}
	}

	return shares, nil
}
