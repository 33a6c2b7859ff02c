// Package sorting reorders a settlement list by a clicked column.
//
// The rule is the one of a sortable table header: clicking the active
// column flips its direction, clicking any other column makes it active in
// ascending order. Sorting is stable, so rows with equal keys keep their
// relative order.
package sorting

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/extracker/internal/models"
)

// ErrUnknownKey is returned for a column that cannot be sorted on.
var ErrUnknownKey = errors.New("unknown sort key")

// Key names a sortable settlement column.
type Key string

const (
	KeyGroupName        Key = "group_name"
	KeyAmount           Key = "amount"
	KeyPaymentStatus    Key = "payment_status"
	KeySettlementMethod Key = "settlement_method"
	KeyDueDate          Key = "due_date"
	KeySettlementDate   Key = "settlement_date"
)

// Keys lists the sortable columns in display order.
var Keys = []Key{KeyGroupName, KeyAmount, KeyPaymentStatus, KeySettlementMethod, KeyDueDate, KeySettlementDate}

// ParseKey validates a column name.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if slices.Contains(Keys, k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// Direction is ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Config is the active column and its direction.
type Config struct {
	Key       Key
	Direction Direction
}

// Default is the initial config of the settlements table.
var Default = Config{Key: KeyGroupName, Direction: Asc}

// Next returns the config after clicking key.
func (c Config) Next(key Key) Config {
	if c.Key == key && c.Direction == Asc {
		return Config{Key: key, Direction: Desc}
	}
	return Config{Key: key, Direction: Asc}
}

// Click applies a header click: it computes the next config and returns a
// newly allocated list sorted by it. The input is not modified.
func Click(list []models.Settlement, current Config, key Key) ([]models.Settlement, Config, error) {
	if _, err := ParseKey(string(key)); err != nil {
		return nil, current, err
	}
	next := current.Next(key)
	return Sort(list, next), next, nil
}

// Sort returns a stable-sorted copy of list. An unknown key leaves the order
// unchanged.
func Sort(list []models.Settlement, c Config) []models.Settlement {
	out := slices.Clone(list)
	compare := comparator(c.Key)
	if compare == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b models.Settlement) int {
		if c.Direction == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

func comparator(key Key) func(a, b models.Settlement) int {
	switch key {
	case KeyGroupName:
		return func(a, b models.Settlement) int { return cmp.Compare(a.GroupName, b.GroupName) }
	case KeyAmount:
		return func(a, b models.Settlement) int { return a.Amount.Cmp(b.Amount) }
	case KeyPaymentStatus:
		return func(a, b models.Settlement) int { return cmp.Compare(a.PaymentStatus, b.PaymentStatus) }
	case KeySettlementMethod:
		return func(a, b models.Settlement) int { return cmp.Compare(a.SettlementMethod, b.SettlementMethod) }
	case KeyDueDate:
		return func(a, b models.Settlement) int { return cmp.Compare(a.DueDate, b.DueDate) }
	case KeySettlementDate:
		return func(a, b models.Settlement) int { return cmp.Compare(a.SettlementDate, b.SettlementDate) }
	}
	return nil
}
