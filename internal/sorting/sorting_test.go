package sorting

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/extracker/internal/models"
)

func banffAndGetaway() []models.Settlement {
	return []models.Settlement{
		{ID: 1, GroupName: "Trip to Banff", Amount: decimal.NewFromInt(200), PaymentStatus: models.StatusPending},
		{ID: 2, GroupName: "Weekend Getaway", Amount: decimal.NewFromInt(150), PaymentStatus: models.StatusCompleted},
	}
}

func ids(list []models.Settlement) []int64 {
	out := make([]int64, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func TestClickAmountTwice(t *testing.T) {
	list := banffAndGetaway()

	asc, cfg, err := Click(list, Default, KeyAmount)
	require.NoError(t, err)
	assert.Equal(t, Config{Key: KeyAmount, Direction: Asc}, cfg)
	assert.Equal(t, []int64{2, 1}, ids(asc), "Weekend Getaway(150) then Trip to Banff(200)")

	desc, cfg, err := Click(asc, cfg, KeyAmount)
	require.NoError(t, err)
	assert.Equal(t, Config{Key: KeyAmount, Direction: Desc}, cfg)
	assert.Equal(t, []int64{1, 2}, ids(desc), "Trip to Banff(200) then Weekend Getaway(150)")

	// Input is never modified.
	assert.Equal(t, []int64{1, 2}, ids(list))
}

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current Config
		click   Key
		want    Config
	}{
		{"active asc flips to desc", Config{KeyAmount, Asc}, KeyAmount, Config{KeyAmount, Desc}},
		{"active desc flips back to asc", Config{KeyAmount, Desc}, KeyAmount, Config{KeyAmount, Asc}},
		{"other column starts asc", Config{KeyAmount, Desc}, KeyDueDate, Config{KeyDueDate, Asc}},
		{"default group_name click goes desc", Default, KeyGroupName, Config{KeyGroupName, Desc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.current.Next(tt.click))
		})
	}
}

func TestClickUnknownKey(t *testing.T) {
	list := banffAndGetaway()
	out, cfg, err := Click(list, Default, Key("id"))
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.Nil(t, out)
	assert.Equal(t, Default, cfg)
}

func TestSortIsStable(t *testing.T) {
	list := []models.Settlement{
		{ID: 1, GroupName: "B", PaymentStatus: models.StatusPending},
		{ID: 2, GroupName: "A", PaymentStatus: models.StatusPending},
		{ID: 3, GroupName: "C", PaymentStatus: models.StatusCompleted},
		{ID: 4, GroupName: "D", PaymentStatus: models.StatusPending},
	}

	asc := Sort(list, Config{KeyPaymentStatus, Asc})
	assert.Equal(t, []int64{3, 1, 2, 4}, ids(asc))

	desc := Sort(list, Config{KeyPaymentStatus, Desc})
	assert.Equal(t, []int64{1, 2, 4, 3}, ids(desc), "ties keep their input order in both directions")
}

func TestSortAmountIsNumeric(t *testing.T) {
	list := []models.Settlement{
		{ID: 1, Amount: decimal.RequireFromString("100.00")},
		{ID: 2, Amount: decimal.RequireFromString("9.50")},
		{ID: 3, Amount: decimal.RequireFromString("25")},
	}
	got := Sort(list, Config{KeyAmount, Asc})
	assert.Equal(t, []int64{2, 3, 1}, ids(got))
}

func TestSortDatesAndEmptyValues(t *testing.T) {
	list := []models.Settlement{
		{ID: 1, DueDate: "2024-05-01", SettlementDate: "2024-05-03"},
		{ID: 2, DueDate: "2024-04-15"},
		{ID: 3, DueDate: "2024-12-01", SettlementDate: "2024-04-20"},
	}
	assert.Equal(t, []int64{2, 1, 3}, ids(Sort(list, Config{KeyDueDate, Asc})))
	assert.Equal(t, []int64{2, 3, 1}, ids(Sort(list, Config{KeySettlementDate, Asc})), "missing dates sort first")
}

// randomSettlements builds n settlements with distinct values in every
// column so orderings are total.
func randomSettlements(r *rand.Rand, n int) []models.Settlement {
	perm := r.Perm(n)
	list := make([]models.Settlement, n)
	for i := range list {
		p := perm[i]
		list[i] = models.Settlement{
			ID:               int64(i + 1),
			GroupName:        fmt.Sprintf("group-%03d", p),
			Amount:           decimal.New(int64(p)*7+3, -1),
			PaymentStatus:    models.PaymentStatus(fmt.Sprintf("s%03d", p)),
			SettlementMethod: fmt.Sprintf("m%03d", n-1-p),
			DueDate:          fmt.Sprintf("2024-%02d-%02d", p%12+1, p%28+1) + fmt.Sprintf("#%03d", p),
			SettlementDate:   fmt.Sprintf("d%03d", n-p),
		}
	}
	return list
}

func TestClickSequenceProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for round := 0; round < 50; round++ {
		list := randomSettlements(r, 1+r.Intn(20))
		cfg := Default

		for step := 0; step < 10; step++ {
			key := Keys[r.Intn(len(Keys))]
			before := cfg

			sorted, next, err := Click(list, cfg, key)
			require.NoError(t, err)
			require.Equal(t, before.Next(key), next)

			// Ordered by the declared key and direction.
			compare := comparator(next.Key)
			for i := 1; i < len(sorted); i++ {
				c := compare(sorted[i-1], sorted[i])
				if next.Direction == Asc {
					require.LessOrEqual(t, c, 0)
				} else {
					require.GreaterOrEqual(t, c, 0)
				}
			}

			// Idempotent when reapplied.
			require.Equal(t, ids(sorted), ids(Sort(sorted, next)))

			// A second click on the same column exactly reverses the order.
			again, _, err := Click(sorted, next, key)
			require.NoError(t, err)
			reversed := ids(sorted)
			slices.Reverse(reversed)
			require.Equal(t, reversed, ids(again))

			list, cfg = sorted, next
		}
	}
}
