package apitest

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/extracker/internal/calculator"
	"github.com/mmynk/extracker/internal/middleware"
	"github.com/mmynk/extracker/internal/models"
)

const maxReceiptSize = 5 << 20

// Expenses returns the expenses recorded for a group.
func (b *Backend) Expenses(groupID int64) []models.Expense {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.expenses[groupID])
}

// Receipt returns the receipt uploaded with an expense, if any.
func (b *Backend) Receipt(expenseID int64) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.receipts[expenseID]
	return data, ok
}

func (b *Backend) handleCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	categories := slices.Clone(b.categories)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (b *Backend) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "groupId")
	username := middleware.GetUsername(r.Context())

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form data.")
		return
	}

	fields := map[string][]string{}
	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("amount")))
	if err != nil {
		fields["amount"] = []string{"A valid number is required."}
	} else if !amount.IsPositive() {
		fields["amount"] = []string{"Ensure this value is greater than 0."}
	}
	category, err := strconv.ParseInt(r.FormValue("category"), 10, 64)
	if err != nil {
		fields["category"] = []string{"This field is required."}
	}
	splitType := r.FormValue("split_type")
	if splitType != models.SplitEqual {
		fields["split_type"] = []string{`"` + splitType + `" is not a valid choice.`}
	}
	date := r.FormValue("date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		fields["date"] = []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}
	}

	var receipt []byte
	if f, _, err := r.FormFile("receipt_image"); err == nil {
		receipt, err = io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Could not read the receipt image.")
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if category != 0 && !slices.ContainsFunc(b.categories, func(c models.Category) bool { return c.ID == category }) {
		fields["category"] = []string{`Invalid pk "` + strconv.FormatInt(category, 10) + `" - object does not exist.`}
	}
	g := b.groups[id]
	if g == nil || !slices.Contains(g.members, username) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No Group matches the given query."})
		return
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	shares, err := calculator.SplitEqual(amount, g.members)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to split the expense. Check the logs for details.")
		return
	}

	e := models.Expense{
		ID:        b.id(),
		Amount:    amount.Round(2),
		Category:  category,
		SplitType: splitType,
		Date:      date,
		CreatedBy: models.UserRef(username),
		GroupID:   id,
	}
	if receipt != nil {
		e.ReceiptImage = "/media/receipts/" + strconv.FormatInt(e.ID, 10)
		b.receipts[e.ID] = receipt
	}
	b.expenses[id] = append(b.expenses[id], e)

	due := b.now().AddDate(0, 1, 0).Format(dateLayout)
	for _, s := range shares {
		b.settlements = append(b.settlements, &settlement{
			Settlement: models.Settlement{
				ID:            b.id(),
				GroupName:     g.name,
				Amount:        s.Amount,
				PaymentStatus: models.StatusPending,
				DueDate:       due,
			},
			username: s.Username,
			groupID:  id,
		})
	}

	slog.Info("Expense added", "group_id", id, "amount", e.Amount, "shares", len(shares))
	writeJSON(w, http.StatusCreated, e)
}
