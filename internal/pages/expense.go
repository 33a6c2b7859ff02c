package pages

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/nav"
)

const dateLayout = "2006-01-02"

// ReceiptFile is an image to attach to an expense.
type ReceiptFile struct {
	Name string
	Data []byte
}

// ExpenseForm is what the expense page collects.
type ExpenseForm struct {
	// Amount is the total paid, as typed ("45.50").
	Amount   string
	Category int64
	// Date is YYYY-MM-DD; it defaults to today on mount.
	Date    string
	Receipt *ReceiptFile
}

// Expense records an expense for a group. The backend splits it equally
// between the members.
type Expense struct {
	*Lifecycle
	groupID    int64
	categories []models.Category
	form       ExpenseForm
}

// NewExpense creates the expense page of group groupID for the user in nc.
func NewExpense(d Deps, nc nav.Context, groupID int64) *Expense {
	return &Expense{Lifecycle: newLifecycle(d, nc), groupID: groupID}
}

// Mount resets the form to today's date, fetches the anti-forgery token,
// then the categories.
func (p *Expense) Mount(ctx context.Context) error {
	p.mount(ctx)
	p.mu.Lock()
	p.form = ExpenseForm{Date: p.deps.now().Format(dateLayout)}
	p.mu.Unlock()
	if err := p.fetchCSRF(); errors.Is(err, ErrNotMounted) {
		return err
	}
	return load(p.Lifecycle, func(ctx context.Context) ([]models.Category, error) {
		creds, err := p.credentials(ctx)
		if err != nil {
			return nil, err
		}
		return p.deps.API.ListCategories(ctx, creds, p.groupID)
	}, func(categories []models.Category) {
		p.categories = categories
	}, "Error fetching categories.")
}

// Categories returns the categories offered.
func (p *Expense) Categories() []models.Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.categories)
}

// SetForm replaces the entered values.
func (p *Expense) SetForm(f ExpenseForm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = f
}

// Form returns the entered values.
func (p *Expense) Form() ExpenseForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// Submit records the expense. Amount, category and date are required and
// are checked before anything is sent. Only a 201 from the backend counts
// as created; it schedules exactly one navigation back to the group after
// ExpenseDelay.
func (p *Expense) Submit() error {
	var e api.NewExpense
	return Submit(p.Lifecycle, Submission[*models.Expense]{
		Validate: func() error {
			var err error
			e, err = p.validateLocked()
			return err
		},
		Call: func(ctx context.Context) (*models.Expense, error) {
			creds, err := p.credentials(ctx)
			if err != nil {
				return nil, err
			}
			return p.deps.API.CreateExpense(ctx, creds, e)
		},
		OnSuccess: func(*models.Expense) string {
			p.navigateAfterLocked(ExpenseDelay, nav.Group(p.groupID), p.nav)
			return "Expense added successfully!"
		},
		Fallback: "Failed to add expense. Please try again.",
	})
}

func (p *Expense) validateLocked() (api.NewExpense, error) {
	user := p.nav.User
	if user == nil || user.Username == "" {
		return api.NewExpense{}, api.ErrNoUser
	}

	f := p.form
	verr := &ValidationError{}

	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	switch {
	case strings.TrimSpace(f.Amount) == "":
		verr.add("amount", "Amount is required")
	case err != nil:
		verr.add("amount", "Amount must be a number")
	case !amount.IsPositive():
		verr.add("amount", "Amount must be greater than zero")
	}

	if f.Category == 0 {
		verr.add("category", "Category is required")
	}

	date := strings.TrimSpace(f.Date)
	if date == "" {
		verr.add("date", "Date is required")
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		verr.add("date", "Date must be YYYY-MM-DD")
	}

	if err := verr.orNil(); err != nil {
		return api.NewExpense{}, err
	}

	e := api.NewExpense{
		Amount:    amount,
		Category:  f.Category,
		SplitType: models.SplitEqual,
		Date:      date,
		CreatedBy: user.Username,
		GroupID:   p.groupID,
	}
	if f.Receipt != nil && len(f.Receipt.Data) > 0 {
		e.Receipt = &api.Receipt{
			Filename: f.Receipt.Name,
			Content:  bytes.NewReader(f.Receipt.Data),
		}
	}
	return e, nil
}

// Back returns to the group.
func (p *Expense) Back() error {
	return p.Navigate(nav.Group(p.groupID))
}

// Render writes the page.
func (p *Expense) Render(w io.Writer) error {
	pr := &printer{w: w}
	renderHeader(pr, "Add Expense to Group "+strconv.FormatInt(p.groupID, 10), p.View())
	f := p.Form()
	pr.printf("Amount: %s\n", orDash(f.Amount))
	pr.printf("Date: %s\n", orDash(f.Date))

	rows := [][]string{{"", "CATEGORY ID", "NAME"}}
	for _, c := range p.Categories() {
		mark := ""
		if c.ID == f.Category {
			mark = "*"
		}
		rows = append(rows, []string{mark, strconv.FormatInt(c.ID, 10), c.Name})
	}
	if len(rows) == 1 {
		pr.printf("No categories found.\n")
		return pr.err
	}
	pr.table(rows)
	return pr.err
}
