package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/calculator"
	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/nav"
	"github.com/mmynk/extracker/internal/sorting"
)

var (
	// ErrSettlementNotFound is returned for an id not in the loaded list.
	ErrSettlementNotFound = errors.New("settlement not found")

	// ErrAlreadyCompleted is returned when marking a completed settlement.
	ErrAlreadyCompleted = errors.New("settlement is already completed")
)

// Settlements lists what the user owes and tracks payments.
type Settlements struct {
	*Lifecycle
	list []models.Settlement
	sort sorting.Config
}

// NewSettlements creates the settlements page for the user in nc.
func NewSettlements(d Deps, nc nav.Context) *Settlements {
	return &Settlements{Lifecycle: newLifecycle(d, nc), sort: sorting.Default}
}

// Mount fetches the anti-forgery token, then the settlements. The list is
// shown in the backend's order until a column is clicked.
func (p *Settlements) Mount(ctx context.Context) error {
	p.mount(ctx)
	if err := p.fetchCSRF(); errors.Is(err, ErrNotMounted) {
		return err
	}
	return load(p.Lifecycle, func(ctx context.Context) ([]models.Settlement, error) {
		creds, err := p.credentials(ctx)
		if err != nil {
			return nil, err
		}
		return p.deps.API.ListSettlements(ctx, creds)
	}, func(list []models.Settlement) {
		p.list = list
		p.sort = sorting.Default
	}, "Error fetching settlements.")
}

// List returns the settlements in display order.
func (p *Settlements) List() []models.Settlement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.list)
}

// SortConfig returns the active column and direction.
func (p *Settlements) SortConfig() sorting.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sort
}

// Sort applies a click on the column key. It never contacts the backend.
func (p *Settlements) Sort(key sorting.Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	sorted, next, err := sorting.Click(p.list, p.sort, key)
	if err != nil {
		return err
	}
	p.list, p.sort = sorted, next
	return nil
}

// Totals sums the loaded settlements per payment status.
func (p *Settlements) Totals() calculator.Totals {
	p.mu.Lock()
	defer p.mu.Unlock()
	return calculator.SettlementTotals(p.list)
}

// MarkCompleted sets a pending settlement to Completed. The row is changed
// only after the backend confirms; other rows and the order are untouched.
func (p *Settlements) MarkCompleted(id int64) error {
	return Submit(p.Lifecycle, Submission[*api.MessageResponse]{
		Validate: func() error {
			i := p.indexLocked(id)
			if i < 0 {
				return fmt.Errorf("%w (id %d)", ErrSettlementNotFound, id)
			}
			if p.list[i].PaymentStatus == models.StatusCompleted {
				return ErrAlreadyCompleted
			}
			return nil
		},
		Call: func(ctx context.Context) (*api.MessageResponse, error) {
			creds, err := p.credentials(ctx)
			if err != nil {
				return nil, err
			}
			return p.deps.API.UpdateSettlementStatus(ctx, creds, id, models.StatusCompleted)
		},
		OnSuccess: func(*api.MessageResponse) string {
			if i := p.indexLocked(id); i >= 0 {
				p.list[i].PaymentStatus = models.StatusCompleted
			}
			return "Payment status updated successfully!"
		},
		Fallback: "Failed to update payment status. Please try again.",
	})
}

func (p *Settlements) indexLocked(id int64) int {
	return slices.IndexFunc(p.list, func(s models.Settlement) bool {
		return s.ID == id
	})
}

// Home returns to the group list.
func (p *Settlements) Home() error {
	return p.Navigate(nav.Home())
}

// Render writes the page.
func (p *Settlements) Render(w io.Writer) error {
	pr := &printer{w: w}
	renderHeader(pr, "Your Settlements", p.View())

	list := p.List()
	if len(list) == 0 {
		pr.printf("No settlements found.\n")
		return pr.err
	}

	cfg := p.SortConfig()
	header := make([]string, 0, len(sorting.Keys)+1)
	header = append(header, "ID")
	for _, k := range sorting.Keys {
		label := string(k)
		if k == cfg.Key {
			if cfg.Direction == sorting.Asc {
				label += " ^"
			} else {
				label += " v"
			}
		}
		header = append(header, label)
	}
	rows := [][]string{header}
	for _, s := range list {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.GroupName,
			s.Amount.StringFixed(2),
			string(s.PaymentStatus),
			orDash(s.SettlementMethod),
			orDash(s.DueDate),
			orDash(s.SettlementDate),
		})
	}
	pr.table(rows)

	t := calculator.SettlementTotals(list)
	pr.printf("Pending: %s (%d)  Completed: %s (%d)\n",
		t.Pending.StringFixed(2), t.PendingCount,
		t.Completed.StringFixed(2), t.CompletedCount)
	return pr.err
}
