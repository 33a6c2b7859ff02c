package pages

import (
	"context"
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/nav"
)

// ErrNotCreator is returned when someone other than the group's creator
// tries to add a member.
var ErrNotCreator = errors.New("not the group creator")

// Group shows one group with its expenses and lets the creator add members.
type Group struct {
	*Lifecycle
	id        int64
	group     models.Group
	expenses  []models.Expense
	available []models.Member
	selected  string
}

// NewGroup creates the detail page of group id for the user in nc.
func NewGroup(d Deps, nc nav.Context, id int64) *Group {
	return &Group{Lifecycle: newLifecycle(d, nc), id: id}
}

// ID returns the group id the page was opened with.
func (p *Group) ID() int64 {
	return p.id
}

// Mount fetches the anti-forgery token, then the group detail.
func (p *Group) Mount(ctx context.Context) error {
	p.mount(ctx)
	if err := p.fetchCSRF(); errors.Is(err, ErrNotMounted) {
		return err
	}
	return load(p.Lifecycle, p.fetch, p.applyLocked, "Error fetching group details.")
}

func (p *Group) fetch(ctx context.Context) (*api.GroupDetailResponse, error) {
	creds, err := p.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return p.deps.API.GroupDetail(ctx, creds, p.id)
}

func (p *Group) applyLocked(d *api.GroupDetailResponse) {
	p.group = d.Group
	p.expenses = d.Expenses
	p.available = d.AvailableMembers
	p.selected = ""
}

// Detail returns the loaded group.
func (p *Group) Detail() models.Group {
	p.mu.Lock()
	defer p.mu.Unlock()
	g := p.group
	g.Members = slices.Clone(g.Members)
	return g
}

// Expenses returns the group's expenses.
func (p *Group) Expenses() []models.Expense {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.expenses)
}

// CanAddMember reports whether the add-member control is offered: only the
// group's creator sees it.
func (p *Group) CanAddMember() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canAddMemberLocked()
}

func (p *Group) canAddMemberLocked() bool {
	return p.group.IsCreator(p.nav.Username())
}

// Candidates are the users that can be added: the backend's suggestions
// minus current members.
func (p *Group) Candidates() []models.Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Member, 0, len(p.available))
	for _, m := range p.available {
		if !p.group.HasMember(m.Username) {
			out = append(out, m)
		}
	}
	return out
}

// Select chooses the member to add.
func (p *Group) Select(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = strings.TrimSpace(username)
}

// AddMember adds the selected user and reloads the group.
func (p *Group) AddMember() error {
	var username string
	return Submit(p.Lifecycle, Submission[*api.GroupDetailResponse]{
		Validate: func() error {
			if !p.canAddMemberLocked() {
				return ErrNotCreator
			}
			username = p.selected
			if username == "" {
				return &ValidationError{Fields: map[string]string{"member": "Please select a member."}}
			}
			return nil
		},
		Call: func(ctx context.Context) (*api.GroupDetailResponse, error) {
			creds, err := p.credentials(ctx)
			if err != nil {
				return nil, err
			}
			if _, err := p.deps.API.AddMember(ctx, creds, p.id, username); err != nil {
				return nil, err
			}
			return p.deps.API.GroupDetail(ctx, creds, p.id)
		},
		OnSuccess: func(d *api.GroupDetailResponse) string {
			p.applyLocked(d)
			return "Member added successfully!"
		},
		Fallback: "Failed to add member. Please try again.",
	})
}

// AddExpense opens expense entry for this group.
func (p *Group) AddExpense() error {
	return p.Navigate(nav.Expense(p.id))
}

// Home returns to the group list.
func (p *Group) Home() error {
	return p.Navigate(nav.Home())
}

// OpenSettlements opens the user's settlements.
func (p *Group) OpenSettlements() error {
	return p.Navigate(nav.Settlements(p.nav.Username()))
}

// Render writes the page.
func (p *Group) Render(w io.Writer) error {
	pr := &printer{w: w}
	g := p.Detail()
	title := g.Name
	if title == "" {
		title = "Group " + strconv.FormatInt(p.id, 10)
	}
	renderHeader(pr, title, p.View())
	pr.printf("Created by: %s\n", orDash(g.CreatedBy.String()))

	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, m.Username)
	}
	pr.printf("Members: %s\n", orDash(strings.Join(members, ", ")))

	if p.CanAddMember() {
		candidates := p.Candidates()
		names := make([]string, 0, len(candidates))
		for _, m := range candidates {
			names = append(names, m.Username)
		}
		pr.printf("Can add: %s\n", orDash(strings.Join(names, ", ")))
	}

	expenses := p.Expenses()
	if len(expenses) == 0 {
		pr.printf("No expenses yet.\n")
		return pr.err
	}
	rows := [][]string{{"ID", "DATE", "AMOUNT", "CATEGORY", "SPLIT", "PAID BY"}}
	for _, e := range expenses {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Date,
			e.Amount.StringFixed(2),
			strconv.FormatInt(e.Category, 10),
			e.SplitType,
			orDash(e.CreatedBy.String()),
		})
	}
	pr.table(rows)
	return pr.err
}
