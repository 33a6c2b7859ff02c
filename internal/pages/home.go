package pages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/internal/nav"
)

// Home lists the user's groups and creates new ones.
type Home struct {
	*Lifecycle
	groups    []models.Group
	groupName string
}

// NewHome creates the home page for the user in nc.
func NewHome(d Deps, nc nav.Context) *Home {
	return &Home{Lifecycle: newLifecycle(d, nc)}
}

// Mount fetches the anti-forgery token, then the groups.
func (p *Home) Mount(ctx context.Context) error {
	p.mount(ctx)
	if err := p.fetchCSRF(); errors.Is(err, ErrNotMounted) {
		return err
	}
	return load(p.Lifecycle, p.listGroups, func(groups []models.Group) {
		p.groups = groups
	}, "Error fetching groups")
}

func (p *Home) listGroups(ctx context.Context) ([]models.Group, error) {
	creds, err := p.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return p.deps.API.ListGroups(ctx, creds)
}

// Groups returns the loaded groups.
func (p *Home) Groups() []models.Group {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.groups)
}

// SetGroupName replaces the entered name.
func (p *Home) SetGroupName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groupName = name
}

// GroupName returns the entered name.
func (p *Home) GroupName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.groupName
}

// createdGroup is the result of CreateGroup.
type createdGroup struct {
	group     *models.Group
	groups    []models.Group
	refreshed bool
}

// CreateGroup creates a group from the entered name and refreshes the list.
// A failed refresh does not fail the creation: the new group is appended to
// the current list instead.
func (p *Home) CreateGroup() error {
	var name string
	return Submit(p.Lifecycle, Submission[createdGroup]{
		Validate: func() error {
			name = strings.TrimSpace(p.groupName)
			if name == "" {
				return &ValidationError{Fields: map[string]string{"group_name": "Group name is required"}}
			}
			return nil
		},
		Call: func(ctx context.Context) (createdGroup, error) {
			creds, err := p.credentials(ctx)
			if err != nil {
				return createdGroup{}, err
			}
			g, err := p.deps.API.CreateGroup(ctx, creds, name)
			if err != nil {
				return createdGroup{}, err
			}
			groups, err := p.deps.API.ListGroups(ctx, creds)
			if err != nil {
				slog.Warn("Failed to refresh groups", "error", err)
				return createdGroup{group: g}, nil
			}
			return createdGroup{group: g, groups: groups, refreshed: true}, nil
		},
		OnSuccess: func(res createdGroup) string {
			p.groupName = ""
			if !res.refreshed {
				if res.group != nil {
					p.groups = append(p.groups, *res.group)
				}
				return "Group created successfully! The list could not be refreshed."
			}
			p.groups = res.groups
			return "Group created successfully!"
		},
		Fallback: "Error creating group",
	})
}

// OpenGroup opens the detail page of a group.
func (p *Home) OpenGroup(id int64) error {
	return p.Navigate(nav.Group(id))
}

// OpenSettlements opens the user's settlements.
func (p *Home) OpenSettlements() error {
	return p.Navigate(nav.Settlements(p.nav.Username()))
}

// Render writes the page.
func (p *Home) Render(w io.Writer) error {
	pr := &printer{w: w}
	renderHeader(pr, "Your Groups", p.View())
	if u := p.User(); u != nil {
		pr.printf("Welcome, %s\n", u.Username)
	}
	groups := p.Groups()
	if len(groups) == 0 {
		pr.printf("You are not a member of any group.\n")
		return pr.err
	}
	rows := [][]string{{"ID", "NAME", "CREATED BY", "MEMBERS"}}
	for _, g := range groups {
		rows = append(rows, []string{
			strconv.FormatInt(g.ID, 10),
			g.Name,
			orDash(g.CreatedBy.String()),
			strconv.Itoa(len(g.Members)),
		})
	}
	pr.table(rows)
	return pr.err
}
