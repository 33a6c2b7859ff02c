package apitest

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mmynk/extracker/internal/middleware"
	"github.com/mmynk/extracker/internal/models"
)

// AddGroup creates a group owned by creator. The creator is always a member.
func (b *Backend) AddGroup(name, creator string, members ...string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range append([]string{creator}, members...) {
		if b.users[u] == nil {
			return 0, fmt.Errorf("unknown user %q", u)
		}
	}
	g := &group{id: b.id(), name: name, creator: creator, members: []string{creator}}
	for _, m := range members {
		if !slices.Contains(g.members, m) {
			g.members = append(g.members, m)
		}
	}
	b.groups[g.id] = g
	return g.id, nil
}

// Members returns the members of a group.
func (b *Backend) Members(groupID int64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g := b.groups[groupID]; g != nil {
		return slices.Clone(g.members)
	}
	return nil
}

func (g *group) model() models.Group {
	out := models.Group{ID: g.id, Name: g.name, CreatedBy: models.UserRef(g.creator)}
	for _, m := range g.members {
		out.Members = append(out.Members, models.Member{Username: m})
	}
	return out
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

// groupsOfLocked returns the groups username belongs to, by id.
func (b *Backend) groupsOfLocked(username string) []models.Group {
	var out []models.Group
	for _, g := range b.groups {
		if slices.Contains(g.members, username) {
			out = append(out, g.model())
		}
	}
	slices.SortFunc(out, func(x, y models.Group) int {
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

func (b *Backend) handleListGroups(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	b.mu.Lock()
	groups := b.groupsOfLocked(username)
	b.mu.Unlock()

	if len(groups) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "You are not a member of any group.",
			"groups":  []models.Group{},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (b *Backend) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupName string `json:"group_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.GroupName)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Group name is required.")
		return
	}

	id, err := b.AddGroup(name, middleware.GetUsername(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	b.mu.Lock()
	g := b.groups[id].model()
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, g)
}

func (b *Backend) handleGroupDetail(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "groupId")
	username := middleware.GetUsername(r.Context())

	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.groups[id]
	if g == nil {
		writeError(w, http.StatusNotFound, "Group not found.")
		return
	}
	if !slices.Contains(g.members, username) {
		writeError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}

	// Users from the viewer's college, except the viewer.
	available := []models.Member{}
	if viewer := b.users[username]; viewer != nil {
		for _, u := range b.users {
			if u.profile.Username != username && u.profile.College == viewer.profile.College {
				available = append(available, models.Member{Username: u.profile.Username})
			}
		}
	}
	slices.SortFunc(available, func(x, y models.Member) int {
		return strings.Compare(x.Username, y.Username)
	})

	expenses := slices.Clone(b.expenses[id])
	if expenses == nil {
		expenses = []models.Expense{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group":             g.model(),
		"expenses":          expenses,
		"available_members": available,
	})
}

func (b *Backend) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "groupId")
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.groups[id]
	switch {
	case g == nil:
		writeError(w, http.StatusNotFound, "Group not found.")
	case g.creator != middleware.GetUsername(r.Context()):
		writeError(w, http.StatusForbidden, "Only the group creator can add members")
	case req.Username == "":
		writeError(w, http.StatusBadRequest, "Username is required")
	case b.users[req.Username] == nil:
		writeError(w, http.StatusNotFound, "User not found")
	case slices.Contains(g.members, req.Username):
		writeError(w, http.StatusBadRequest, "User is already a member of the group")
	default:
		g.members = append(g.members, req.Username)
		writeMessage(w, http.StatusOK, "Member added successfully")
	}
}
