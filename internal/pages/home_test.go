package pages

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/apitest"
	"github.com/mmynk/extracker/internal/nav"
)

func TestHomeListsAndCreatesGroups(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	h.user(t, "bob")
	_, err := h.backend.AddGroup("Trip to Banff", "alice", "bob")
	require.NoError(t, err)
	_, err = h.backend.AddGroup("Bob only", "bob")
	require.NoError(t, err)
	nc := h.loginAs(t, "alice")

	p := NewHome(h.deps, nc)
	mount(t, p)
	assert.Equal(t, StatusIdle, p.View().Status)
	require.Len(t, p.Groups(), 1)
	assert.Equal(t, "Trip to Banff", p.Groups()[0].Name)

	p.SetGroupName("   ")
	require.Error(t, p.CreateGroup())
	assert.Equal(t, "Group name is required", p.View().FieldErrors["group_name"])
	assert.Zero(t, h.backend.Calls(apitest.RouteCreateGroup))

	p.SetGroupName("Weekend Getaway")
	require.NoError(t, p.CreateGroup())
	assert.Equal(t, "Group created successfully!", p.View().Message)
	assert.Empty(t, p.GroupName())
	assert.Len(t, p.Groups(), 2)
	assert.Equal(t, 2, h.backend.Calls(apitest.RouteGroups))
	assert.Empty(t, h.sched.Pending(), "creating a group stays on the page")

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.Contains(t, buf.String(), "Welcome, alice")
	assert.Contains(t, buf.String(), "Weekend Getaway")
}

func TestHomeWithoutSession(t *testing.T) {
	h := newHarness(t)
	p := NewHome(h.deps, nav.Context{})
	require.ErrorIs(t, p.Mount(context.Background()), api.ErrNoSession)
	defer p.Unmount()

	assert.Equal(t, "Authorization token not found.", p.View().Error)
	assert.Zero(t, h.backend.Calls(apitest.RouteGroups))
}

func TestHomeNavigation(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	nc := h.loginAs(t, "alice")
	p := NewHome(h.deps, nc)
	mount(t, p)

	require.NoError(t, p.OpenGroup(7))
	require.NoError(t, p.OpenSettlements())
	visits := h.nav.Visits()
	require.Len(t, visits, 2)
	assert.Equal(t, nav.Group(7), visits[0].Route)
	assert.Equal(t, nav.Settlements("alice"), visits[1].Route)
	assert.Equal(t, "alice", visits[1].Context.Username())
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	nc := h.loginAs(t, "alice")
	p := NewHome(h.deps, nc)
	mount(t, p)

	require.NoError(t, p.Logout(context.Background()))
	sess, err := h.session.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn())

	last, ok := h.nav.Last()
	require.True(t, ok)
	assert.Equal(t, nav.Login(), last.Route)
	assert.Nil(t, last.Context.User)
}

func TestGroupAddMember(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	h.user(t, "bob")
	h.user(t, "carol")
	id, err := h.backend.AddGroup("Trip to Banff", "alice", "bob")
	require.NoError(t, err)

	p := NewGroup(h.deps, h.loginAs(t, "alice"), id)
	mount(t, p)
	assert.Equal(t, 1, h.backend.Calls(apitest.RouteCSRF))
	assert.Equal(t, "Trip to Banff", p.Detail().Name)
	assert.True(t, p.CanAddMember())
	require.Len(t, p.Candidates(), 1)
	assert.Equal(t, "carol", p.Candidates()[0].Username)

	require.Error(t, p.AddMember())
	assert.Equal(t, "Please select a member.", p.View().FieldErrors["member"])
	assert.Zero(t, h.backend.Calls(apitest.RouteAddMember))

	p.Select("carol")
	require.NoError(t, p.AddMember())
	assert.Equal(t, "Member added successfully!", p.View().Message)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, h.backend.Members(id))
	detail := p.Detail()
	assert.True(t, detail.HasMember("carol"), "detail is reloaded")
	assert.Empty(t, p.Candidates())

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.Contains(t, buf.String(), "Members: alice, bob, carol")
	assert.Contains(t, buf.String(), "No expenses yet.")
}

func TestGroupMountFetchesTokenFirst(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	id, err := h.backend.AddGroup("Trip", "alice")
	require.NoError(t, err)

	csrfCalls := -1
	h.backend.Intercept(apitest.RouteGroupDetail, func(w http.ResponseWriter, r *http.Request) {
		csrfCalls = h.backend.Calls(apitest.RouteCSRF)
		w.WriteHeader(http.StatusInternalServerError)
	})

	p := NewGroup(h.deps, h.loginAs(t, "alice"), id)
	require.Error(t, p.Mount(context.Background()))
	defer p.Unmount()
	assert.Equal(t, 1, csrfCalls, "token is fetched before the group detail")
	assert.Equal(t, "Error fetching group details.", p.View().Error)
}

func TestHomeCreateGroupRefreshFails(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	_, err := h.backend.AddGroup("Trip to Banff", "alice")
	require.NoError(t, err)

	p := NewHome(h.deps, h.loginAs(t, "alice"))
	mount(t, p)
	require.Len(t, p.Groups(), 1)

	h.backend.Intercept(apitest.RouteGroups, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	p.SetGroupName("Weekend Getaway")
	require.NoError(t, p.CreateGroup())

	v := p.View()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, "Group created successfully! The list could not be refreshed.", v.Message)
	assert.Equal(t, 1, h.backend.Calls(apitest.RouteCreateGroup))
	groups := p.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Weekend Getaway", groups[1].Name)
	assert.Empty(t, p.GroupName())
}

func TestGroupAddMemberRejected(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	h.user(t, "bob")
	id, err := h.backend.AddGroup("Trip", "alice", "bob")
	require.NoError(t, err)

	p := NewGroup(h.deps, h.loginAs(t, "alice"), id)
	mount(t, p)
	p.Select("nobody")
	require.Error(t, p.AddMember())
	assert.Equal(t, "User not found", p.View().Error)
	assert.ElementsMatch(t, []string{"alice", "bob"}, h.backend.Members(id))
}

func TestGroupNonCreator(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	h.user(t, "bob")
	h.user(t, "carol")
	id, err := h.backend.AddGroup("Trip", "alice", "bob")
	require.NoError(t, err)

	p := NewGroup(h.deps, h.loginAs(t, "bob"), id)
	mount(t, p)
	assert.False(t, p.CanAddMember())

	p.Select("carol")
	assert.ErrorIs(t, p.AddMember(), ErrNotCreator)
	assert.Equal(t, "Only the group creator can add members", p.View().Error)
	assert.Zero(t, h.backend.Calls(apitest.RouteAddMember))

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.NotContains(t, buf.String(), "Can add:")

	require.NoError(t, p.AddExpense())
	last, _ := h.nav.Last()
	assert.Equal(t, nav.Expense(id), last.Route)
}

func TestGroupNotMember(t *testing.T) {
	h := newHarness(t)
	h.user(t, "alice")
	h.user(t, "dave")
	id, err := h.backend.AddGroup("Trip", "alice")
	require.NoError(t, err)

	p := NewGroup(h.deps, h.loginAs(t, "dave"), id)
	require.Error(t, p.Mount(context.Background()))
	defer p.Unmount()
	assert.Equal(t, "You are not a member of this group", p.View().Error)
}
