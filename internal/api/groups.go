package api

import (
	"context"
	"net/http"

	"github.com/mmynk/extracker/internal/models"
)

// GroupsResponse lists the groups the user belongs to.
type GroupsResponse struct {
	Groups  []models.Group `json:"groups"`
	Message string         `json:"message,omitempty"`
}

// ListGroups returns the groups of the acting user.
func (c *Client) ListGroups(ctx context.Context, creds Credentials) ([]models.Group, error) {
	var out GroupsResponse
	_, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    c.routes.Groups,
		Headers: WithAuth | WithUsername,
		Creds:   creds,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// CreateGroup creates a group with the acting user as creator and member.
func (c *Client) CreateGroup(ctx context.Context, creds Credentials, name string) (*models.Group, error) {
	var out models.Group
	_, err := c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    c.routes.CreateGroup,
		Headers: WithAuth | WithUsername | WithCSRF,
		Creds:   creds,
		JSON:    map[string]string{"group_name": name},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupDetailResponse is a group with its expenses and the users that could
// be added to it.
type GroupDetailResponse struct {
	Group            models.Group     `json:"group"`
	Expenses         []models.Expense `json:"expenses"`
	AvailableMembers []models.Member  `json:"available_members"`
}

// GroupDetail fetches one group.
func (c *Client) GroupDetail(ctx context.Context, creds Credentials, id int64) (*GroupDetailResponse, error) {
	var out GroupDetailResponse
	_, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    path(c.routes.GroupDetail, groupParam(id)),
		Headers: WithAuth | WithUsername,
		Creds:   creds,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddMember adds username to the group. Only the creator may do this.
func (c *Client) AddMember(ctx context.Context, creds Credentials, id int64, username string) (*MessageResponse, error) {
	var out MessageResponse
	_, err := c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    path(c.routes.AddMember, groupParam(id)),
		Headers: WithAuth | WithUsername | WithCSRF,
		Creds:   creds,
		JSON:    map[string]string{"username": username},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
