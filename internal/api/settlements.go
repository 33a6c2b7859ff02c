package api

import (
	"context"
	"net/http"

	"github.com/mmynk/extracker/internal/models"
)

// ListSettlements returns the settlements owed by the acting user.
func (c *Client) ListSettlements(ctx context.Context, creds Credentials) ([]models.Settlement, error) {
	var out struct {
		Settlements []models.Settlement `json:"settlements"`
	}
	_, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    path(c.routes.Settlements, userParam(creds.Username)),
		Headers: WithAuth | WithUsername,
		Creds:   creds,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Settlements, nil
}

// UpdateSettlementStatus sets the payment status of one settlement.
func (c *Client) UpdateSettlementStatus(ctx context.Context, creds Credentials, id int64, status models.PaymentStatus) (*MessageResponse, error) {
	var out MessageResponse
	_, err := c.Do(ctx, Request{
		Method:  http.MethodPatch,
		Path:    path(c.routes.SettlementStatus, settlementParam(id)),
		Headers: WithAuth | WithUsername,
		Creds:   creds,
		JSON:    map[string]models.PaymentStatus{"payment_status": status},
		Expect:  []int{http.StatusOK},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
