package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mmynk/extracker/internal/models"
)

// ListCategories returns the expense categories offered for a group.
func (c *Client) ListCategories(ctx context.Context, creds Credentials, groupID int64) ([]models.Category, error) {
	var out struct {
		Categories []models.Category `json:"categories"`
	}
	_, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    path(c.routes.Categories, groupParam(groupID)),
		Headers: WithAuth,
		Creds:   creds,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Receipt is an optional image attached to an expense.
type Receipt struct {
	Filename string
	Content  io.Reader
}

// NewExpense is the expense form.
type NewExpense struct {
	Amount    decimal.Decimal
	Category  int64
	SplitType string
	// Date is YYYY-MM-DD.
	Date      string
	CreatedBy string
	GroupID   int64
	Receipt   *Receipt
}

func (e NewExpense) multipart() *Multipart {
	splitType := e.SplitType
	if splitType == "" {
		splitType = models.SplitEqual
	}
	form := &Multipart{
		Fields: []FormField{
			{Name: "amount", Value: e.Amount.StringFixed(2)},
			{Name: "category", Value: strconv.FormatInt(e.Category, 10)},
			{Name: "split_type", Value: splitType},
			{Name: "date", Value: e.Date},
			{Name: "created_by", Value: e.CreatedBy},
			{Name: "group_id", Value: strconv.FormatInt(e.GroupID, 10)},
		},
	}
	if e.Receipt != nil && e.Receipt.Content != nil {
		form.Files = append(form.Files, FormFile{
			Field:    "receipt_image",
			Filename: e.Receipt.Filename,
			Content:  e.Receipt.Content,
		})
	}
	return form
}

// CreateExpense records an expense. The backend splits it and answers 201;
// any other status, 2xx included, is a failure.
func (c *Client) CreateExpense(ctx context.Context, creds Credentials, e NewExpense) (*models.Expense, error) {
	var out models.Expense
	_, err := c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    path(c.routes.CreateExpense, groupParam(e.GroupID)),
		Headers: WithAuth,
		Creds:   creds,
		Form:    e.multipart(),
		Expect:  []int{http.StatusCreated},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
