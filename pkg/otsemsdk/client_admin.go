package otsemsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// ListUsers returns one page of accounts. Zero page and limit fall back to
// page 1 of 10.
func (c *Client) ListUsers(ctx context.Context, p ListUsersParams) (*UsersPage, error) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/admin/users?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var page UsersPage
	if err := decodeJSON(resp, &page, http.StatusOK); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdjustBalance credits or debits an account by hand. The adjustment is
// validated before anything is sent.
func (c *Client) AdjustBalance(ctx context.Context, accountID string, adj BalanceAdjustment) (*AdjustmentResult, error) {
	if accountID == "" {
		return nil, errors.New("account id is required")
	}
	if err := c.validate.Struct(adj); err != nil {
		return nil, newValidationError(err)
	}

	path := "/accounts/" + url.PathEscape(accountID) + "/balance-adjustment"
	resp, err := c.doRequest(ctx, http.MethodPost, path, adj)
	if err != nil {
		return nil, err
	}

	var out AdjustmentResult
	if err := decodeSuccess(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
