package otsemsdk

import (
	"context"
	"net/http"
)

// Quote returns the current USDT rates. The endpoint is public, no bearer is
// sent.
func (c *Client) Quote(ctx context.Context) (*Quote, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/public/quote", nil, Anonymous())
	if err != nil {
		return nil, err
	}

	var q Quote
	if err := decodeJSON(resp, &q, http.StatusOK); err != nil {
		return nil, err
	}
	return &q, nil
}

// Ping reports whether the API answered at all. Any HTTP response, a 401
// included, means the API is up; only transport failures count as down.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil, probe())
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
