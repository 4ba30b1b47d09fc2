package otsemsdk

import (
	"context"
	"net/http"
)

type receiptLookup struct {
	ID string `validate:"required,uuid"`
}

// Receipt fetches the receipt of a completed transaction.
func (c *Client) Receipt(ctx context.Context, transactionID string) (*Receipt, error) {
	if err := c.validate.Struct(receiptLookup{ID: transactionID}); err != nil {
		return nil, newValidationError(err)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/transactions/"+transactionID+"/receipt", nil)
	if err != nil {
		return nil, err
	}

	var r Receipt
	if err := decodeJSON(resp, &r, http.StatusOK); err != nil {
		return nil, err
	}
	return &r, nil
}
