package otsemsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/otsembank/otsem/pkg/idx"
	"github.com/otsembank/otsem/pkg/routegate"
	"github.com/otsembank/otsem/pkg/slogx"
)

const (
	xsrfCookie = "XSRF-TOKEN"
	xsrfHeader = "X-XSRF-TOKEN"
)

type requestOptions struct {
	anonymous bool
	probe     bool
	headers   map[string]string
}

// RequestOption adjusts a single call.
type RequestOption func(*requestOptions)

// Anonymous sends the request without the bearer credential.
func Anonymous() RequestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

// probe marks a liveness request: no bearer, and a 401 leaves the session
// alone.
func probe() RequestOption {
	return func(o *requestOptions) {
		o.anonymous = true
		o.probe = true
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest runs one call through the request pipeline. body, when non-nil,
// is sent as JSON.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body any,
	opts ...RequestOption,
) (*http.Response, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	reqID := slogx.RequestID(ctx)
	if reqID == "" {
		reqID = idx.New().String()
	}
	req.Header.Set(slogx.RequestIDHeader, reqID)

	if !o.anonymous {
		if token, ok := c.Tokens.AccessToken(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if mutating(method) {
		if xsrf := c.xsrfToken(req.URL); xsrf != "" {
			req.Header.Set(xsrfHeader, xsrf)
		}
	}

	for key, value := range o.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !o.probe {
		c.handleUnauthorized(ctx)
	}

	return resp, nil
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// xsrfToken reads the XSRF cookie the API left in the client's jar.
func (c *Client) xsrfToken(u *url.URL) string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == xsrfCookie {
			return ck.Value
		}
	}
	return ""
}

// handleUnauthorized drops the session and, unless the caller is already on
// a public auth page, asks for a redirect to the login page.
func (c *Client) handleUnauthorized(ctx context.Context) {
	log := slogx.FromContext(ctx)

	if err := c.Tokens.ClearTokens(ctx); err != nil {
		log.Warn("failed to clear tokens after 401", "error", err)
	}

	current := "/"
	if c.CurrentPath != nil {
		current = c.CurrentPath()
	}
	if publicAuthPath(current) {
		return
	}

	log.Info("session rejected by api, redirecting to login", "from", current)
	if c.OnUnauthorized != nil {
		c.OnUnauthorized(routegate.LoginPath)
	}
}

// decodeJSON decodes a JSON response into target. Any status other than
// expectedStatus becomes an *APIError.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeSuccess is decodeJSON for endpoints that answer creates with either
// 200 or 201.
func decodeSuccess(resp *http.Response, target any) error {
	if resp.StatusCode == http.StatusCreated {
		return decodeJSON(resp, target, http.StatusCreated)
	}
	return decodeJSON(resp, target, http.StatusOK)
}
