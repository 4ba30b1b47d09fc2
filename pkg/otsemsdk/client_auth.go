package otsemsdk

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
)

// TOTPCode returns the current six digit code for a base32 TOTP secret.
func TOTPCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCode(secret, at)
	if err != nil {
		return "", fmt.Errorf("generate totp code: %w", err)
	}
	return code, nil
}

// Login signs in with email and password and stores the returned tokens.
// The cached user profile is refreshed as well.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*User, error) {
	if req.TwoFactorCode == "" && req.TOTPSecret != "" {
		code, err := TOTPCode(req.TOTPSecret, time.Now())
		if err != nil {
			return nil, err
		}
		req.TwoFactorCode = code
	}

	if err := c.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", req, Anonymous())
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeSuccess(resp, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login response has no access token")
	}

	if err := c.Tokens.SetTokens(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return nil, err
	}
	if err := c.Tokens.CacheUser(ctx, out.User); err != nil {
		return nil, err
	}

	return &out.User, nil
}

// Logout forgets the session locally. The API keeps no server-side session
// for access tokens, they simply run out.
func (c *Client) Logout(ctx context.Context) error {
	return c.Tokens.ClearTokens(ctx)
}

// Me returns the signed-in user and refreshes the cached profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	if err := c.Tokens.CacheUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CachedUser returns the profile stored by the last Login or Me without
// calling the API.
func (c *Client) CachedUser(ctx context.Context) (*User, bool, error) {
	var user User
	ok, err := c.Tokens.CachedUser(ctx, &user)
	if err != nil || !ok {
		return nil, false, err
	}
	return &user, true, nil
}
