package edge_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/otsembank/otsem/internal/edge/app"
	edgehttp "github.com/otsembank/otsem/internal/edge/http"
	"github.com/otsembank/otsem/pkg/cryptox"
	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/otsembank/otsem/pkg/otsemsdk"
	"github.com/stretchr/testify/require"
)

func TestNavigation_Customer(t *testing.T) {
	api := newFakeAPI(t)
	edge, _ := startEdge(t, api, app.TokenModeDecode)
	v := newVisitor(t, edge)
	ctx := context.Background()

	t.Run("anonymous visitor is sent to login with next", func(t *testing.T) {
		resp := v.visit(t, edge, "/customer/dashboard")
		requireRedirect(t, resp, "/login?next=%2Fcustomer%2Fdashboard")
		require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("login through the edge sets the cookie", func(t *testing.T) {
		u := v.login(t, customerEmail)
		require.Equal(t, customerID, u.ID)
		require.True(t, v.tokens.HasValidToken(ctx))
		require.EqualValues(t, 1, api.logins.Load())
	})

	t.Run("customer pages are served", func(t *testing.T) {
		resp := v.visit(t, edge, "/customer/dashboard")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page edgehttp.PageResponse
		decodeBody(t, resp, &page)
		require.Equal(t, "/customer/dashboard", page.Page)
		require.Equal(t, customerID, page.Subject)
		require.Equal(t, "CUSTOMER", page.Role)
	})

	t.Run("admin pages bounce to the customer dashboard", func(t *testing.T) {
		resp := v.visit(t, edge, "/admin/users")
		requireRedirect(t, resp, "/customer/dashboard")
	})

	t.Run("login page bounces a member", func(t *testing.T) {
		resp := v.visit(t, edge, "/login")
		requireRedirect(t, resp, "/customer/dashboard")
	})

	t.Run("malformed resource id is rejected", func(t *testing.T) {
		resp := v.visit(t, edge, "/customer/transactions/definitely-not-an-id")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		require.Equal(t, "Invalid resource ID format", body["error"])
	})

	t.Run("uuid resource id is served", func(t *testing.T) {
		resp := v.visit(t, edge, "/customer/transactions/"+adminID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("api calls carry the bearer token", func(t *testing.T) {
		u, err := v.sdk.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, customerID, u.ID)
		require.InDelta(t, 250.75, u.BalanceBRL, 0.001)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		require.NoError(t, v.sdk.Logout(ctx))
		require.False(t, v.tokens.HasValidToken(ctx))

		resp := v.visit(t, edge, "/customer/pix")
		requireRedirect(t, resp, "/login?next=%2Fcustomer%2Fpix")
	})
}

func TestNavigation_Admin(t *testing.T) {
	api := newFakeAPI(t)
	edge, _ := startEdge(t, api, app.TokenModeDecode)
	v := newVisitor(t, edge)

	resp := v.visit(t, edge, "/admin/dashboard")
	requireRedirect(t, resp, "/admin-login")

	u := v.login(t, adminEmail)
	require.Equal(t, jwtx.RoleAdmin, u.Role)

	cases := []struct {
		name     string
		path     string
		status   int
		location string
	}{
		{"admin dashboard", "/admin/dashboard", http.StatusOK, ""},
		{"admin user detail", "/admin/users/" + customerID, http.StatusOK, ""},
		{"bad admin id", "/admin/users/not-a-real-user-id", http.StatusBadRequest, ""},
		{"customer page", "/customer/wallet", http.StatusTemporaryRedirect, "/admin/dashboard"},
		{"register page", "/register", http.StatusTemporaryRedirect, "/admin/dashboard"},
		{"admin login is never gated", "/admin-login", http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := v.visit(t, edge, tc.path)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, tc.location, resp.Header.Get("Location"))
		})
	}
}

func TestNavigation_RevokedSession(t *testing.T) {
	api := newFakeAPI(t)
	edge, _ := startEdge(t, api, app.TokenModeDecode)
	v := newVisitor(t, edge)
	ctx := context.Background()

	v.login(t, customerEmail)

	// A token the API no longer accepts.
	require.NoError(t, v.tokens.SetTokens(ctx, "revoked", ""))

	_, err := v.sdk.Me(ctx)
	require.True(t, otsemsdk.IsUnauthorized(err))
	require.Equal(t, []string{"/login"}, v.expired)
	require.False(t, v.tokens.HasValidToken(ctx))

	// The cookie went with the tokens, so no redirect loop on the next page.
	resp := v.visit(t, edge, "/customer/dashboard")
	requireRedirect(t, resp, "/login?next=%2Fcustomer%2Fdashboard")
}

func TestNavigation_VerifyMode(t *testing.T) {
	api := newFakeAPI(t)
	edge, _ := startEdge(t, api, app.TokenModeVerify)
	probe := newVisitor(t, edge)

	require.Eventually(t, func() bool {
		resp, err := probe.http.Get(edge.URL + "/readyz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "edge never loaded the API keys")

	t.Run("token signed by the api is accepted", func(t *testing.T) {
		v := newVisitor(t, edge)
		v.login(t, customerEmail)

		resp := v.visit(t, edge, "/customer/dashboard")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("forged admin token is anonymous", func(t *testing.T) {
		key, _, err := cryptox.GenerateSigningKey(cryptox.AlgEdDSA)
		require.NoError(t, err)
		forger, err := jwtx.NewSigner(testKID, key)
		require.NoError(t, err)

		forged, err := forger.Sign(jwtx.NewAccessClaims(adminID, jwtx.RoleAdmin, time.Hour, testIssuer, time.Now()))
		require.NoError(t, err)

		v := newVisitor(t, edge)
		require.NoError(t, v.tokens.SetTokens(context.Background(), forged, ""))

		resp := v.visit(t, edge, "/admin/dashboard")
		requireRedirect(t, resp, "/admin-login")
	})

	t.Run("wrong issuer is anonymous", func(t *testing.T) {
		tok, err := api.signer.Sign(jwtx.NewAccessClaims(adminID, jwtx.RoleAdmin, time.Hour, "someone-else", time.Now()))
		require.NoError(t, err)

		v := newVisitor(t, edge)
		require.NoError(t, v.tokens.SetTokens(context.Background(), tok, ""))

		resp := v.visit(t, edge, "/admin/dashboard")
		requireRedirect(t, resp, "/admin-login")
	})

	t.Run("genuine admin token", func(t *testing.T) {
		v := newVisitor(t, edge)
		require.NoError(t, v.tokens.SetTokens(context.Background(), api.token(t, adminID, jwtx.RoleAdmin), ""))

		resp := v.visit(t, edge, "/admin/dashboard")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	api := newFakeAPI(t)
	edge, _ := startEdge(t, api, app.TokenModeDecode)
	v := newVisitor(t, edge)

	t.Run("livez", func(t *testing.T) {
		resp := v.visit(t, edge, "/livez")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readyz follows the api", func(t *testing.T) {
		require.Eventually(t, func() bool {
			resp, err := v.http.Get(edge.URL + "/readyz")
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 5*time.Second, 50*time.Millisecond)

		var body edgehttp.HealthResponse
		decodeBody(t, v.visit(t, edge, "/readyz"), &body)
		require.Equal(t, "ok", body.Status)
		require.Equal(t, app.BuildVersion, body.Version)
	})

	t.Run("quote is public", func(t *testing.T) {
		q, err := v.sdk.Quote(context.Background())
		require.NoError(t, err)
		require.NotNil(t, q.BuyRate)
		require.InDelta(t, 5.61, *q.BuyRate, 0.001)
	})

	t.Run("api down", func(t *testing.T) {
		api.Close()

		_, err := v.sdk.Quote(context.Background())
		var apiErr *otsemsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Equal(t, "Upstream API unavailable", apiErr.Message)
	})
}

func TestRateLimit_AuthPages(t *testing.T) {
	api := newFakeAPI(t)
	edge, _ := startEdge(t, api, app.TokenModeDecode)
	v := newVisitor(t, edge)

	limited := false
	for i := 0; i < 60 && !limited; i++ {
		resp, err := v.http.Get(edge.URL + "/login")
		require.NoError(t, err)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			require.NotEmpty(t, resp.Header.Get("Retry-After"))
			limited = true
		}
	}
	require.True(t, limited, "login page was never rate limited")
}
