package routegate_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/otsembank/otsem/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func gatedHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	called := false
	h := newAuthorizer().Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if c, ok := httpx.ClaimsFromContext(r.Context()); ok {
			w.Header().Set("X-Subject", c.Subject)
		}
		w.WriteHeader(http.StatusOK)
	}))
	return h, &called
}

func TestMiddleware(t *testing.T) {
	t.Run("redirect is 307 and uncached", func(t *testing.T) {
		h, called := gatedHandler(t)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customer/wallet", nil))

		require.False(t, *called)
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		require.Equal(t, "/login?next=%2Fcustomer%2Fwallet", rec.Header().Get("Location"))
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("reject is json 400", func(t *testing.T) {
		h, called := gatedHandler(t)
		req := httptest.NewRequest(http.MethodGet, "/admin/users/not-a-uuid-but-long-enough", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: url.QueryEscape(adminToken())})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.False(t, *called)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.JSONEq(t, `{"error":"Invalid resource ID format"}`, rec.Body.String())
	})

	t.Run("allow passes claims from cookie", func(t *testing.T) {
		h, called := gatedHandler(t)
		req := httptest.NewRequest(http.MethodGet, "/customer/wallet", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: url.QueryEscape(customerToken())})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.True(t, *called)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "c1", rec.Header().Get("X-Subject"))
	})

	t.Run("bearer header fallback", func(t *testing.T) {
		h, called := gatedHandler(t)
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.True(t, *called)
		require.Equal(t, "a1", rec.Header().Get("X-Subject"))
	})

	t.Run("cookie wins over header", func(t *testing.T) {
		h, called := gatedHandler(t)
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: customerToken()})
		req.Header.Set("Authorization", "Bearer "+adminToken())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.False(t, *called)
		require.Equal(t, "/customer/dashboard", rec.Header().Get("Location"))
	})
}
