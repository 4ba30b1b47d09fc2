package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/otsembank/otsem/pkg/httpx"
	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestTokenFromRequest(t *testing.T) {
	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "a.b.c"})
		require.Equal(t, "a.b.c", httpx.TokenFromRequest(req))
	})

	t.Run("cookie is url decoded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Cookie", "access_token=a.b%2Bc%3D")
		require.Equal(t, "a.b+c=", httpx.TokenFromRequest(req))
	})

	t.Run("cookie beats header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "from-cookie"})
		req.Header.Set("Authorization", "Bearer from-header")
		require.Equal(t, "from-cookie", httpx.TokenFromRequest(req))
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer x.y.z")
		require.Equal(t, "x.y.z", httpx.TokenFromRequest(req))
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		require.Empty(t, httpx.TokenFromRequest(req))
	})

	t.Run("nothing", func(t *testing.T) {
		require.Empty(t, httpx.TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}

func TestIdentifyMiddleware(t *testing.T) {
	var (
		got jwtx.Claims
		ok  bool
	)
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = httpx.ClaimsFromContext(r.Context())
	}), httpx.IdentifyMiddleware(func(raw string) (jwtx.Claims, bool) {
		if raw != "good" {
			return jwtx.Claims{}, false
		}
		return jwtx.NewAccessClaims("u1", "CUSTOMER", time.Minute, "", time.Now()), true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, ok)
	require.Equal(t, "u1", got.Subject)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, ok)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}
