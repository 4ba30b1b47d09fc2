package httpx

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/otsembank/otsem/pkg/jwtx"
)

// AccessTokenCookie is the cookie the browser mirrors the access token into.
const AccessTokenCookie = "access_token"

// TokenFromRequest returns the access token carried by r. The cookie wins over
// the Authorization header. Cookie values are URL-decoded since that is how
// the client writes them, a value that fails to decode is used as is.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		if v, err := url.PathUnescape(c.Value); err == nil {
			return v
		}
		return c.Value
	}

	authz := r.Header.Get("Authorization")
	if len(authz) > len("Bearer ") && strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):])
	}

	return ""
}

// IdentifyMiddleware attaches the caller's claims to the request context when
// a token is present and authenticate accepts it. It never rejects anything,
// the API behind the edge decides what an identity is allowed to do.
func IdentifyMiddleware(authenticate func(raw string) (jwtx.Claims, bool)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := TokenFromRequest(r); raw != "" {
				if claims, ok := authenticate(raw); ok {
					r = r.WithContext(ContextWithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
