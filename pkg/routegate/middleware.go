package routegate

import (
	"net/http"

	"github.com/otsembank/otsem/pkg/httpx"
	"github.com/otsembank/otsem/pkg/slogx"
)

// Middleware gates page navigations. The token comes from the access_token
// cookie, or from an Authorization bearer header when there is no cookie.
//
// Redirects are 307 so the method survives, rejections are a JSON 400.
// Allowed requests carry the visitor's claims in their context.
func (a *Authorizer) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			d := a.Decide(r.URL.Path, httpx.TokenFromRequest(r))

			switch d.Action {
			case ActionRedirect:
				log.Debug("route gate redirect", "to", d.Location, "reason", d.Reason)
				httpx.NoCache(w)
				http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)

			case ActionReject:
				log.Info("route gate reject", "status", d.Status, "reason", d.Reason)
				httpx.WriteJSON(w, d.Status, d.Body)

			default:
				if d.Claims != nil {
					ctx = httpx.ContextWithClaims(ctx, *d.Claims)
					r = r.WithContext(ctx)
				}
				next.ServeHTTP(w, r)
			}
		})
	}
}
