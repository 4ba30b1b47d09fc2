package http

import (
	"net/http"

	"github.com/otsembank/otsem/pkg/httpx"
)

// PageResponse stands in for a rendered page when no frontend is configured.
type PageResponse struct {
	Page    string `json:"page"`
	Subject string `json:"subject,omitempty"`
	Role    string `json:"role,omitempty"`
}

// PageHandler godoc
//
//	@Summary		Page navigation
//	@Description	Serves a page after the route gate let it through. Customer and admin pages redirect anonymous visitors to their login page.
//	@Tags			Pages
//	@Produce		json
//	@Param			access_token	header		string			false	"Access token cookie"
//	@Success		200				{object}	PageResponse	"page stub"
//	@Success		307				"redirect to login or dashboard"
//	@Failure		400				{object}	httpx.ErrorBody	"invalid resource id"
//	@Failure		429				{object}	httpx.ErrorBody	"rate limited"
//	@Router			/customer/{page} [get]
//	@Router			/admin/{page} [get]
func PageHandler(frontend http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if frontend != nil {
			frontend.ServeHTTP(w, r)
			return
		}

		resp := PageResponse{Page: r.URL.Path}
		if c, ok := httpx.ClaimsFromContext(r.Context()); ok {
			resp.Subject = c.Subject
			resp.Role = c.Role
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
