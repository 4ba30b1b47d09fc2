package http

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/otsembank/otsem/pkg/httpx"
	"github.com/otsembank/otsem/pkg/slogx"
)

// APIPrefix is where the banking API is mounted on the edge.
const APIPrefix = "/api"

// NewAPIProxy forwards /api/* to target with the prefix stripped, so
// /api/auth/me reaches {target}/auth/me. Cookies and the Authorization header
// pass through untouched.
func NewAPIProxy(target *url.URL, logger *slog.Logger) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripPrefix(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
			if id := slogx.RequestID(pr.In.Context()); id != "" {
				pr.Out.Header.Set(slogx.RequestIDHeader, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("api proxy failed", "path", r.URL.Path, "error", err)
			httpx.WriteError(w, http.StatusBadGateway, "Upstream API unavailable")
		},
	}
}

// NewFrontendProxy forwards page requests to the frontend untouched.
func NewFrontendProxy(target *url.URL, logger *slog.Logger) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("frontend proxy failed", "path", r.URL.Path, "error", err)
			httpx.WriteError(w, http.StatusBadGateway, "Frontend unavailable")
		},
	}
}

func stripPrefix(path string) string {
	p := strings.TrimPrefix(path, APIPrefix)
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}
