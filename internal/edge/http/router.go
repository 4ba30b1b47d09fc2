package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/otsembank/otsem/pkg/httpx"
	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/otsembank/otsem/pkg/routegate"
	"github.com/otsembank/otsem/pkg/slogx"

	_ "github.com/otsembank/otsem/api/edge" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for the edge's handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	gate         *routegate.Authorizer
	keys         *jwtx.KeySet // nil unless signatures are verified
	upstream     UpstreamProbe
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// API receives everything under /api with the prefix stripped.
	API http.Handler
	// Frontend renders pages. Nil serves PageResponse stubs.
	Frontend http.Handler
}

func NewRouter(
	gate *routegate.Authorizer,
	keys *jwtx.KeySet,
	upstream UpstreamProbe,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		gate:         gate,
		keys:         keys,
		upstream:     upstream,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Otsem Pay Edge
//	@version		0.1.0
//	@description	Edge server in front of the Otsem Pay web client. Gates customer and admin pages on the
//	@description	visitor's access token and proxies /api to the banking API.
//	@description
//	@description	The access token is read from the access_token cookie, or an Authorization bearer header.
//
//	@contact.name	Otsem Bank
//	@contact.url	https://otsembank.com
//
//	@host			localhost:3000
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}". Browsers send the access_token cookie instead.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPages() {
	page := PageHandler(r.Frontend)
	gated := r.gate.Middleware()

	// Only the gated patterns go through the route gate. Auth entry pages
	// get the stricter limit since they front credential forms.
	for _, pattern := range routegate.Patterns() {
		limit := httpx.PageLimit
		if routegate.Classify(pattern) == routegate.ClassAuthEntry {
			limit = httpx.AuthPageLimit
		}
		r.Mux.Handle(pattern, httpx.Chain(page,
			httpx.RateLimitByIP(limit),
			gated,
		))
	}

	r.Mux.Handle(routegate.AdminLoginPath, httpx.Chain(page,
		httpx.RateLimitByIP(httpx.AuthPageLimit),
	))

	// Everything else is public.
	r.Mux.Handle("/", httpx.Chain(page,
		httpx.RateLimitByIP(httpx.PageLimit),
	))
}

func (r *Router) registerAPI() {
	if r.API == nil {
		return
	}

	// The edge only identifies callers here, the API enforces access.
	r.Mux.Handle(APIPrefix+"/", httpx.Chain(r.API,
		httpx.IdentifyMiddleware(r.gate.Authenticate),
		httpx.RateLimitBySubject(httpx.APILimit),
	))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.upstream, r.keys))
}
