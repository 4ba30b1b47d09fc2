package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/otsembank/otsem/internal/edge/http"
	"github.com/otsembank/otsem/internal/edge/service"
	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/otsembank/otsem/pkg/otsemsdk"
	"github.com/otsembank/otsem/pkg/routegate"
	"github.com/otsembank/otsem/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the edge server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	apiURL      *url.URL
	frontendURL *url.URL

	// Verification keys, only in verify mode
	keys    *jwtx.KeySet
	keySync *service.KeySyncService

	gate   *routegate.Authorizer
	health *otsemsdk.HealthMonitor

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application from cfg.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "otsem-edge",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initUpstreams(); err != nil {
		return nil, err
	}
	if err := app.initGate(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, for in-process tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.Start()

	app.logger.Info("edge starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"token_mode", app.cfg.TokenMode,
		"api_url", app.apiURL.String(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.stopWorkers()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Start launches the background workers without the HTTP listener.
func (app *Application) Start() {
	app.health.Start()
	if app.keySync != nil {
		app.keySync.Start()
	}
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down edge...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var shutdownErr error
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		shutdownErr = err
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopWorkers()

	app.logger.Info("edge stopped")
	return shutdownErr
}

func (app *Application) stopWorkers() {
	app.health.Stop()
	if app.keySync != nil {
		app.keySync.Stop()
	}
}

// initUpstreams parses the API and frontend URLs and sets up the API health
// monitor.
func (app *Application) initUpstreams() error {
	apiURL, err := parseUpstream(app.cfg.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API_URL: %w", err)
	}
	app.apiURL = apiURL

	if app.cfg.FrontendURL != "" {
		frontendURL, err := parseUpstream(app.cfg.FrontendURL)
		if err != nil {
			return fmt.Errorf("invalid FRONTEND_URL: %w", err)
		}
		app.frontendURL = frontendURL
	}

	client := otsemsdk.New(apiURL.String(), nil)
	app.health = otsemsdk.NewHealthMonitor(client, app.logger, app.cfg.HealthInterval)
	return nil
}

// initGate builds the route gate. Verify mode adds a JWKS-backed verifier
// kept fresh by the key sync worker.
func (app *Application) initGate() error {
	opts := []routegate.Option{}

	switch app.cfg.TokenMode {
	case TokenModeDecode, "":
		app.logger.Warn("route gate trusts token claims without checking signatures",
			"hint", "set EDGE_TOKEN_MODE=verify to check them")

	case TokenModeVerify:
		if app.cfg.JWKSURL == "" {
			return errors.New("verify mode needs JWKS_URL")
		}
		app.keys = jwtx.NewKeySet()
		app.keySync = service.NewKeySyncService(app.keys, app.cfg.JWKSURL, app.logger, app.cfg.KeySyncInterval)
		opts = append(opts, routegate.WithVerifier(jwtx.NewKeySetVerifier(app.keys, app.cfg.Issuer)))

	default:
		return fmt.Errorf("unknown EDGE_TOKEN_MODE %q", app.cfg.TokenMode)
	}

	app.gate = routegate.New(opts...)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.gate,
		app.keys,
		app.health,
		BuildVersion,
		app.logger,
	)

	router.API = httpapi.NewAPIProxy(app.apiURL, app.logger)
	if app.frontendURL != nil {
		router.Frontend = httpapi.NewFrontendProxy(app.frontendURL, app.logger)
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func parseUpstream(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%q: missing host", raw)
	}
	return u, nil
}
