package edge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/otsembank/otsem/internal/edge/app"
	"github.com/otsembank/otsem/pkg/cryptox"
	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/otsembank/otsem/pkg/otsemsdk"
	"github.com/otsembank/otsem/pkg/tokenstore"
	"github.com/stretchr/testify/require"
)

/*
 * Shared fixtures for the edge end-to-end tests. Everything runs in-process:
 * a fake banking API, the edge application in front of it, and a visitor
 * made of a token store, an SDK client and a cookie jar shared by both.
 */

const (
	testIssuer = "otsem-api"
	testKID    = "e2e-key-1"

	customerEmail = "ana@example.com"
	adminEmail    = "root@otsembank.com"
	password      = "hunter22"

	customerID = "4b7f4c1e-8f0a-4d3c-9d2e-0a1b2c3d4e5f"
	adminID    = "9c1d2e3f-4a5b-4c6d-8e7f-001122334455"
)

// fakeAPI is a stand-in for the banking API. It signs real tokens so the
// same server works for both gate modes.
type fakeAPI struct {
	*httptest.Server

	signer jwtx.Signer
	up     atomic.Bool
	logins atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	key, _, err := cryptox.GenerateSigningKey(cryptox.AlgEdDSA)
	require.NoError(t, err)
	signer, err := jwtx.NewSigner(testKID, key)
	require.NoError(t, err)

	api := &fakeAPI{signer: signer}
	api.up.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}})
	})
	mux.HandleFunc("POST /auth/login", api.login)
	mux.HandleFunc("GET /auth/me", api.me)
	mux.HandleFunc("GET /public/quote", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"buyRate": 5.61, "sellRate": 5.42})
	})

	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !api.up.Load() {
			reply(w, http.StatusServiceUnavailable, map[string]any{"message": "maintenance"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)

	return api
}

func reply(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (api *fakeAPI) token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := api.signer.Sign(jwtx.NewAccessClaims(sub, role, time.Hour, testIssuer, time.Now()))
	require.NoError(t, err)
	return tok
}

func (api *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password != password {
		reply(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
		return
	}

	id, role, name := customerID, "CUSTOMER", "Ana"
	if body.Email == adminEmail {
		id, role, name = adminID, jwtx.RoleAdmin, "Root"
	}

	tok, err := api.signer.Sign(jwtx.NewAccessClaims(id, role, time.Hour, testIssuer, time.Now()))
	if err != nil {
		reply(w, http.StatusInternalServerError, map[string]any{"message": err.Error()})
		return
	}

	api.logins.Add(1)
	reply(w, http.StatusOK, map[string]any{
		"accessToken":  tok,
		"refreshToken": "refresh-" + id,
		"user":         map[string]any{"id": id, "name": name, "email": body.Email, "role": role},
	})
}

func (api *fakeAPI) me(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims, err := jwtx.DecodeUnverified(raw)
	if err != nil {
		reply(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
		return
	}
	reply(w, http.StatusOK, map[string]any{"id": claims.Subject, "role": claims.Role, "balanceBRL": 250.75})
}

// startEdge runs the edge in front of api with the given token mode.
func startEdge(t *testing.T, api *fakeAPI, mode string) (*httptest.Server, *app.Application) {
	t.Helper()

	cfg := app.Config{
		APIURL:              api.URL,
		TokenMode:           mode,
		Issuer:              testIssuer,
		KeySyncInterval:     time.Hour,
		HealthInterval:      time.Hour,
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "text",
		ShutdownGracePeriod: time.Second,
	}
	if mode == app.TokenModeVerify {
		cfg.JWKSURL = api.URL + "/.well-known/jwks.json"
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	application.Start()

	// TLS because the access cookie is Secure and the jar honours that.
	edge := httptest.NewTLSServer(application.Handler())
	t.Cleanup(func() {
		edge.Close()
		require.NoError(t, application.Shutdown())
	})

	return edge, application
}

// visitor is one browser session against the edge.
type visitor struct {
	tokens *tokenstore.Store
	sdk    *otsemsdk.Client
	http   *http.Client

	expired []string
}

func newVisitor(t *testing.T, edge *httptest.Server) *visitor {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	mirror, err := tokenstore.NewJarMirror(jar, edge.URL)
	require.NoError(t, err)

	// edge.Client() is shared, so only borrow its transport (it trusts the
	// test certificate).
	hc := &http.Client{
		Transport: edge.Client().Transport,
		Jar:       jar,
		Timeout:   5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	v := &visitor{
		tokens: tokenstore.New(tokenstore.NewMemoryBackend(), mirror),
		http:   hc,
	}
	v.sdk = otsemsdk.New(edge.URL+"/api", v.tokens,
		otsemsdk.WithHTTPClient(hc),
		otsemsdk.WithUnauthorizedHandler(func(to string) { v.expired = append(v.expired, to) }),
	)

	return v
}

func (v *visitor) login(t *testing.T, email string) *otsemsdk.User {
	t.Helper()
	u, err := v.sdk.Login(context.Background(), otsemsdk.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return u
}

// visit requests a page. The body is closed when the test ends.
func (v *visitor) visit(t *testing.T, edge *httptest.Server, path string) *http.Response {
	t.Helper()

	resp, err := v.http.Get(edge.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
