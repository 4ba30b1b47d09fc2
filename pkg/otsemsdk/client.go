package otsemsdk

import (
	"net/http"
	"strings"
	"time"

	"github.com/otsembank/otsem/pkg/routegate"
	"github.com/otsembank/otsem/pkg/tokenstore"
	"gopkg.in/go-playground/validator.v9"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// Client is a client for the Otsem Pay banking API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Tokens supplies the bearer credential and is cleared on 401.
	Tokens *tokenstore.Store

	// OnUnauthorized is called with the login path after a 401 clears the
	// store. Nil means nobody is listening.
	OnUnauthorized func(redirectTo string)

	// CurrentPath reports the page the caller is on. Nil is treated as "/".
	CurrentPath func() string

	validate *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Give it a cookie jar to
// have XSRF tokens echoed back.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithUnauthorizedHandler sets OnUnauthorized.
func WithUnauthorizedHandler(fn func(redirectTo string)) Option {
	return func(c *Client) { c.OnUnauthorized = fn }
}

// WithCurrentPath sets CurrentPath.
func WithCurrentPath(fn func() string) Option {
	return func(c *Client) { c.CurrentPath = fn }
}

// New creates a client for baseURL backed by tokens.
func New(baseURL string, tokens *tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Tokens:   tokens,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// publicAuthPath reports whether path is a page where a 401 must not bounce
// the user to the login page again.
func publicAuthPath(path string) bool {
	for _, p := range []string{routegate.LoginPath, routegate.AdminLoginPath, routegate.RegisterPath} {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
