package tokenstore

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Cookie mirror attributes.
const (
	CookieName   = "access_token"
	CookieMaxAge = 7 * 24 * 60 * 60 // 604800 seconds
)

// CookieMirror receives the access token after every Store mutation. An
// empty token means the cookie has to go.
type CookieMirror interface {
	Sync(ctx context.Context, accessToken string) error
}

// AccessCookie builds the mirror cookie for token. The value is URL-encoded.
func AccessCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    url.QueryEscape(token),
		Path:     "/",
		MaxAge:   CookieMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	}
}

// ExpiredAccessCookie deletes the mirror cookie (Max-Age=0 on the wire).
func ExpiredAccessCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	}
}

// mirrorCookie picks AccessCookie or ExpiredAccessCookie.
func mirrorCookie(token string) *http.Cookie {
	if token == "" {
		return ExpiredAccessCookie()
	}
	return AccessCookie(token)
}

// JarMirror writes the cookie into a jar for one origin, normally the edge.
// The jar is what the SDK's http.Client sends on page requests.
type JarMirror struct {
	Jar    http.CookieJar
	Origin *url.URL
}

// NewJarMirror parses origin, which must be an absolute URL.
func NewJarMirror(jar http.CookieJar, origin string) (*JarMirror, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("tokenstore: cookie origin must be absolute")
	}
	return &JarMirror{Jar: jar, Origin: u}, nil
}

func (m *JarMirror) Sync(_ context.Context, accessToken string) error {
	if m == nil || m.Jar == nil {
		return nil
	}
	m.Jar.SetCookies(m.Origin, []*http.Cookie{mirrorCookie(accessToken)})
	return nil
}

// NopMirror is for stores nothing gates on, such as a headless CLI.
type NopMirror struct{}

func (NopMirror) Sync(context.Context, string) error { return nil }
