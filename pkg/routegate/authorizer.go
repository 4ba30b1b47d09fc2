package routegate

import (
	"net/http"
	"net/url"
	"time"

	"github.com/otsembank/otsem/pkg/httpx"
	"github.com/otsembank/otsem/pkg/jwtx"
)

// Action is what the gate decided to do with a request.
type Action int

const (
	ActionAllow Action = iota
	ActionRedirect
	ActionReject
)

func (a Action) String() string {
	switch a {
	case ActionRedirect:
		return "redirect"
	case ActionReject:
		return "reject"
	default:
		return "allow"
	}
}

// Decision is the result of Decide.
type Decision struct {
	Action Action

	// Location is the redirect target for ActionRedirect.
	Location string

	// Status and Body are the response for ActionReject.
	Status int
	Body   httpx.ErrorBody

	// Claims of the visitor, nil when anonymous.
	Claims *jwtx.Claims

	// Reason is a short note for the logs.
	Reason string
}

// Authorizer turns (path, token) into a Decision. The zero value is not
// usable, build one with New.
type Authorizer struct {
	Policy Policy

	// Now is the clock used for the expiry check.
	Now func() time.Time

	// Verifier, when set, replaces plain decoding with signature
	// verification. Any error from it means anonymous.
	Verifier jwtx.Verifier
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithPolicy swaps the routing table.
func WithPolicy(p Policy) Option { return func(a *Authorizer) { a.Policy = p } }

// WithClock sets the clock, tests use it to pin the expiry check.
func WithClock(now func() time.Time) Option { return func(a *Authorizer) { a.Now = now } }

// WithVerifier turns on signature verification.
func WithVerifier(v jwtx.Verifier) Option { return func(a *Authorizer) { a.Verifier = v } }

// New returns an Authorizer with the default policy and the wall clock.
func New(opts ...Option) *Authorizer {
	a := &Authorizer{
		Policy: DefaultPolicy(),
		Now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate resolves a raw token into claims. Absent, malformed, expired
// and (with a Verifier) forged tokens all come back as not authenticated.
func (a *Authorizer) Authenticate(raw string) (jwtx.Claims, bool) {
	if raw == "" {
		return jwtx.Claims{}, false
	}

	if a.Verifier != nil {
		claims, err := a.Verifier.Verify(raw)
		if err != nil {
			return jwtx.Claims{}, false
		}
		if err := claims.ValidateExpiryAt(a.Now()); err != nil {
			return jwtx.Claims{}, false
		}
		return claims, true
	}

	return jwtx.Authenticate(raw, a.Now())
}

// Decide evaluates a navigation to path by the holder of token (may be "").
//
// Order: login redirects for customer and admin pages, then the ID-shape
// filter, then the logged-in redirect away from /login and /register.
// A request can be refused by the ID filter even when its role would allow
// it, and a visitor who must log in first is redirected before their path
// is inspected.
func (a *Authorizer) Decide(path, token string) Decision {
	claims, authed := a.Authenticate(token)

	d := Decision{Action: ActionAllow}
	if authed {
		d.Claims = &claims
	}

	class := Classify(path)
	out := a.Policy.Outcome(class, authed, authed && claims.IsAdmin())

	if !out.Allow() && class != ClassAuthEntry {
		return redirect(d, out, path, class)
	}

	if id, ok := ResourceID(path); ok && !ValidResourceID(id) {
		d.Action = ActionReject
		d.Status = http.StatusBadRequest
		d.Body = httpx.ErrorBody{Error: InvalidIDMessage}
		d.Reason = "invalid resource id"
		return d
	}

	if !out.Allow() {
		return redirect(d, out, path, class)
	}

	return d
}

func redirect(d Decision, out Outcome, path string, class Class) Decision {
	d.Action = ActionRedirect
	d.Location = out.Location
	if out.KeepNext {
		d.Location += "?" + nextQueryParameter + "=" + url.QueryEscape(path)
	}

	switch {
	case d.Claims == nil:
		d.Reason = class.String() + " page needs a session"
	default:
		d.Reason = class.String() + " page not for role " + d.Claims.Role
	}
	return d
}
