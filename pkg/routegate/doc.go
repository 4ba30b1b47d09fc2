// Package routegate decides what happens to a page navigation before the page
// is served: let it through, send the visitor somewhere else, or refuse it.
//
// Decisions come from the access token's claims (sub, role, exp) and the
// request path. By default the token is only decoded, not verified, so the
// gate is a convenience for the UI and never the authorization boundary: the
// banking API verifies every token it receives on its own.
package routegate
