// Package tokenstore owns the client's session tokens.
//
// A Store is the one place the access token, refresh token and cached user
// profile are written. Every mutation is followed by an explicit sync of the
// access_token cookie mirror, which is how the edge's route gate sees the
// session without reading client storage. Storage itself is pluggable: memory,
// SQLite, Redis, optionally sealed at rest.
package tokenstore
