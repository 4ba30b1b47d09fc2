package tokenstore

import (
	"context"
	"errors"
)

// Storage keys. The @otsem: prefix keeps them apart from anything else that
// shares the backend.
const (
	KeyAccessToken  = "@otsem:access_token"
	KeyRefreshToken = "@otsem:refresh_token"
	KeyUser         = "@otsem:user"
)

// ErrNotFound is returned by Backend.Get for keys that are not set.
var ErrNotFound = errors.New("tokenstore: not found")

// Backend is a small key-value store.
type Backend interface {
	// Get returns ErrNotFound for absent keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetMany writes every entry or none of them.
	SetMany(ctx context.Context, entries map[string][]byte) error

	// Delete removes keys. Absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
	Close() error
}
