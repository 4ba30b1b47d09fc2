package tokenstore

import (
	"context"
	"fmt"

	"github.com/otsembank/otsem/pkg/cryptox"
)

// SealedBackend encrypts values before handing them to the wrapped backend.
// The key name is bound into every value, a sealed refresh token copied into
// the access token slot will not open.
type SealedBackend struct {
	inner  Backend
	sealer *cryptox.Sealer
}

func NewSealedBackend(inner Backend, sealer *cryptox.Sealer) *SealedBackend {
	return &SealedBackend{inner: inner, sealer: sealer}
}

func (s *SealedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	plain, err := s.sealer.Open(sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("tokenstore: open %s: %w", key, err)
	}
	return plain, nil
}

func (s *SealedBackend) SetMany(ctx context.Context, entries map[string][]byte) error {
	sealed := make(map[string][]byte, len(entries))
	for k, v := range entries {
		b, err := s.sealer.Seal(v, []byte(k))
		if err != nil {
			return fmt.Errorf("tokenstore: seal %s: %w", k, err)
		}
		sealed[k] = b
	}
	return s.inner.SetMany(ctx, sealed)
}

func (s *SealedBackend) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

func (s *SealedBackend) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }
func (s *SealedBackend) Close() error                   { return s.inner.Close() }
