// Package redis is a tokenstore.Backend on Redis, for clients that share one
// session between several processes on a host.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/otsembank/otsem/pkg/tokenstore"
)

// DefaultTTL matches the lifetime of the access_token cookie.
const DefaultTTL = tokenstore.CookieMaxAge * time.Second

type Store struct {
	client    goredis.UniversalClient
	namespace string
	ttl       time.Duration
}

var _ tokenstore.Backend = (*Store)(nil)

type Option func(*Store)

// WithNamespace prefixes every key, e.g. with a profile name, so several
// sessions can share one database.
func WithNamespace(ns string) Option { return func(s *Store) { s.namespace = ns } }

// WithTTL sets the expiry on written keys. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option { return func(s *Store) { s.ttl = ttl } }

// NewStore wraps an existing client.
func NewStore(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to a redis:// URL.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	o, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewStore(client, opts...), nil
}

func (s *Store) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, tokenstore.ErrNotFound
	}
	return v, err
}

// SetMany writes all entries in one MULTI/EXEC block.
func (s *Store) SetMany(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, s.key(k), v, s.ttl)
		}
		return nil
	})
	return err
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.client.Del(ctx, full...).Err()
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }
func (s *Store) Close() error                   { return s.client.Close() }
