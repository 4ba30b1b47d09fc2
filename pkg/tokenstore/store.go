package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/otsembank/otsem/pkg/cryptox"
	"github.com/otsembank/otsem/pkg/slogx"
)

// ErrEmptyToken is returned by SetTokens when the access token is empty.
var ErrEmptyToken = errors.New("tokenstore: empty access token")

// Store is the session context: it owns the tokens and keeps the cookie
// mirror in step with them.
//
// A nil *Store, or one without a backend, behaves like an empty store that
// ignores writes. Code that runs both with and without a session can call it
// unconditionally.
type Store struct {
	mu      sync.Mutex // serializes mutations
	backend Backend
	mirror  CookieMirror
}

// New returns a Store on backend. A nil mirror means NopMirror.
func New(backend Backend, mirror CookieMirror) *Store {
	if mirror == nil {
		mirror = NopMirror{}
	}
	return &Store{backend: backend, mirror: mirror}
}

func (s *Store) usable() bool { return s != nil && s.backend != nil }

// AccessToken returns the stored access token.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	return s.token(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	return s.token(ctx, KeyRefreshToken)
}

// HasValidToken reports whether an access token is present. Expiry is not
// looked at, that is the route gate's business.
func (s *Store) HasValidToken(ctx context.Context) bool {
	_, ok := s.AccessToken(ctx)
	return ok
}

func (s *Store) token(ctx context.Context, key string) (string, bool) {
	if !s.usable() {
		return "", false
	}

	v, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slogx.FromContext(ctx).Warn("tokenstore: read failed", "key", key, "err", err)
		}
		return "", false
	}
	if len(v) == 0 {
		return "", false
	}
	return string(v), true
}

// SetTokens stores both tokens and mirrors the access token into the cookie.
// Either everything is updated or, on error, the previous tokens and cookie
// are put back.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	if !s.usable() {
		return nil
	}
	if access == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := slogx.FromContext(ctx)

	prevAccess, hadAccess := s.token(ctx, KeyAccessToken)
	prevRefresh, hadRefresh := s.token(ctx, KeyRefreshToken)

	err := s.backend.SetMany(ctx, map[string][]byte{
		KeyAccessToken:  []byte(access),
		KeyRefreshToken: []byte(refresh),
	})
	if err != nil {
		return fmt.Errorf("tokenstore: write tokens: %w", err)
	}

	if err := s.mirror.Sync(ctx, access); err != nil {
		rerr := s.restore(ctx, prevAccess, hadAccess, prevRefresh, hadRefresh)
		if rerr != nil {
			log.Error("tokenstore: restore after mirror failure", "err", rerr)
		}
		return errors.Join(fmt.Errorf("tokenstore: sync cookie: %w", err), rerr)
	}

	log.Debug("tokenstore: tokens set", "access_fp", cryptox.Fingerprint(access))
	return nil
}

func (s *Store) restore(ctx context.Context, access string, hadAccess bool, refresh string, hadRefresh bool) error {
	var (
		set = map[string][]byte{}
		del []string
	)

	if hadAccess {
		set[KeyAccessToken] = []byte(access)
	} else {
		del = append(del, KeyAccessToken)
	}
	if hadRefresh {
		set[KeyRefreshToken] = []byte(refresh)
	} else {
		del = append(del, KeyRefreshToken)
	}

	var errs []error
	if len(set) > 0 {
		errs = append(errs, s.backend.SetMany(ctx, set))
	}
	if len(del) > 0 {
		errs = append(errs, s.backend.Delete(ctx, del...))
	}
	errs = append(errs, s.mirror.Sync(ctx, access))

	return errors.Join(errs...)
}

// ClearTokens removes both tokens and the cached user, then deletes the
// cookie. Clearing an empty store is fine.
func (s *Store) ClearTokens(ctx context.Context) error {
	if !s.usable() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The cookie goes even if the backend fails, a stale cookie is what
	// sends people into redirect loops.
	derr := s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser)
	merr := s.mirror.Sync(ctx, "")

	if err := errors.Join(derr, merr); err != nil {
		return fmt.Errorf("tokenstore: clear: %w", err)
	}

	slogx.FromContext(ctx).Debug("tokenstore: tokens cleared")
	return nil
}

// CacheUser stores the user profile as JSON.
func (s *Store) CacheUser(ctx context.Context, v any) error {
	if !s.usable() {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("tokenstore: encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.SetMany(ctx, map[string][]byte{KeyUser: b}); err != nil {
		return fmt.Errorf("tokenstore: write user: %w", err)
	}
	return nil
}

// CachedUser decodes the cached profile into v. It reports false when there
// is none.
func (s *Store) CachedUser(ctx context.Context, v any) (bool, error) {
	if !s.usable() {
		return false, nil
	}

	b, err := s.backend.Get(ctx, KeyUser)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("tokenstore: read user: %w", err)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("tokenstore: decode user: %w", err)
	}
	return true, nil
}

// Ping checks the backend.
func (s *Store) Ping(ctx context.Context) error {
	if !s.usable() {
		return nil
	}
	return s.backend.Ping(ctx)
}

// Close closes the backend.
func (s *Store) Close() error {
	if !s.usable() {
		return nil
	}
	return s.backend.Close()
}
