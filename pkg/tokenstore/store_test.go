package tokenstore_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"testing"

	"github.com/otsembank/otsem/pkg/tokenstore"
	"github.com/stretchr/testify/require"
)

const edgeOrigin = "https://app.otsem.test"

func newJarStore(t *testing.T) (*tokenstore.Store, http.CookieJar) {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	mirror, err := tokenstore.NewJarMirror(jar, edgeOrigin)
	require.NoError(t, err)

	return tokenstore.New(tokenstore.NewMemoryBackend(), mirror), jar
}

func jarCookie(t *testing.T, jar http.CookieJar) (string, bool) {
	t.Helper()
	u, err := url.Parse(edgeOrigin + "/customer/dashboard")
	require.NoError(t, err)

	for _, c := range jar.Cookies(u) {
		if c.Name == tokenstore.CookieName {
			v, err := url.QueryUnescape(c.Value)
			require.NoError(t, err)
			return v, true
		}
	}
	return "", false
}

func TestStore_SetThenGet(t *testing.T) {
	ctx := context.Background()
	s, jar := newJarStore(t)

	require.NoError(t, s.SetTokens(ctx, "a.b.c", "refresh-1"))

	access, ok := s.AccessToken(ctx)
	require.True(t, ok)
	require.Equal(t, "a.b.c", access)

	refresh, ok := s.RefreshToken(ctx)
	require.True(t, ok)
	require.Equal(t, "refresh-1", refresh)

	require.True(t, s.HasValidToken(ctx))

	cookie, ok := jarCookie(t, jar)
	require.True(t, ok)
	require.Equal(t, "a.b.c", cookie)
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, jar := newJarStore(t)

	require.NoError(t, s.SetTokens(ctx, "old", "r-old"))
	require.NoError(t, s.SetTokens(ctx, "new+/=", "r-new"))

	access, _ := s.AccessToken(ctx)
	require.Equal(t, "new+/=", access)

	cookie, _ := jarCookie(t, jar)
	require.Equal(t, "new+/=", cookie)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s, jar := newJarStore(t)

	require.NoError(t, s.SetTokens(ctx, "a.b.c", "r"))
	require.NoError(t, s.CacheUser(ctx, map[string]string{"name": "Ana"}))

	require.NoError(t, s.ClearTokens(ctx))

	_, ok := s.AccessToken(ctx)
	require.False(t, ok)
	_, ok = s.RefreshToken(ctx)
	require.False(t, ok)
	require.False(t, s.HasValidToken(ctx))

	var user map[string]string
	found, err := s.CachedUser(ctx, &user)
	require.NoError(t, err)
	require.False(t, found)

	_, ok = jarCookie(t, jar)
	require.False(t, ok, "cookie must be gone")

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, s.ClearTokens(ctx))
		require.NoError(t, s.ClearTokens(ctx))
	})
}

func TestStore_EmptyAccessRejected(t *testing.T) {
	s, _ := newJarStore(t)
	require.ErrorIs(t, s.SetTokens(context.Background(), "", "r"), tokenstore.ErrEmptyToken)
}

func TestStore_EmptyRefreshIsAbsent(t *testing.T) {
	ctx := context.Background()
	s, _ := newJarStore(t)

	require.NoError(t, s.SetTokens(ctx, "a.b.c", ""))
	_, ok := s.RefreshToken(ctx)
	require.False(t, ok)
}

func TestStore_NilIsEmpty(t *testing.T) {
	ctx := context.Background()

	for name, s := range map[string]*tokenstore.Store{
		"nil store":  nil,
		"no backend": tokenstore.New(nil, nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := s.AccessToken(ctx)
			require.False(t, ok)
			_, ok = s.RefreshToken(ctx)
			require.False(t, ok)
			require.False(t, s.HasValidToken(ctx))
			require.NoError(t, s.SetTokens(ctx, "a", "b"))
			require.NoError(t, s.ClearTokens(ctx))
			require.NoError(t, s.CacheUser(ctx, "x"))
			found, err := s.CachedUser(ctx, new(string))
			require.NoError(t, err)
			require.False(t, found)
			require.NoError(t, s.Ping(ctx))
			require.NoError(t, s.Close())
		})
	}
}

type flakyMirror struct {
	fail   bool
	synced []string
}

func (m *flakyMirror) Sync(_ context.Context, token string) error {
	if m.fail {
		m.fail = false // fail once, let the restore through
		return errors.New("cookie write failed")
	}
	m.synced = append(m.synced, token)
	return nil
}

func TestStore_MirrorFailureRestores(t *testing.T) {
	ctx := context.Background()

	t.Run("previous tokens come back", func(t *testing.T) {
		m := &flakyMirror{}
		s := tokenstore.New(tokenstore.NewMemoryBackend(), m)
		require.NoError(t, s.SetTokens(ctx, "first", "r1"))

		m.fail = true
		err := s.SetTokens(ctx, "second", "r2")
		require.Error(t, err)

		access, ok := s.AccessToken(ctx)
		require.True(t, ok)
		require.Equal(t, "first", access)
		refresh, _ := s.RefreshToken(ctx)
		require.Equal(t, "r1", refresh)
		require.Equal(t, []string{"first", "first"}, m.synced)
	})

	t.Run("empty store stays empty", func(t *testing.T) {
		m := &flakyMirror{fail: true}
		s := tokenstore.New(tokenstore.NewMemoryBackend(), m)

		require.Error(t, s.SetTokens(ctx, "first", "r1"))
		require.False(t, s.HasValidToken(ctx))
		_, ok := s.RefreshToken(ctx)
		require.False(t, ok)
		require.Equal(t, []string{""}, m.synced)
	})
}

type brokenBackend struct{ *tokenstore.MemoryBackend }

func (brokenBackend) SetMany(context.Context, map[string][]byte) error {
	return errors.New("disk full")
}

func TestStore_BackendFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	m := &flakyMirror{}
	s := tokenstore.New(brokenBackend{tokenstore.NewMemoryBackend()}, m)

	require.Error(t, s.SetTokens(ctx, "a", "b"))
	require.False(t, s.HasValidToken(ctx))
	require.Empty(t, m.synced, "cookie must not be written when storage failed")
}

func TestStore_CachedUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newJarStore(t)

	type user struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}

	require.NoError(t, s.CacheUser(ctx, user{ID: "u1", Role: "CUSTOMER"}))

	var got user
	found, err := s.CachedUser(ctx, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, user{ID: "u1", Role: "CUSTOMER"}, got)
}

func TestStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s, _ := newJarStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetTokens(ctx, "tok-"+string(rune('a'+i)), "r")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.AccessToken(ctx)
		}()
	}
	wg.Wait()

	require.True(t, s.HasValidToken(ctx))
}
