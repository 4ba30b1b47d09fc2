package jwtx_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// token builds an unsigned three-part token around payload.
func token(payload string) string {
	return "eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func TestDecodeUnverified(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		c, err := jwtx.DecodeUnverified(token(`{"sub":"u1","role":"CUSTOMER","exp":2000000000}`))
		require.NoError(t, err)
		require.Equal(t, "u1", c.Subject)
		require.Equal(t, "CUSTOMER", c.Role)
		require.Equal(t, int64(2_000_000_000), c.ExpiresAtUnix())
	})

	t.Run("standard base64 with padding", func(t *testing.T) {
		// "?>" tends to put "+" or "/" into the std alphabet output
		payload := `{"sub":"u?>","role":"ADMIN","exp":2000000000}`
		raw := "h." + base64.StdEncoding.EncodeToString([]byte(payload)) + ".s"
		c, err := jwtx.DecodeUnverified(raw)
		require.NoError(t, err)
		require.Equal(t, "u?>", c.Subject)
	})

	t.Run("wrong segment count", func(t *testing.T) {
		for _, raw := range []string{"", "a", "a.b", "a.b.c.d"} {
			_, err := jwtx.DecodeUnverified(raw)
			require.ErrorIs(t, err, jwtx.ErrMalformed, raw)
		}
	})

	t.Run("payload not base64", func(t *testing.T) {
		_, err := jwtx.DecodeUnverified("a.!!!.c")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("payload not json", func(t *testing.T) {
		_, err := jwtx.DecodeUnverified(token("not json"))
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("missing role", func(t *testing.T) {
		_, err := jwtx.DecodeUnverified(token(`{"sub":"u1","exp":2000000000}`))
		require.ErrorIs(t, err, jwtx.ErrMissingClaim)
	})

	t.Run("exp zero counts as missing", func(t *testing.T) {
		_, err := jwtx.DecodeUnverified(token(`{"sub":"u1","role":"CUSTOMER","exp":0}`))
		require.ErrorIs(t, err, jwtx.ErrMissingClaim)
	})
}

func TestAuthenticate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("future exp", func(t *testing.T) {
		c, ok := jwtx.Authenticate(token(`{"sub":"u1","role":"ADMIN","exp":1700000001}`), now)
		require.True(t, ok)
		require.True(t, c.IsAdmin())
	})

	t.Run("exp equal to now", func(t *testing.T) {
		_, ok := jwtx.Authenticate(token(`{"sub":"u1","role":"ADMIN","exp":1700000000}`), now)
		require.False(t, ok)
	})

	t.Run("empty token", func(t *testing.T) {
		_, ok := jwtx.Authenticate("", now)
		require.False(t, ok)
	})

	t.Run("garbage", func(t *testing.T) {
		_, ok := jwtx.Authenticate("garbage", now)
		require.False(t, ok)
	})
}
