package jwtx_test

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/otsembank/otsem/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func genKeys(t *testing.T) map[string]crypto.Signer {
	t.Helper()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return map[string]crypto.Signer{
		"RS256": rsaKey,
		"ES256": ecKey,
		"EdDSA": edKey,
	}
}

func TestKeySetVerifier(t *testing.T) {
	for alg, key := range genKeys(t) {
		t.Run(alg, func(t *testing.T) {
			s, err := jwtx.NewSigner("kid-"+alg, key)
			require.NoError(t, err)
			require.Equal(t, alg, s.Alg())

			ks := jwtx.NewKeySet()
			require.NoError(t, ks.AddJWK(s.PublicJWK()))
			require.True(t, ks.IsReady())

			v := jwtx.NewKeySetVerifier(ks, "otsem-api")

			tok, err := s.Sign(jwtx.NewAccessClaims("u1", "CUSTOMER", time.Minute, "otsem-api", time.Now()))
			require.NoError(t, err)

			c, err := v.Verify(tok)
			require.NoError(t, err)
			require.Equal(t, "u1", c.Subject)

			// The unverified decoder reads the same claims.
			dc, err := jwtx.DecodeUnverified(tok)
			require.NoError(t, err)
			require.Equal(t, c.Subject, dc.Subject)
			require.Equal(t, c.Role, dc.Role)
		})
	}
}

func TestKeySetVerifier_Rejects(t *testing.T) {
	keys := genKeys(t)
	s, err := jwtx.NewSigner("k1", keys["EdDSA"])
	require.NoError(t, err)

	ks := jwtx.NewKeySet()
	require.NoError(t, ks.AddJWK(s.PublicJWK()))
	v := jwtx.NewKeySetVerifier(ks, "otsem-api")

	t.Run("expired", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewAccessClaims("u1", "CUSTOMER", -time.Minute, "otsem-api", time.Now()))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewAccessClaims("u1", "CUSTOMER", time.Minute, "elsewhere", time.Now()))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("missing role", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewAccessClaims("u1", "", time.Minute, "otsem-api", time.Now()))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMissingClaim)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other, err := jwtx.NewSigner("k2", keys["EdDSA"])
		require.NoError(t, err)
		tok, err := other.Sign(jwtx.NewAccessClaims("u1", "CUSTOMER", time.Minute, "otsem-api", time.Now()))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("tampered signature", func(t *testing.T) {
		_, otherKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		forger, err := jwtx.NewSigner("k1", otherKey)
		require.NoError(t, err)
		tok, err := forger.Sign(jwtx.NewAccessClaims("u1", jwtx.RoleAdmin, time.Minute, "otsem-api", time.Now()))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})
}

func TestKeySet_ResetFromJWKS(t *testing.T) {
	keys := genKeys(t)
	s1, err := jwtx.NewSigner("a", keys["RS256"])
	require.NoError(t, err)
	s2, err := jwtx.NewSigner("b", keys["ES256"])
	require.NoError(t, err)

	ks := jwtx.NewKeySet()
	require.NoError(t, ks.AddJWK(s1.PublicJWK()))

	require.NoError(t, ks.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{s2.PublicJWK()}}))
	_, err = ks.Get("a")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	_, err = ks.Get("b")
	require.NoError(t, err)

	// A bad key leaves the previous set untouched.
	err = ks.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{{Kty: "oct", Kid: "c"}}})
	require.Error(t, err)
	_, err = ks.Get("b")
	require.NoError(t, err)
	require.Len(t, ks.PublicJWKS().Keys, 1)
}

func TestFetchJWKS(t *testing.T) {
	keys := genKeys(t)
	s, err := jwtx.NewSigner("k1", keys["EdDSA"])
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwtx.JWKS{Keys: []jwtx.JWK{s.PublicJWK()}})
	}))
	defer srv.Close()

	set, err := jwtx.FetchJWKS(context.Background(), srv.Client(), srv.URL+"/.well-known/jwks.json")
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	require.Equal(t, "k1", set.Keys[0].Kid)

	_, err = jwtx.FetchJWKS(context.Background(), srv.Client(), srv.URL+"/missing")
	require.Error(t, err)
}
