package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrMissingClaim = errors.New("jwtx: missing required claim")
	ErrUnknownKID   = errors.New("jwtx: unknown kid")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")

	ErrIssuer  = errors.New("jwtx: issuer mismatch")
	ErrExpired = errors.New("jwtx: token expired")
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// KeySetVerifier checks signatures against a KeySet. It is what the edge uses
// when it is told not to trust tokens blindly.
type KeySetVerifier struct {
	keys   *KeySet
	issuer string
	now    func() time.Time
}

// NewKeySetVerifier accepts RS256, ES256 and EdDSA tokens whose kid is in keys.
// An empty issuer disables the issuer check.
func NewKeySetVerifier(keys *KeySet, issuer string) *KeySetVerifier {
	return &KeySetVerifier{keys: keys, issuer: issuer, now: time.Now}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256", "ES256", "EdDSA"}),
		jwt.WithoutClaimsValidation(), // exp is checked below with our own rules
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}

		// The key type has to line up with the alg in the header, otherwise
		// jwt would happily report a confusing error later.
		switch t.Method.Alg() {
		case "RS256":
			if _, ok := pub.(*rsa.PublicKey); ok {
				return pub, nil
			}
		case "ES256":
			if _, ok := pub.(*ecdsa.PublicKey); ok {
				return pub, nil
			}
		case "EdDSA":
			if _, ok := pub.(ed25519.PublicKey); ok {
				return pub, nil
			}
		}
		return nil, fmt.Errorf("jwtx: key %q does not match alg %s", kid, t.Method.Alg())
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSig
		}
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("jwtx: invalid token claims")
	}

	if err := claims.ValidateRequired(); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryAt(v.now()); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
