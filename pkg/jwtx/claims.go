package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role the web client treats specially. The comparison
// is case-sensitive, "admin" is just another customer role.
const RoleAdmin = "ADMIN"

// DefaultAccessTokenTTL mirrors what the banking API issues today. It is only
// used when minting tokens locally (tests, dev tooling).
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access-token claims the client cares about. The API puts a
// lot more in there but routing only ever looks at sub, role and exp.
type Claims struct {
	jwt.RegisteredClaims

	// Role of the account holder, "ADMIN" for back-office staff.
	Role string `json:"role,omitempty"`
}

// NewAccessClaims builds minimally-correct claims.
func NewAccessClaims(subject, role string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// IsAdmin reports whether the role is exactly RoleAdmin.
func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// ExpiresAtUnix returns exp in seconds, or 0 when absent.
func (c Claims) ExpiresAtUnix() int64 {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Unix()
}

// ValidateRequired makes sure sub, role and exp are all there. A token missing
// any of them is treated as if there was no token at all.
func (c Claims) ValidateRequired() error {
	if c.Subject == "" || c.Role == "" || c.ExpiresAtUnix() == 0 {
		return ErrMissingClaim
	}
	return nil
}

// ValidateExpiryAt checks exp against now. Tokens are only good while exp is
// strictly in the future, a token expiring this very second is already dead.
func (c Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAtUnix() <= now.Unix() {
		return ErrExpired
	}
	return nil
}

// ValidateExpiry is ValidateExpiryAt with the wall clock.
func (c Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now())
}

// ValidateIssuer checks if the issuer matches expected value.
func (c Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}
