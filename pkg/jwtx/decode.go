package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// segmentParser only exists for its base64url segment decoder, nothing is
// verified with it.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeUnverified reads the claims out of a JWT WITHOUT checking the
// signature. This is only good enough for deciding which page to show someone;
// the banking API verifies every token it receives for real.
//
// The token must have exactly three dot-separated segments and the middle one
// must decode to a JSON object carrying sub, role and exp.
func DecodeUnverified(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformed
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateRequired(); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// Authenticate decodes raw and checks it is not expired at now. Every failure
// collapses into "not authenticated", callers don't get to tell them apart.
func Authenticate(raw string, now time.Time) (Claims, bool) {
	if raw == "" {
		return Claims{}, false
	}

	claims, err := DecodeUnverified(raw)
	if err != nil {
		return Claims{}, false
	}

	if err := claims.ValidateExpiryAt(now); err != nil {
		return Claims{}, false
	}

	return claims, true
}

// decodeSegment accepts base64url (what every JWT library emits) and falls
// back to standard base64 because some hand-rolled tokens use it.
func decodeSegment(seg string) ([]byte, error) {
	if b, err := segmentParser.DecodeSegment(seg); err == nil {
		return b, nil
	}

	if b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "=")); err == nil {
		return b, nil
	}

	return nil, ErrMalformed
}
