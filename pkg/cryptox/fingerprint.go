package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a short, stable digest of a token for logs. Raw
// tokens are never logged.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:9])
}
