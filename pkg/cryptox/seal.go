package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// MasterKeyEnv is read by LoadKeyMaterial when no key file is configured.
const MasterKeyEnv = "OTSEM_MASTER_KEY"

// ErrNoKeyMaterial means neither a key file nor OTSEM_MASTER_KEY was given.
var ErrNoKeyMaterial = errors.New("cryptox: no key material")

// ErrOpen is returned for ciphertext that is truncated, tampered with or
// sealed under another key.
var ErrOpen = errors.New("cryptox: unable to open sealed value")

// Sealer encrypts small values (tokens, cached profiles) before they hit disk.
// It uses XChaCha20-Poly1305, so random nonces are safe for any realistic
// number of writes.
//
// Output format: [24-byte nonce][ciphertext][16-byte tag]
type Sealer struct {
	key []byte
}

// NewSealer derives a 256-bit key from material with HKDF-SHA256. info
// separates keys derived from the same material for different uses.
func NewSealer(material []byte, info string) (*Sealer, error) {
	if len(material) == 0 {
		return nil, ErrNoKeyMaterial
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, material, nil, []byte(info))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("cryptox: derive key: %w", err)
	}

	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext. ad is authenticated but not encrypted, callers
// pass the storage key so a value cannot be moved to another slot.
func (s *Sealer) Seal(plaintext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrOpen
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrOpen
	}

	return plaintext, nil
}

// LoadKeyMaterial reads key material from path when set, otherwise from the
// OTSEM_MASTER_KEY environment variable. Surrounding whitespace is ignored so
// a key file can end with a newline.
func LoadKeyMaterial(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cryptox: read master key file: %w", err)
		}
		if trimmed := strings.TrimSpace(string(data)); trimmed != "" {
			return []byte(trimmed), nil
		}
		return nil, ErrNoKeyMaterial
	}

	if env := strings.TrimSpace(os.Getenv(MasterKeyEnv)); env != "" {
		return []byte(env), nil
	}

	return nil, ErrNoKeyMaterial
}
