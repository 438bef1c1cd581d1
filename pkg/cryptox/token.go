package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Code size constants (in bytes before encoding).
const (
	// CodeSize128 provides 128 bits of entropy (22 chars base64url).
	CodeSize128 = 16
	// CodeSize256 provides 256 bits of entropy (43 chars base64url).
	// Recommended for single-use credentials such as reset codes.
	CodeSize256 = 32
)

// GenerateCode creates a cryptographically random opaque code of the given
// byte length, returned as base64url without padding.
func GenerateCode(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: code size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintCode returns a deterministic SHA-256 fingerprint of a code as
// base64url. The database stores fingerprints so a leaked table never
// exposes live codes, while lookups stay a single indexed query.
func FingerprintCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
