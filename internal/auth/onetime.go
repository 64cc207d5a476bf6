package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewOneTimeToken returns a random URL-safe token and the hash to persist.
// Only the hash is stored; the raw token travels in the emailed link.
func NewOneTimeToken() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, HashOneTimeToken(raw), nil
}

// HashOneTimeToken hashes a raw one-time token for lookup.
func HashOneTimeToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
