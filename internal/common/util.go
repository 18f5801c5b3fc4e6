package common

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// MakeRandHexString returns size random bytes encoded as hex.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeURLSafeToken returns size random bytes encoded with unpadded URL-safe
// base64, so the result can be embedded in a link path as is. Sizes below
// MinTokenBytes are raised to MinTokenBytes.
func MakeURLSafeToken(size int) (string, error) {
	if size < MinTokenBytes {
		size = MinTokenBytes
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NormalizeEmail trims and lower-cases an address. Every email comparison in
// the portal goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
