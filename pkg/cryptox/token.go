package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// CookieSecret is a fresh session cookie value (256 bits) together with the
// fingerprint the session store is keyed by.
type CookieSecret struct {
	Value       string
	Fingerprint string
}

// NewCookieSecret draws a session cookie value from crypto/rand.
func NewCookieSecret() (CookieSecret, error) {
	v, err := randomString(32)
	if err != nil {
		return CookieSecret{}, err
	}
	return CookieSecret{Value: v, Fingerprint: FingerprintToken(v)}, nil
}

// NewCSRFToken returns a 128-bit form token.
func NewCSRFToken() (string, error) {
	return randomString(16)
}

// FingerprintToken returns the SHA-256 of token as unpadded base64url.
// A leaked session table therefore holds no usable cookie values.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// TokensEqual compares two submitted secrets in constant time. Empty values
// never match.
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
