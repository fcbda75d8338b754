package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the upstream access token the portal reads.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user, when the API includes it
	Username string `json:"username,omitempty"`
}

// Peek decodes the claims of raw without checking its signature. ok is false
// for anything that is not a well-formed JWT.
func Peek(raw string) (Claims, bool) {
	var claims Claims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Claims{}, false
	}
	return claims, true
}

// Principal names the token holder for log lines: the username when present,
// otherwise the subject.
func (c Claims) Principal() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}
