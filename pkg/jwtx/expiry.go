// Package jwtx inspects upstream bearer tokens without verifying them.
//
// The portal never holds the upstream signing keys, so nothing here is a
// security decision: the external API still validates every token. The peek
// only lets the portal drop a session whose token has visibly expired before
// a round trip to the API tells it the same thing.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser()

// ExpiresAt returns the exp claim of raw. ok is false when raw is not a JWT
// or carries no exp claim; opaque tokens therefore never look expired.
func ExpiresAt(raw string) (exp time.Time, ok bool) {
	claims, ok := Peek(raw)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether raw carries an exp claim at or before now.
func Expired(raw string, now time.Time) bool {
	exp, ok := ExpiresAt(raw)
	if !ok {
		return false
	}
	return !now.Before(exp)
}
