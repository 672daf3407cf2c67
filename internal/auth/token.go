package auth

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds the claims read from a JWT without verifying its signature.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that is not after now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !i.ExpiresAt.After(now)
}

// Inspect decodes tok as a JWT. ok is false for opaque tokens.
func Inspect(tok string) (TokenInfo, bool) {
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(tok, claims); err != nil {
		return TokenInfo{}, false
	}
	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, true
}
