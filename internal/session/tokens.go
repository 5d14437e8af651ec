package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessExpiry extracts the expiry claim from an upstream-issued access token.
// The token is opaque to the gateway and its signature is validated by the
// identity backend, so the claims are read without verification here. Returns
// false when the token is not a JWT or carries no expiry.
func AccessExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}
