package models

import (
	"crypto/subtle"
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token lifetime elapsed.
// Tokens without a known expiry are treated as valid until a refresh call fails.
func (t IssuedToken) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}

// Token pair presented by the client or issued by the identity backend
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// IsPresent reports whether both tokens are non empty.
// Absence of either one means the client is logged out.
func (p TokenPair) IsPresent() bool {
	return p.Access.Value != "" && p.Refresh.Value != ""
}

func (p TokenPair) IsExpired(now time.Time) bool {
	return p.Access.Expired(now) || p.Refresh.Expired(now)
}

// Session is one authenticated principal-device pairing.
// The fingerprint is an opaque hash computed on the client; the gateway only
// compares it against the value bound at login.
type Session struct {
	Tokens      TokenPair
	Fingerprint string
}

func (s Session) Usable(now time.Time) bool {
	return s.Tokens.IsPresent() && !s.Tokens.IsExpired(now)
}

// MatchesFingerprint compares the presented hash with the bound one.
// Constant time so the comparison itself leaks nothing.
func (s Session) MatchesFingerprint(presented string) bool {
	if s.Fingerprint == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.Fingerprint), []byte(presented)) == 1
}
