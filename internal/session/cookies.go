package session

import (
	"net/http"
	"time"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
)

// Cookie names the gateway reads and writes. Token and arrival cookie names
// keep the shape the web client already depends on. Gate cookies are derived
// from the ticket purpose, one name per purpose, so similarly-named flags can
// not drift apart.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
	CookieFingerprint  = "fingerprint"
	CookieArrival      = "from_success"
)

// HeaderFingerprint carries the hashed device signature on privileged calls.
// The cookie is the fallback when the header is absent.
const HeaderFingerprint = "X-Fingerprint-Hashed"

func GateCookieName(p models.Purpose) string {
	return "gate_" + string(p)
}

// ReadTokenPair extracts the presented token pair from request cookies.
// The access expiry is read from the token itself when it parses as a JWT;
// otherwise the token is treated as valid until a refresh call fails.
func ReadTokenPair(r *http.Request) models.TokenPair {
	var pair models.TokenPair

	if c, err := r.Cookie(CookieAccessToken); err == nil {
		pair.Access = models.IssuedToken{Value: c.Value}
		if exp, ok := AccessExpiry(c.Value); ok {
			pair.Access.ExpiresAt = exp
		}
	}
	if c, err := r.Cookie(CookieRefreshToken); err == nil {
		pair.Refresh = models.IssuedToken{Value: c.Value}
	}

	return pair
}

// ReadFingerprint returns the hashed device signature presented with the
// request. Header wins over cookie; empty when the client presented neither.
func ReadFingerprint(r *http.Request) string {
	if fp := r.Header.Get(HeaderFingerprint); fp != "" {
		return fp
	}
	if c, err := r.Cookie(CookieFingerprint); err == nil {
		return c.Value
	}
	return ""
}

// WriteTokenPair sets both token cookies on the response.
func WriteTokenPair(w http.ResponseWriter, pair models.TokenPair, now time.Time) {
	setCookie(w, CookieAccessToken, pair.Access.Value, ttlOf(pair.Access.ExpiresAt, now))
	setCookie(w, CookieRefreshToken, pair.Refresh.Value, ttlOf(pair.Refresh.ExpiresAt, now))
}

// ClearSession removes every session-related cookie: tokens, arrival flag and
// all gate cookies. Used on logout and on refresh failure.
func ClearSession(w http.ResponseWriter) {
	clearCookie(w, CookieAccessToken)
	clearCookie(w, CookieRefreshToken)
	clearCookie(w, CookieArrival)
	for _, p := range []models.Purpose{
		models.PurposeRegisterVerification,
		models.PurposeLoginVerification,
		models.PurposeForgotVerification,
		models.PurposePasswordChange,
	} {
		clearCookie(w, GateCookieName(p))
	}
}

func ttlOf(expiresAt time.Time, now time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	return expiresAt.Sub(now)
}

func setCookie(w http.ResponseWriter, name string, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
