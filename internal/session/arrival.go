package session

import (
	"net/http"
	"time"
)

const defaultArrivalTTL = 5 * time.Minute

// Arrival manages the one-shot marker proving a request followed immediately
// from a successful login. Possessing valid tokens is not enough to reach a
// protected page; the client must also carry this flag, and carrying it spends
// it.
type Arrival struct {
	ttl time.Duration
}

func NewArrival(ttl time.Duration) *Arrival {
	if ttl == 0 {
		ttl = defaultArrivalTTL
	}
	return &Arrival{ttl: ttl}
}

// Set writes the flag. Called only by the login-verification success path,
// right before the client is redirected toward a protected route. The TTL is a
// safety net in case the client never completes the redirect.
func (a *Arrival) Set(w http.ResponseWriter) {
	setCookie(w, CookieArrival, "1", a.ttl)
}

// Present reports whether the flag rode in with the request.
func (a *Arrival) Present(r *http.Request) bool {
	c, err := r.Cookie(CookieArrival)
	return err == nil && c.Value != ""
}

// Consume deletes the flag on the response. Called as a side effect of
// allowing the first protected render, which makes the flag single use.
func (a *Arrival) Consume(w http.ResponseWriter) {
	clearCookie(w, CookieArrival)
}
