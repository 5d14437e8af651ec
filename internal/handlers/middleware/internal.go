package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
)

// HeaderInternalRequest marks calls that came through the page flow. A weak
// perimeter check against direct external calls, not authentication.
const HeaderInternalRequest = "X-Internal-Request"

// InternalOnlyMiddleware rejects API calls that do not carry the internal
// request marker.
func InternalOnlyMiddleware(marker string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(HeaderInternalRequest)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(marker)) != 1 {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
