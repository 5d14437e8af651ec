package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/upstream"
)

// RequestIDMiddleware assigns every request a correlation ID. An inbound
// X-Request-ID is trusted as-is (the reverse proxy may have set one), otherwise
// a fresh UUID is generated. The ID rides the context into upstream calls and
// is echoed on the response.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(upstream.HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(upstream.HeaderRequestID, id)

			ctx := upstream.NewContextWithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
