package middleware

import (
	"net/http"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/session"
)

// GuardMiddleware runs every page request through the session guard and
// applies the single decision it emits. Denied requests end here: redirect or
// forbidden, no further handler logic runs.
func GuardMiddleware(guard *session.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := guard.Decide(w, r)
			ObserveDecision(decision)

			switch decision {
			case models.DecisionAllow:
				next.ServeHTTP(w, r)
			case models.DecisionDenyForbidden:
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
			default:
				http.Redirect(w, r, decision.RedirectTarget(), http.StatusSeeOther)
			}
		})
	}
}
