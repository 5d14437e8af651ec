package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter mounts the API under /api (behind the internal-request marker) and
// everything else behind the session guard. The outer middlewares (request id,
// metrics, access log) wrap the whole tree.
func NewRouter(
	auth *AuthHandler,
	password *PasswordHandler,
	account *AccountHandler,
	pages *PageHandler,
	guardMw func(http.Handler) http.Handler,
	internalMw func(http.Handler) http.Handler,
	mds ...func(http.Handler) http.Handler,
) http.Handler {
	api := http.NewServeMux()
	api.Handle("/auth/", http.StripPrefix("/auth", auth.Handler()))
	api.Handle("/password/", http.StripPrefix("/password", password.Handler()))
	api.Handle("/user/", http.StripPrefix("/user", account.Handler()))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", internalMw(api)))
	root.Handle("/metrics", promhttp.Handler())
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		render.OK(w, "ok", nil)
	})

	// Page routes, guarded. Public pages fall through the guard untouched.
	root.Handle("/", guardMw(pages.Handler()))

	return chain(root, mds...)
}
