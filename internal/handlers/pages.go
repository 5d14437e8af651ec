package handlers

import (
	"net/http"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
)

// PageHandler answers guarded page routes once the session guard allowed them.
// The real rendering happens client side; the gateway only confirms the page
// may be shown and hands back the minimal page descriptor.
type PageHandler struct{}

func NewPages() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Handler() http.Handler {
	mux := http.NewServeMux()

	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			render.OK(w, "ok", map[string]any{"page": name})
		}
	}

	mux.HandleFunc("GET /dashboard", page("dashboard"))
	mux.HandleFunc("GET /dashboard/", page("dashboard"))
	mux.HandleFunc("GET /verify-register", page("verify-register"))
	mux.HandleFunc("GET /verify-login", page("verify-login"))
	mux.HandleFunc("GET /verify-forgot", page("verify-forgot"))
	mux.HandleFunc("GET /change-password", page("change-password"))

	return mux
}
