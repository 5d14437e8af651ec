package handlers

import (
	"net/http"
	"time"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/session"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/upstream"
)

// AccountHandler proxies privileged per-user calls. Every one of them needs a
// bearer token and a device fingerprint; the backend does the real
// verification, the gateway just refuses to forward incomplete credentials.
type AccountHandler struct {
	upstream *upstream.Client
	logger   logger.Logger

	now func() time.Time
}

func NewAccount(client *upstream.Client, l logger.Logger) *AccountHandler {
	return &AccountHandler{
		upstream: client,
		logger:   l,
		now:      time.Now,
	}
}

func (h *AccountHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profile", h.profile)

	return mux
}

func (h *AccountHandler) profile(w http.ResponseWriter, r *http.Request) {
	creds, err := session.ReadCredentials(r, h.now())
	if err != nil {
		// An expired access token is the common case here: the refresh token
		// is usually still good, the client should hit /refresh and retry
		credentialError(w, err)
		return
	}

	data, err := h.upstream.Profile(r.Context(), creds.Pair.Access.Value, creds.Fingerprint)
	if err != nil {
		upstreamError(w, err)
		return
	}

	render.OK(w, "Profile fetched successfully", data)
}
