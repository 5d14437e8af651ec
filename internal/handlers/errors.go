package handlers

import (
	"errors"
	"net/http"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/apperrors"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/upstream"
)

// upstreamError maps a failed backend call onto the response envelope.
// Rejections surface the upstream message and status; anything else is a
// generic 502. Always fail closed.
func upstreamError(w http.ResponseWriter, err error) {
	var ue *upstream.Error
	if errors.As(err, &ue) && ue.Code == upstream.CodeRejected {
		message := ue.Message
		if message == "" {
			message = "Request rejected by identity service"
		}
		render.ServiceError(w, message, ue.Status)
		return
	}

	if errors.Is(err, apperrors.ErrUpstreamUnavailable) {
		render.ServiceError(w, "Identity service unavailable", http.StatusBadGateway)
		return
	}

	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}

// credentialError maps a failed privileged-call credential check. A missing
// fingerprint is the caller's bug (400); missing or expired tokens mean the
// client should refresh or re-login (401).
func credentialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrMissingFingerprint):
		render.ServiceError(w, "Device fingerprint required", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrAccessTokenExpired):
		render.ServiceError(w, "Access token expired", http.StatusUnauthorized)
	default:
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
	}
}

// ticketError maps a missing or expired verification ticket. Both collapse to
// the same caller-visible outcome; the gate already logged which one it was.
func ticketError(w http.ResponseWriter) {
	render.ServiceError(w, "Verification session expired or missing", http.StatusBadRequest)
}
