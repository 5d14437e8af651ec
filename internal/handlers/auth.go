package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/apperrors"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/session"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/upstream"
)

const (
	registerGateTTL = 10 * time.Minute
	loginGateTTL    = 10 * time.Minute
)

type AuthHandler struct {
	upstream *upstream.Client
	gate     *session.Gate
	arrival  *session.Arrival
	logger   logger.Logger

	now func() time.Time
}

func NewAuth(client *upstream.Client, gate *session.Gate, arrival *session.Arrival, l logger.Logger) *AuthHandler {
	return &AuthHandler{
		upstream: client,
		gate:     gate,
		arrival:  arrival,
		logger:   l,
		now:      time.Now,
	}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /resend-verification", h.resendVerification)
	mux.HandleFunc("POST /verify-register", h.verifyRegister)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /verify-login", h.verifyLogin)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	message, err := h.upstream.Register(r.Context(), data.Email, data.Username, data.Password)
	if err != nil {
		upstreamError(w, err)
		return
	}

	// Email is on its way; open the gate for the verify-register step and keep
	// the pending identity in the ticket for resend and verify
	_, err = h.gate.Issue(w, models.PurposeRegisterVerification, models.TicketPayload{
		Email:    data.Email,
		Username: data.Username,
	}, registerGateTTL)
	if err != nil {
		h.logger.Error("failed to issue register ticket", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.OK(w, message, map[string]any{"requiresVerification": true})
}

func (h *AuthHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	payload, err := h.gate.Read(r, models.PurposeRegisterVerification)
	if err != nil {
		ticketError(w)
		return
	}

	message, err := h.upstream.ResendVerification(r.Context(), payload.Email)
	if err != nil {
		upstreamError(w, err)
		return
	}

	// Fresh email, fresh gate lifetime. Last issued wins.
	_, err = h.gate.Issue(w, models.PurposeRegisterVerification, payload, registerGateTTL)
	if err != nil {
		h.logger.Error("failed to reissue register ticket", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.OK(w, message, nil)
}

func (h *AuthHandler) verifyRegister(w http.ResponseWriter, r *http.Request) {
	type VerifyRequest struct {
		Code string `json:"code" validate:"required,len=6"`
	}

	data, err := render.BindAndValidate[VerifyRequest](w, r)
	if err != nil {
		return
	}

	payload, err := h.gate.Read(r, models.PurposeRegisterVerification)
	if err != nil {
		ticketError(w)
		return
	}

	message, err := h.upstream.VerifyRegister(r.Context(), payload.Email, data.Code)
	if err != nil {
		// Wrong code keeps the gate open for a retry
		upstreamError(w, err)
		return
	}

	// Registration verification produces no session; the flow ends here and
	// the user logs in
	if _, err := h.gate.Consume(w, r, models.PurposeRegisterVerification); err != nil && !errors.Is(err, apperrors.ErrTicketNotFound) {
		h.logger.Warn("register ticket consume after success failed", "error", err.Error())
	}

	render.OK(w, message, map[string]any{"redirectTo": "/login"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	message, err := h.upstream.Login(r.Context(), data.Email, data.Password, session.ReadFingerprint(r))
	if err != nil {
		upstreamError(w, err)
		return
	}

	_, err = h.gate.Issue(w, models.PurposeLoginVerification, models.TicketPayload{Email: data.Email}, loginGateTTL)
	if err != nil {
		h.logger.Error("failed to issue login ticket", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.OK(w, message, map[string]any{"requiresVerification": true})
}

func (h *AuthHandler) verifyLogin(w http.ResponseWriter, r *http.Request) {
	type VerifyRequest struct {
		Code string `json:"code" validate:"required,len=6"`
	}

	data, err := render.BindAndValidate[VerifyRequest](w, r)
	if err != nil {
		return
	}

	fingerprint := session.ReadFingerprint(r)
	if fingerprint == "" {
		render.ServiceError(w, "Device fingerprint required", http.StatusBadRequest)
		return
	}

	payload, err := h.gate.Read(r, models.PurposeLoginVerification)
	if err != nil {
		ticketError(w)
		return
	}

	grant, message, err := h.upstream.VerifyLogin(r.Context(), payload.Email, data.Code, fingerprint)
	if err != nil {
		upstreamError(w, err)
		return
	}

	// The code was accepted either way; the ticket is spent now
	if _, err := h.gate.Consume(w, r, models.PurposeLoginVerification); err != nil && !errors.Is(err, apperrors.ErrTicketNotFound) {
		h.logger.Warn("login ticket consume after success failed", "error", err.Error())
	}

	// Device-verification-only outcome: no tokens were issued, the user has to
	// log in again on the now-trusted device. No session cookies, no arrival
	// flag.
	if !grant.Issued() {
		render.OK(w, message, map[string]any{"requiresRelogin": true})
		return
	}

	session.WriteTokenPair(w, grantToPair(grant, h.now()), h.now())
	h.arrival.Set(w)

	render.OK(w, message, map[string]any{"redirectTo": "/dashboard"})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	pair := session.ReadTokenPair(r)
	if pair.Refresh.Value == "" {
		render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		return
	}

	grant, err := h.upstream.Refresh(r.Context(), pair.Refresh.Value, session.ReadFingerprint(r))
	if err != nil || !grant.Issued() {
		// A refresh that fails means the session is gone; leave no cookies
		// pretending otherwise
		session.ClearSession(w)
		if err != nil {
			upstreamError(w, err)
			return
		}
		render.ServiceError(w, "Session expired", http.StatusUnauthorized)
		return
	}

	// Note: refreshing does not grant an arrival flag, only fresh tokens
	session.WriteTokenPair(w, grantToPair(grant, h.now()), h.now())
	render.OK(w, "Tokens refreshed successfully", nil)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	fingerprint := session.ReadFingerprint(r)
	if fingerprint == "" {
		// Privileged operation: absent fingerprint is a hard error, not a
		// silent default
		render.ServiceError(w, "Device fingerprint required", http.StatusBadRequest)
		return
	}

	pair := session.ReadTokenPair(r)
	if !pair.IsPresent() {
		render.ServiceError(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	err := h.upstream.Logout(r.Context(), pair.Access.Value, pair.Refresh.Value, fingerprint)

	// Local cookies are cleared no matter what the backend said: clearing only
	// narrows access
	session.ClearSession(w)

	if err != nil {
		h.logger.Warn("upstream logout failed, session cookies cleared anyway", "error", err.Error())
		upstreamError(w, err)
		return
	}

	render.OK(w, "Logged out successfully", nil)
}

// grantToPair converts an upstream grant into the cookie-facing token pair.
// Access expiry comes from the token's own exp claim when present.
func grantToPair(grant upstream.TokenGrant, now time.Time) models.TokenPair {
	pair := models.TokenPair{
		Access:  models.IssuedToken{Value: grant.AccessToken},
		Refresh: models.IssuedToken{Value: grant.SessionToken},
	}

	if exp, ok := session.AccessExpiry(grant.AccessToken); ok {
		pair.Access.ExpiresAt = exp
	}
	if grant.SessionExpiresAt != nil {
		pair.Refresh.ExpiresAt = *grant.SessionExpiresAt
	}

	return pair
}
