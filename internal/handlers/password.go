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
	forgotGateTTL   = 5 * time.Minute
	passwordGateTTL = 5 * time.Minute
)

type PasswordHandler struct {
	upstream *upstream.Client
	gate     *session.Gate
	logger   logger.Logger
}

func NewPassword(client *upstream.Client, gate *session.Gate, l logger.Logger) *PasswordHandler {
	return &PasswordHandler{
		upstream: client,
		gate:     gate,
		logger:   l,
	}
}

func (h *PasswordHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /forgot", h.forgot)
	mux.HandleFunc("POST /verify", h.verifyForgot)
	mux.HandleFunc("POST /change", h.changePassword)

	return mux
}

func (h *PasswordHandler) forgot(w http.ResponseWriter, r *http.Request) {
	type ForgotRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	data, err := render.BindAndValidate[ForgotRequest](w, r)
	if err != nil {
		return
	}

	message, err := h.upstream.ForgotPassword(r.Context(), data.Email)
	if err != nil {
		upstreamError(w, err)
		return
	}

	_, err = h.gate.Issue(w, models.PurposeForgotVerification, models.TicketPayload{Email: data.Email}, forgotGateTTL)
	if err != nil {
		h.logger.Error("failed to issue forgot ticket", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.OK(w, message, map[string]any{"requiresVerification": true})
}

func (h *PasswordHandler) verifyForgot(w http.ResponseWriter, r *http.Request) {
	type VerifyRequest struct {
		Code string `json:"code" validate:"required,len=6"`
	}

	data, err := render.BindAndValidate[VerifyRequest](w, r)
	if err != nil {
		return
	}

	payload, err := h.gate.Read(r, models.PurposeForgotVerification)
	if err != nil {
		ticketError(w)
		return
	}

	message, err := h.upstream.VerifyForgot(r.Context(), payload.Email, data.Code)
	if err != nil {
		upstreamError(w, err)
		return
	}

	// Exchange the forgot gate for the change-password gate. The verified code
	// travels inside the new ticket, not as a bare cookie.
	if _, err := h.gate.Consume(w, r, models.PurposeForgotVerification); err != nil && !errors.Is(err, apperrors.ErrTicketNotFound) {
		h.logger.Warn("forgot ticket consume after success failed", "error", err.Error())
	}

	_, err = h.gate.Issue(w, models.PurposePasswordChange, models.TicketPayload{
		Email: payload.Email,
		Code:  data.Code,
	}, passwordGateTTL)
	if err != nil {
		h.logger.Error("failed to issue password-change ticket", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.OK(w, message, map[string]any{"redirectTo": "/change-password"})
}

func (h *PasswordHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type ChangeRequest struct {
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	data, err := render.BindAndValidate[ChangeRequest](w, r)
	if err != nil {
		return
	}

	// One-shot: the first successful change consumes the ticket, a second call
	// with the same cleared cookie has no credential to present
	payload, err := h.gate.Read(r, models.PurposePasswordChange)
	if err != nil {
		ticketError(w)
		return
	}

	message, err := h.upstream.ChangePassword(r.Context(), payload.Email, payload.Code, data.NewPassword)
	if err != nil {
		upstreamError(w, err)
		return
	}

	if _, err := h.gate.Consume(w, r, models.PurposePasswordChange); err != nil && !errors.Is(err, apperrors.ErrTicketNotFound) {
		h.logger.Warn("password ticket consume after success failed", "error", err.Error())
	}

	render.OK(w, message, map[string]any{"redirectTo": "/login"})
}
