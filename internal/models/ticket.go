package models

import (
	"time"

	"github.com/google/uuid"
)

// Purpose tags a verification ticket with the one follow-up action it permits.
type Purpose string

const (
	PurposeRegisterVerification Purpose = "register-verification"
	PurposeLoginVerification    Purpose = "login-verification"
	PurposeForgotVerification   Purpose = "forgot-verification"
	PurposePasswordChange       Purpose = "password-change"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeRegisterVerification, PurposeLoginVerification, PurposeForgotVerification, PurposePasswordChange:
		return true
	}
	return false
}

// TicketPayload is the minimal state carried between flow steps.
// Which fields are set depends on the purpose.
type TicketPayload struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Code     string `json:"code,omitempty"`
}

// VerificationTicket is a one-time, purpose-scoped, time-boxed grant.
// Created after a successful upstream call, consumed by exactly one follow-up
// action, never mutated in place.
type VerificationTicket struct {
	ID        uuid.UUID     `json:"id"`
	Purpose   Purpose       `json:"purpose"`
	Payload   TicketPayload `json:"payload"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

func (t VerificationTicket) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
