package apperrors

import (
	"errors"
)

var (
	ErrMissingCredential  = errors.New("required credential is missing")
	ErrMissingFingerprint = errors.New("device fingerprint is missing")
	ErrAccessTokenExpired = errors.New("access token is expired")

	ErrTicketNotFound = errors.New("verification ticket not found")
	ErrTicketExpired  = errors.New("verification ticket is expired")

	ErrUpstreamUnavailable = errors.New("identity backend is unavailable")
	ErrUpstreamRejected    = errors.New("identity backend rejected the request")
)
