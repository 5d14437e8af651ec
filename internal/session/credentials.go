package session

import (
	"net/http"
	"time"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/apperrors"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
)

// Credentials is the full set a privileged API call must present.
type Credentials struct {
	Pair        models.TokenPair
	Fingerprint string
}

// ReadCredentials extracts and checks the credentials of a privileged call.
// The checks run in order: fingerprint first (device attribution is required
// even to learn the session is gone), then token presence, then access expiry.
func ReadCredentials(r *http.Request, now time.Time) (Credentials, error) {
	c := Credentials{
		Pair:        ReadTokenPair(r),
		Fingerprint: ReadFingerprint(r),
	}

	if c.Fingerprint == "" {
		return c, apperrors.ErrMissingFingerprint
	}
	if !c.Pair.IsPresent() {
		return c, apperrors.ErrMissingCredential
	}
	if c.Pair.Access.Expired(now) {
		return c, apperrors.ErrAccessTokenExpired
	}

	return c, nil
}
