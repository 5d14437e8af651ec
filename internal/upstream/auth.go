package upstream

import (
	"context"
	"net/http"
	"time"
)

// TokenGrant is returned by the backend when it issues credentials. Login
// verification may legitimately return an empty grant ("device fingerprint
// verified"): the user re-logs in before tokens are issued.
type TokenGrant struct {
	AccessToken      string     `json:"access_token"`
	SessionToken     string     `json:"session_token"`
	SessionExpiresAt *time.Time `json:"session_expires_at,omitempty"`
}

func (g TokenGrant) Issued() bool {
	return g.AccessToken != "" && g.SessionToken != ""
}

// Register creates the account and triggers the verification email.
// Returns the backend message, e.g. "Email verification sent".
func (c *Client) Register(ctx context.Context, email, username, password string) (string, error) {
	body := map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/register", body, callOpts{requestID: RequestID(ctx)})
	if err != nil {
		return "", err
	}

	return envelope.Message, nil
}

func (c *Client) ResendVerification(ctx context.Context, email string) (string, error) {
	body := map[string]string{"email": email}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/resend-verification", body, callOpts{requestID: RequestID(ctx)})
	if err != nil {
		return "", err
	}

	return envelope.Message, nil
}

func (c *Client) VerifyRegister(ctx context.Context, email, code string) (string, error) {
	body := map[string]string{
		"email": email,
		"code":  code,
	}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/verify-register", body, callOpts{requestID: RequestID(ctx)})
	if err != nil {
		return "", err
	}

	return envelope.Message, nil
}

// Login checks the credentials and triggers the login verification email.
func (c *Client) Login(ctx context.Context, email, password, fingerprint string) (string, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/login", body, callOpts{
		fingerprint: fingerprint,
		requestID:   RequestID(ctx),
	})
	if err != nil {
		return "", err
	}

	return envelope.Message, nil
}

// VerifyLogin exchanges the emailed code. Two success shapes exist: a token
// grant, or fingerprint-verified-only, in which case the grant is empty and
// the caller must ask the user to log in again.
func (c *Client) VerifyLogin(ctx context.Context, email, code, fingerprint string) (TokenGrant, string, error) {
	var grant TokenGrant

	body := map[string]string{
		"email": email,
		"code":  code,
	}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/verify-login", body, callOpts{
		fingerprint: fingerprint,
		requestID:   RequestID(ctx),
	})
	if err != nil {
		return grant, "", err
	}

	if err := decodeData(envelope, &grant); err != nil {
		return grant, "", err
	}

	return grant, envelope.Message, nil
}
