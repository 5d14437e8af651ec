package upstream

import (
	"context"
	"encoding/json"
	"net/http"
)

// Refresh exchanges the refresh token for a fresh grant. The backend may
// rotate the session token; callers must persist whatever comes back.
func (c *Client) Refresh(ctx context.Context, refreshToken, fingerprint string) (TokenGrant, error) {
	var grant TokenGrant

	body := map[string]string{"session_token": refreshToken}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/refresh", body, callOpts{
		fingerprint: fingerprint,
		requestID:   RequestID(ctx),
	})
	if err != nil {
		return grant, err
	}

	if err := decodeData(envelope, &grant); err != nil {
		return grant, err
	}

	return grant, nil
}

// Logout revokes the session server side.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken, fingerprint string) error {
	body := map[string]string{"session_token": refreshToken}

	_, err := c.do(ctx, http.MethodPost, "/auth/logout", body, callOpts{
		bearer:      accessToken,
		fingerprint: fingerprint,
		requestID:   RequestID(ctx),
	})
	return err
}

// Profile fetches the authenticated user's profile as the backend shaped it.
func (c *Client) Profile(ctx context.Context, accessToken, fingerprint string) (json.RawMessage, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/user/profile", nil, callOpts{
		bearer:      accessToken,
		fingerprint: fingerprint,
		requestID:   RequestID(ctx),
	})
	if err != nil {
		return nil, err
	}

	return envelope.Data, nil
}
