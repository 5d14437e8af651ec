package upstream

import (
	"context"
	"net/http"
)

// ForgotPassword triggers the reset verification email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	body := map[string]string{"email": email}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/forgot-password", body, callOpts{requestID: RequestID(ctx)})
	if err != nil {
		return "", err
	}

	return envelope.Message, nil
}

// VerifyForgot checks the emailed reset code. The verified code is carried
// forward by the caller into the change-password step.
func (c *Client) VerifyForgot(ctx context.Context, email, code string) (string, error) {
	body := map[string]string{
		"email": email,
		"code":  code,
	}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/verify-forgot", body, callOpts{requestID: RequestID(ctx)})
	if err != nil {
		return "", err
	}

	return envelope.Message, nil
}

// ChangePassword sets the new password using a previously verified code.
func (c *Client) ChangePassword(ctx context.Context, email, code, newPassword string) (string, error) {
	body := map[string]string{
		"email":        email,
		"code":         code,
		"new_password": newPassword,
	}

	envelope, err := c.do(ctx, http.MethodPost, "/auth/change-password", body, callOpts{requestID: RequestID(ctx)})
	if err != nil {
		return "", err
	}

	return envelope.Message, nil
}
