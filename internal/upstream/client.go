package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/apperrors"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
)

const (
	CodeRejected    = "rejected"
	CodeUnavailable = "unavailable"

	defaultTimeout = 7 * time.Second
)

// HeaderRequestID correlates gateway requests with backend logs.
const HeaderRequestID = "X-Request-ID"

const headerFingerprint = "X-Fingerprint-Hashed"

// Envelope is the uniform response shape of the identity backend. The gateway
// reuses the same shape toward its own clients.
type Envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
}

type Error struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %s, status: %d, message: %s, error: %v", e.Code, e.Status, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newRejectedError(status int, message string) *Error {
	return &Error{
		Code:    CodeRejected,
		Status:  status,
		Message: message,
		Err:     apperrors.ErrUpstreamRejected,
	}
}

func newUnavailableError(err error) *Error {
	return &Error{
		Code: CodeUnavailable,
		Err:  fmt.Errorf("%w: %w", apperrors.ErrUpstreamUnavailable, err),
	}
}

// Client talks to the identity backend. Every call is time boxed and fails
// closed: a timeout or a non-2xx response is an error, never a silent allow.
type Client struct {
	BaseURL string

	client  *http.Client
	timeout time.Duration
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, l logger.Logger) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		BaseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
		logger:  l,
	}
}

// callOpts carries the per-call credential headers.
type callOpts struct {
	bearer      string
	fingerprint string
	requestID   string
}

func (c *Client) do(ctx context.Context, method string, path string, body any, opts callOpts) (Envelope, error) {
	var envelope Envelope

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			return envelope, newUnavailableError(fmt.Errorf("failed to encode request: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &reqBody)
	if err != nil {
		return envelope, newUnavailableError(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if opts.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearer)
	}
	if opts.fingerprint != "" {
		req.Header.Set(headerFingerprint, opts.fingerprint)
	}
	if opts.requestID != "" {
		req.Header.Set(HeaderRequestID, opts.requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("identity backend call failed", "path", path, "error", err.Error())
		return envelope, newUnavailableError(err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		// Non-2xx without a parsable body still must carry a message
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return envelope, newRejectedError(resp.StatusCode, "")
		}
		c.logger.Warn("failed to decode identity backend response", "path", path, "error", err.Error())
		return envelope, newUnavailableError(fmt.Errorf("failed to decode response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Info("identity backend rejected request", "path", path, "status", resp.StatusCode, "message", envelope.Message)
		return envelope, newRejectedError(resp.StatusCode, envelope.Message)
	}

	return envelope, nil
}

// decodeData unmarshals the envelope data into the op-specific struct.
// An empty data field leaves the target at its zero value.
func decodeData(envelope Envelope, target any) error {
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return newUnavailableError(fmt.Errorf("failed to decode response data: %w", err))
	}
	return nil
}
