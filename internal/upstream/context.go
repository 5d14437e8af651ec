package upstream

import (
	"context"
)

type ctxKey string

const requestIDKey ctxKey = "request-id"

// NewContextWithRequestID stores the correlation ID for outbound calls.
// Set by the request-id middleware at the edge.
func NewContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation ID or empty string when none was set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
