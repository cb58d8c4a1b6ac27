// Package requestid threads a per-request correlation id from the HTTP
// middleware through the context into structured log lines.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// Generate mints a fresh request id.
func Generate() string {
	return uuid.New().String()
}

// ToContext stores the request id on the context.
func ToContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FromContext returns the request id, or "" when the context carries none.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// FromRequest returns the request id of an HTTP request, or "" when the
// middleware has not assigned one.
func FromRequest(r *http.Request) string {
	return FromContext(r.Context())
}
