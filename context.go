package bantay

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	officerContextKey contextKey = iota + 1
	requestIDContextKey
)

// Officer context helpers

// NewContextWithOfficer attaches an officer identity to the context.
func NewContextWithOfficer(ctx context.Context, officer *Officer) context.Context {
	return context.WithValue(ctx, officerContextKey, officer)
}

// OfficerFromContext returns the authenticated officer from the context, or nil.
func OfficerFromContext(ctx context.Context) *Officer {
	officer, _ := ctx.Value(officerContextKey).(*Officer)
	return officer
}

// OfficerIDFromContext returns the authenticated officer's ID, or a zero UUID.
func OfficerIDFromContext(ctx context.Context) uuid.UUID {
	if officer := OfficerFromContext(ctx); officer != nil {
		return officer.ID
	}
	return uuid.UUID{}
}

// Request ID context helpers

// NewContextWithRequestID attaches a request ID to the context.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext returns the request ID from the context, or empty string.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}

// IsAuthenticated returns true if an officer is present in the context.
func IsAuthenticated(ctx context.Context) bool {
	return OfficerFromContext(ctx) != nil
}
