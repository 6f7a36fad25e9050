package domain

import "context"

type requestIDKey struct{}

// ContextWithRequestID attaches a request ID so the pipeline reuses the
// transport-assigned ID instead of minting its own.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the attached request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
