package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/meghraj-labs/auris/internal/domain"
)

// RequestIDMiddleware assigns each request a unique ID, sets it as the
// X-Request-ID response header, and attaches it to the context so the
// pipeline stamps the same ID on its result and ledger record.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctx := domain.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from context, or "" if unset.
func GetRequestID(ctx context.Context) string {
	return domain.RequestIDFromContext(ctx)
}
