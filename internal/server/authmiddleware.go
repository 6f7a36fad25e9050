package server

import (
	"context"
	"net"
	"net/http"

	"github.com/meghraj-labs/auris/internal/auth"
)

// callerIDKey is the context key for the authenticated caller identity.
type callerIDKey struct{}

// AuthMiddleware validates API keys and injects the caller identity used
// for rate limiting and ledger attribution. With authentication disabled
// the caller is identified by remote address, so local deployments still
// get per-client quotas.
func AuthMiddleware(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil || !authenticator.Enabled() {
				ctx := context.WithValue(r.Context(), callerIDKey{}, remoteCaller(r))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			apiKey, err := auth.ExtractAPIKey(r)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			callerID, err := authenticator.Authenticate(apiKey)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), callerIDKey{}, callerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCallerID retrieves the caller identity from context, or "" if unset.
func GetCallerID(ctx context.Context) string {
	if id, ok := ctx.Value(callerIDKey{}).(string); ok {
		return id
	}
	return ""
}

func remoteCaller(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr-" + r.RemoteAddr
	}
	return "addr-" + host
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"kind":"unauthorized","message":"` + err.Error() + `"}}`))
}
