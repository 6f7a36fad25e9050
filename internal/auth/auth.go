// Package auth validates API keys. Keys are never stored or compared in
// plaintext; the service holds SHA-256 digests and hashes each presented
// key before lookup.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Authenticator validates API keys against a configured digest set.
type Authenticator struct {
	keyHashes []string
}

// NewAuthenticator creates an authenticator from SHA-256 hex digests. An
// empty set disables authentication.
func NewAuthenticator(keyHashes []string) *Authenticator {
	hashes := make([]string, 0, len(keyHashes))
	for _, h := range keyHashes {
		hashes = append(hashes, strings.ToLower(h))
	}
	return &Authenticator{keyHashes: hashes}
}

// Enabled reports whether any keys are configured.
func (a *Authenticator) Enabled() bool {
	return len(a.keyHashes) > 0
}

// Authenticate checks apiKey against the digest set and returns a stable
// caller identifier derived from the key's hash. The scan visits every
// configured digest with constant-time comparisons to avoid leaking which
// one matched.
func (a *Authenticator) Authenticate(apiKey string) (string, error) {
	keyHash := HashAPIKey(apiKey)

	matched := false
	for _, h := range a.keyHashes {
		if subtle.ConstantTimeCompare([]byte(keyHash), []byte(h)) == 1 {
			matched = true
		}
	}
	if !matched {
		return "", fmt.Errorf("invalid API key")
	}

	return "key-" + keyHash[:12], nil
}

// ExtractAPIKey pulls the API key from the request. Both "Authorization:
// Bearer <key>" and "X-API-Key: <key>" are accepted.
func ExtractAPIKey(r *http.Request) (string, error) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, nil
	}

	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", fmt.Errorf("missing API key")
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("unsupported authorization scheme")
	}
	return parts[1], nil
}

// HashAPIKey returns the SHA-256 hex digest of an API key for storage.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}
