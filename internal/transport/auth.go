package transport

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type collectorKey struct{}

// TokenVerifier resolves a collector name from a bearer token.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// StaticTokens maps bearer tokens to collector names.
type StaticTokens map[string]string

// VerifyToken compares token against every configured token in constant time.
func (s StaticTokens) VerifyToken(_ context.Context, token string) (string, error) {
	var name string
	for want, collector := range s {
		if subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1 {
			name = collector
		}
	}
	if name == "" {
		return "", ErrUnauthorized
	}
	return name, nil
}

// CollectorFromContext returns the authenticated collector name, if present.
func CollectorFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(collectorKey{}).(string)
	return name, ok
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			name, err := verifier.VerifyToken(r.Context(), token)
			if err != nil || name == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), collectorKey{}, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
