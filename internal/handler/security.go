package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/averix/orderhold/internal/domain/auth"
)

// apiKeyHeader carries the caller's API key.
const apiKeyHeader = "X-API-Key"

// Security authenticates requests via HMAC-SHA256 hashed API keys and puts
// the resolved caller on the request context.
type Security struct {
	callers auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security with the given caller repository and HMAC
// pepper.
func NewSecurity(callers auth.Repository, pepper []byte) *Security {
	return &Security{
		callers: callers,
		pepper:  pepper,
	}
}

// HashKey computes the HMAC-SHA256 hex digest of an API key. The same
// function is used when seeding keys, so the two sides cannot drift.
func (s *Security) HashKey(key string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate resolves the API key header to a caller. Requests without a
// key, or with a key that matches no active record, get 401.
func (s *Security) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			respondError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		caller, err := s.callers.FindByKeyHash(r.Context(), s.HashKey(key))
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
	})
}

// RequireCustomer rejects authenticated callers that do not hold the
// customer role. The caller's active flag is irrelevant here: role gating
// answers "who are you", not "are you in good standing".
func RequireCustomer(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			respondError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		if !caller.IsCustomer() {
			respondError(w, r, http.StatusForbidden, "customer role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
