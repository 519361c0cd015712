package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/mkrell/taskhive-api/internal/api/shared"
)

// JobAuthMiddleware guards the scheduled-job trigger endpoints with a
// shared bearer secret. The external scheduler is the only expected
// caller; there are no user sessions on these routes.
type JobAuthMiddleware struct {
	secret string
}

// NewJobAuthMiddleware creates a middleware that requires the given
// shared secret as a bearer token.
func NewJobAuthMiddleware(secret string) *JobAuthMiddleware {
	return &JobAuthMiddleware{secret: secret}
}

// Authenticate rejects requests whose Authorization header does not carry
// the configured secret. The comparison is constant-time. A 401 means no
// job execution was attempted.
func (m *JobAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.secret)) != 1 {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}
