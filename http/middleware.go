package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ykulikov/filedepot"
)

// Verifier resolves a bearer token into an owner identity.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

type contextKey string

const ownerKey contextKey = "owner"

// AuthMiddleware creates middleware that resolves the Authorization bearer
// token into an owner identity and stores it in the request context. A
// missing or invalid token terminates the request with 401.
func AuthMiddleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			ownerID, err := verifier.Verify(token)
			if err != nil {
				HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the owner identity stored by AuthMiddleware.
func OwnerFromContext(ctx context.Context) (uuid.UUID, error) {
	ownerID, ok := ctx.Value(ownerKey).(uuid.UUID)
	if !ok || ownerID == uuid.Nil {
		return uuid.Nil, filedepot.ErrUnauthorized
	}
	return ownerID, nil
}
