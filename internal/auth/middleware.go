package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/attarpos/attarpos/internal/platform/httpx"
	"github.com/attarpos/attarpos/internal/shared"
)

// Middleware wires authentication and role checks for HTTP handlers.
// Role checks live here so handlers never repeat inline conditionals.
type Middleware struct {
	Tokens *TokenManager
	Logger *slog.Logger
}

// RequireAuth resolves the bearer token and stores the identity in the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		id, err := m.Tokens.Resolve(r.Context(), token)
		if err != nil {
			if m.Logger != nil && !errors.Is(err, shared.ErrUnauthorized) {
				m.Logger.Error("resolve token", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// RequireRole ensures the authenticated identity carries the given role.
// It must be mounted after RequireAuth.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if id.Role != role {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
