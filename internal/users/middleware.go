package users

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-id/meridian-id/internal/platform/httpx"
	"github.com/meridian-id/meridian-id/internal/shared"
)

// AuthMiddleware guards routes with bearer-token authentication and
// role checks.
type AuthMiddleware struct {
	service *Service
	logger  *slog.Logger
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(service *Service, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{service: service, logger: logger}
}

// BearerToken extracts the token from an Authorization header, empty when
// absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth validates the bearer token, re-checks the account and
// stores the principal in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			httpx.RespondError(w, shared.E(shared.KindUnauthorized, "authorization token is required"))
			return
		}
		claims, err := m.service.VerifyToken(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		principal := &shared.Principal{
			UserID: claims.UserID(),
			Email:  claims.Email,
			Role:   string(claims.Role),
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRole rejects requests whose principal holds none of the allowed
// roles. It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.E(shared.KindUnauthorized, "authorization token is required"))
				return
			}
			for _, role := range roles {
				if principal.Role == string(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.logger.Warn("role check failed",
				slog.String("user_id", principal.UserID),
				slog.String("role", principal.Role),
				slog.String("path", r.URL.Path))
			httpx.RespondError(w, shared.E(shared.KindForbidden, "insufficient permissions"))
		})
	}
}
