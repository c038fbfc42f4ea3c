package appMiddleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-todo-auth/internal/api"
	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

// Authenticator resolves a bearer token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*types.Identity, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// resolved identity on the request context.
func Authenticate(logger *slog.Logger, authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			headerParts := strings.Fields(authHeader)
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], types.TokenTypeBearer) {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			identity, err := authenticator.Authenticate(ctx, headerParts[1])
			if err != nil {
				l.WarnContext(ctx, "Token authentication failed", slog.Any("error", err))
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, types.ErrTokenMalformed):
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Malformed token")
				case errors.Is(err, types.ErrAuthenticationFailed):
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				default:
					api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to authenticate request")
				}
				return
			}

			l.DebugContext(ctx, "Authentication successful", slog.String("username", identity.User.Username))
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}
