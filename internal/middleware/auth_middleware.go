package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/contactio/contactio/internal/auth"
	"github.com/contactio/contactio/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext returns the authenticated user stashed by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

type AuthMiddleware struct {
	authority *auth.Authority
	logger    *logrus.Logger
}

func NewAuthMiddleware(authority *auth.Authority, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authority: authority,
		logger:    logger,
	}
}

// RequireAuth verifies the Bearer token with access scope and rejects any
// request whose user fails the signature, expiry or login-state gates.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondUnauthorized(w, "UNAUTHORIZED", "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondUnauthorized(w, "UNAUTHORIZED", "Invalid authorization header format")
			return
		}

		user, err := m.authority.VerifyToken(r.Context(), parts[1], auth.ScopeAccess)
		if err != nil {
			m.logger.WithError(err).Debug("Token verification failed")
			code, message := authErrorResponse(err)
			respondUnauthorized(w, code, message)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authErrorResponse distinguishes the expiry cases because the client reacts
// differently: ACCESS_EXPIRED means exchange the refresh token, everything
// else means log in again.
func authErrorResponse(err error) (code, message string) {
	switch {
	case errors.Is(err, auth.ErrAccessExpired):
		return "ACCESS_EXPIRED", "Token expired. Use /auth/refresh with refresh token"
	case errors.Is(err, auth.ErrRefreshExpired):
		return "REFRESH_EXPIRED", "Token expired. Use /auth/login to get new tokens"
	case errors.Is(err, auth.ErrNotLoggedIn):
		return "NOT_LOGGED_IN", "User not logged in. Use /auth/login"
	case errors.Is(err, auth.ErrUserNotFound):
		return "USER_NOT_FOUND", "User not found"
	default:
		return "INVALID_TOKEN", "Invalid token"
	}
}

func respondUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
