// Package middleware holds the HTTP middleware of the dispatch API.
package middleware

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logiroute/internal/auth"
	"github.com/ukydev/logiroute/internal/db"
	"github.com/ukydev/logiroute/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// UserFinder looks up the account behind a token.
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
	users       UserFinder
}

// NewAuthMiddleware creates a new authentication middleware. With a non-nil
// users, every request re-reads the account so that deactivating it or
// changing its role takes effect before the token expires. With nil, the
// token alone is trusted until JWT_EXPIRY.
func NewAuthMiddleware(authService *auth.Service, users UserFinder) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		users:       users,
	}
}

// Authenticate validates JWT tokens and adds user context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		token, err := m.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			log.WithFields(log.Fields{
				"request_id": RequestIDFromContext(r.Context()),
				"path":       r.URL.Path,
			}).WithError(err).Debug("rejected token")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if m.users != nil {
			status, msg := m.checkAccount(r, claims)
			if status != http.StatusOK {
				http.Error(w, msg, status)
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// checkAccount rejects tokens of deleted or deactivated accounts and refreshes
// the role in claims from the stored account.
func (m *AuthMiddleware) checkAccount(r *http.Request, claims *models.Claims) (int, string) {
	entry := log.WithFields(log.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"user_id":    claims.UserID,
	})
	user, err := m.users.FindUserByID(r.Context(), claims.UserID)
	if errors.Is(err, db.ErrUserNotFound) {
		entry.Debug("token for unknown account")
		return http.StatusUnauthorized, "Invalid token"
	}
	if err != nil {
		entry.WithError(err).Error("Failed to load account")
		return http.StatusInternalServerError, "Internal server error"
	}
	if !user.IsActive {
		entry.Debug("token for deactivated account")
		return http.StatusUnauthorized, "Account is deactivated"
	}
	claims.Role = user.Role
	return http.StatusOK, ""
}

// RequirePermission middleware checks if the user has the required permission
func (m *AuthMiddleware) RequirePermission(requiredAction string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				http.Error(w, "User context not found", http.StatusUnauthorized)
				return
			}

			if !models.RoleHasPermission(claims.Role, requiredAction) {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

var skipPaths = map[string]bool{
	"/api/auth/login":    true,
	"/api/auth/register": true,
	"/health":            true,
	"/metrics":           true,
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	return skipPaths[path]
}
