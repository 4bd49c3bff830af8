// Package middleware provides the fiber middleware that authenticates
// requests and checks permissions.
package middleware

import (
	"context"
	"log/slog"
	"strings"

	"edupay/internal/models"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// TokenVersions reports the current token version of a user. Tokens carrying
// an older version were revoked by logout or a password change.
type TokenVersions interface {
	TokenVersion(ctx context.Context, userID uint) (int, error)
}

// AuthMiddleware handles JWT token validation and user authentication.
type AuthMiddleware struct {
	tokens   *utils.TokenIssuer
	versions TokenVersions
	logger   *slog.Logger
}

func NewAuthMiddleware(tokens *utils.TokenIssuer, versions TokenVersions, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		tokens:   tokens,
		versions: versions,
		logger:   logger.With("component", "auth_middleware"),
	}
}

// Handler validates the bearer token and stores its claims in the request
// locals. It checks:
// - presence of the Authorization header with the Bearer prefix
// - signature, issuer and expiry
// - the token version against the user's current version
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := m.tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.logger.Debug("token rejected", "error", err)
		return utils.Unauthorized(c, "invalid token")
	}

	currentVersion, err := m.versions.TokenVersion(c.UserContext(), claims.UserID)
	if err != nil {
		m.logger.Info("token for unknown user", "user_id", claims.UserID, "error", err)
		return utils.Unauthorized(c, "invalid token")
	}
	if claims.TokenVersion != currentVersion {
		m.logger.Info("token version mismatch",
			"user_id", claims.UserID, "token_version", claims.TokenVersion, "current_version", currentVersion)
		return utils.Unauthorized(c, "session expired")
	}

	c.Locals(utils.LocalsClaims, claims)
	c.Locals(utils.LocalsUserID, claims.UserID)
	return c.Next()
}

// AdminOnly rejects callers whose role is not admin.
func AdminOnly(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
// Admins pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}
		if Allowed(claims, permission) {
			return c.Next()
		}
		return utils.Forbidden(c, "insufficient permissions")
	}
}

// Allowed reports whether claims grant permission.
func Allowed(claims *models.UserClaims, permission string) bool {
	return claims.Role == models.RoleAdmin || claims.HasPermission(permission)
}
