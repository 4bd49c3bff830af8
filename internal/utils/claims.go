package utils

import (
	"errors"

	"edupay/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middleware.
const (
	LocalsClaims = "claims"
	LocalsUserID = "userID"
)

// GetUserClaims extracts the user claims from the Fiber context.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	v := c.Locals(LocalsClaims)
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.UserClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
