package handlers

import (
	"errors"
	"log/slog"

	"edupay/internal/models"
	"edupay/internal/repositories"
	"edupay/internal/services/auth"
	"edupay/internal/services/wallet"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users  repositories.UserRepository
	facade *wallet.Facade
	logger *slog.Logger
}

func NewUserHandler(users repositories.UserRepository, facade *wallet.Facade, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, facade: facade, logger: logger}
}

// GetProfile returns the caller's account together with its wallet balance.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	user, err := h.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "USER_NOT_FOUND", "user not found")
		}
		return respondError(c, h.logger, err)
	}

	body := fiber.Map{
		"user":        auth.ViewOf(user),
		"permissions": claims.Permissions,
	}
	if user.Role != models.RoleAdmin {
		snapshot, err := h.facade.FetchWalletData(c.UserContext(), user.ID)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		body["wallet"] = fiber.Map{
			"wallet_id": snapshot.WalletID,
			"currency":  snapshot.Currency,
			"status":    snapshot.Status,
			"balance":   snapshot.Balance,
		}
	}
	return utils.Success(c, body)
}
