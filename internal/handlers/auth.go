package handlers

import (
	"log/slog"

	"edupay/internal/services/auth"
	"edupay/internal/utils"
	"edupay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
	logger      *slog.Logger
}

func NewAuthHandler(authService auth.Service, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{authService: authService, logger: logger}
}

// RegisterUser creates the account and opens its wallet.
func (h *AuthHandler) RegisterUser(c *fiber.Ctx) error {
	var input validation.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	user, w, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	body := fiber.Map{
		"message": "Registration successful",
		"user":    auth.ViewOf(user),
	}
	if w != nil {
		body["wallet_id"] = w.ID
	}
	return utils.Created(c, body)
}

// LoginUser handles user authentication and returns an access token.
func (h *AuthHandler) LoginUser(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "Email and password are required")
	}

	session, err := h.authService.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, session)
}

// Logout revokes every token issued to the caller.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if err := h.authService.Logout(c.UserContext(), claims.UserID); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.ChangePassword(c.UserContext(), claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"message": "Password changed successfully"})
}
