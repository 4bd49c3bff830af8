package handlers

import (
	"log/slog"
	"strings"

	"edupay/internal/middleware"
	"edupay/internal/models"
	"edupay/internal/services/wallet"
	"edupay/internal/utils"
	"edupay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	facade *wallet.Facade
	logger *slog.Logger
}

func NewWalletHandler(facade *wallet.Facade, logger *slog.Logger) *WalletHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletHandler{facade: facade, logger: logger}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	snapshot, err := h.facade.FetchWalletData(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"wallet": snapshot})
}

// GetTransactions pages through the caller's ledger, newest first.
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	snapshot, err := h.facade.FetchWalletData(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p := utils.GetPagination(c, 1, 20)
	page := utils.Paginate(snapshot.Transactions, &p)
	return utils.Success(c, utils.NewPaginatedResponse(page, p))
}

func (h *WalletHandler) FundWallet(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input models.FundWalletRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.Funding(input); err != nil {
		return respondError(c, h.logger, err)
	}

	// Only holders of wallet:credit may mint balance without a gateway.
	method := strings.ToLower(strings.TrimSpace(input.Method))
	if !middleware.Allowed(claims, models.PermissionWalletCredit) {
		switch method {
		case "":
			method = models.FundingMethodGateway
		case models.FundingMethodDirect:
			return utils.Forbidden(c, "direct funding is not permitted")
		}
	}

	outcome, err := h.facade.FundWallet(c.UserContext(), claims.UserID, input.Amount, method, claims.Email)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if outcome.Checkout != nil {
		return utils.Respond(c, fiber.StatusAccepted, outcome)
	}
	return utils.Success(c, outcome)
}

func (h *WalletHandler) VerifyFunding(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input models.VerifyFundingRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Reference == "" {
		return utils.BadRequest(c, "reference is required")
	}

	outcome, err := h.facade.VerifyFunding(c.UserContext(), claims.UserID, input.Reference)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, outcome)
}

// AddTransaction records a credit or debit against the caller's wallet.
// Credits need wallet:credit.
func (h *WalletHandler) AddTransaction(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input models.TransactionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.Transaction(input); err != nil {
		return respondError(c, h.logger, err)
	}
	if strings.EqualFold(strings.TrimSpace(input.Type), models.TransactionTypeCredit) &&
		!middleware.Allowed(claims, models.PermissionWalletCredit) {
		return utils.Forbidden(c, "credit transactions are not permitted")
	}

	outcome, err := h.facade.AddTransaction(c.UserContext(), claims.UserID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, outcome)
}
