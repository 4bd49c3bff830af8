package handlers

import (
	"log/slog"
	"strconv"
	"time"

	"edupay/internal/services/payment"
	"edupay/internal/services/wallet"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	ledger     wallet.Ledger
	bridge     *payment.Bridge
	facade     *wallet.Facade
	pendingTTL time.Duration
	logger     *slog.Logger
}

func NewAdminHandler(ledger wallet.Ledger, bridge *payment.Bridge, facade *wallet.Facade, pendingTTL time.Duration, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{ledger: ledger, bridge: bridge, facade: facade, pendingTTL: pendingTTL, logger: logger}
}

func walletIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// AuditWallet compares a wallet's stored balance with the fold of its log.
func (h *AdminHandler) AuditWallet(c *fiber.Ctx) error {
	walletID, ok := walletIDParam(c)
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	report, err := h.ledger.Audit(c.UserContext(), walletID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !report.Consistent {
		h.logger.Warn("wallet drift detected", "wallet_id", walletID, "drift", report.Drift.String())
	}
	return utils.Success(c, report)
}

func (h *AdminHandler) LockWallet(c *fiber.Ctx) error {
	walletID, ok := walletIDParam(c)
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Invalid request format")
		}
	}
	if input.Reason == "" {
		input.Reason = "locked by administrator"
	}

	if err := h.ledger.LockWallet(c.UserContext(), walletID, input.Reason); err != nil {
		return respondError(c, h.logger, err)
	}
	h.facade.WalletChanged(c.UserContext(), walletID)
	return utils.Success(c, fiber.Map{"message": "Wallet locked", "wallet_id": walletID})
}

func (h *AdminHandler) UnlockWallet(c *fiber.Ctx) error {
	walletID, ok := walletIDParam(c)
	if !ok {
		return utils.BadRequest(c, "invalid wallet id")
	}
	if err := h.ledger.UnlockWallet(c.UserContext(), walletID); err != nil {
		return respondError(c, h.logger, err)
	}
	h.facade.WalletChanged(c.UserContext(), walletID)
	return utils.Success(c, fiber.Map{"message": "Wallet unlocked", "wallet_id": walletID})
}

// ExpirePayments discards pending gateway fundings older than older_than
// (a duration such as "2h"), defaulting to the configured TTL.
func (h *AdminHandler) ExpirePayments(c *fiber.Ctx) error {
	ttl := h.pendingTTL
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return utils.BadRequest(c, "invalid older_than duration")
		}
		ttl = d
	}

	expired, err := h.bridge.ExpirePending(c.UserContext(), ttl)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"expired": expired, "older_than": ttl.String()})
}
