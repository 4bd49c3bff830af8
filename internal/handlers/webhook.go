package handlers

import (
	"log/slog"

	"edupay/internal/services/payment"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	bridge *payment.Bridge
	logger *slog.Logger
}

func NewWebhookHandler(bridge *payment.Bridge, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{bridge: bridge, logger: logger}
}

// Paystack receives charge events. The signature covers the raw body, so
// the body is passed through unparsed.
func (h *WebhookHandler) Paystack(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	signature := c.Get(payment.SignatureHeader)

	if err := h.bridge.HandleWebhook(c.UserContext(), payload, signature); err != nil {
		h.logger.Warn("webhook rejected", "ip", c.IP(), "error", err)
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"status": "ok"})
}
