package handlers

import (
	"log/slog"

	"edupay/internal/services/catalog"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	catalog *catalog.Service
	logger  *slog.Logger
}

func NewCatalogHandler(service *catalog.Service, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{catalog: service, logger: logger}
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	return utils.Success(c, fiber.Map{"products": h.catalog.List()})
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.Get(c.Params("code"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Success(c, fiber.Map{"product": product})
}

// Purchase debits the caller's wallet and returns the issued scratch cards.
func (h *CatalogHandler) Purchase(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	input := struct {
		Quantity int `json:"quantity"`
	}{Quantity: 1}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Invalid request format")
		}
	}

	receipt, err := h.catalog.Purchase(c.UserContext(), claims.UserID, c.Params("code"), input.Quantity)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.Created(c, receipt)
}
