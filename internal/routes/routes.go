// Package routes defines the API routing configuration.
package routes

import (
	"time"

	"edupay/internal/handlers"
	"edupay/internal/middleware"
	"edupay/internal/models"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Wallet  *handlers.WalletHandler
	Catalog *handlers.CatalogHandler
	Webhook *handlers.WebhookHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
	AuthMW  *middleware.AuthMiddleware
	// AuthRateLimit caps register and login attempts per IP per minute.
	// Zero disables the limiter.
	AuthRateLimit int
}

func authLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Respond(c, fiber.StatusTooManyRequests, utils.ErrorBody{
				Error: "Too many requests. Please try again later.",
			})
		},
	})
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers) {
	if h.Health != nil {
		app.Get("/health", h.Health.HealthCheck)
	}

	api := app.Group("/api")

	register := []fiber.Handler{h.Auth.RegisterUser}
	login := []fiber.Handler{h.Auth.LoginUser}
	if h.AuthRateLimit > 0 {
		register = append([]fiber.Handler{authLimiter(h.AuthRateLimit)}, register...)
		login = append([]fiber.Handler{authLimiter(h.AuthRateLimit)}, login...)
	}
	api.Post("/register", register...)
	api.Post("/login", login...)

	api.Post("/webhooks/paystack", h.Webhook.Paystack)

	authenticated := api.Group("/", h.AuthMW.Handler)
	authenticated.Post("/logout", h.Auth.Logout)
	authenticated.Post("/change-password", h.Auth.ChangePassword)
	authenticated.Get("/me", h.User.GetProfile)

	wallet := authenticated.Group("/wallet")
	wallet.Get("/", middleware.HasPermission(models.PermissionWalletRead), h.Wallet.GetWallet)
	wallet.Get("/transactions", middleware.HasPermission(models.PermissionWalletRead), h.Wallet.GetTransactions)
	wallet.Post("/transactions", middleware.HasPermission(models.PermissionWalletWrite), h.Wallet.AddTransaction)
	wallet.Post("/fund", middleware.HasPermission(models.PermissionWalletWrite), h.Wallet.FundWallet)
	wallet.Post("/fund/verify", middleware.HasPermission(models.PermissionWalletWrite), h.Wallet.VerifyFunding)

	catalog := authenticated.Group("/catalog")
	catalog.Get("/", h.Catalog.ListProducts)
	catalog.Get("/:code", h.Catalog.GetProduct)
	catalog.Post("/:code/purchase", middleware.HasPermission(models.PermissionCatalogPurchase), h.Catalog.Purchase)

	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Get("/wallets/:id/audit", middleware.HasPermission(models.PermissionReadAdmin), h.Admin.AuditWallet)
	admin.Post("/wallets/:id/lock", middleware.HasPermission(models.PermissionWriteAdmin), h.Admin.LockWallet)
	admin.Post("/wallets/:id/unlock", middleware.HasPermission(models.PermissionWriteAdmin), h.Admin.UnlockWallet)
	admin.Post("/payments/expire", middleware.HasPermission(models.PermissionWriteAdmin), h.Admin.ExpirePayments)
	if h.Health != nil {
		admin.Get("/cache/stats", h.Health.CacheStats)
	}
}
