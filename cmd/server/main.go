// Package main is the entry point of the wallet API server. It wires the
// ledger, the payment bridge and the HTTP layer, then serves until SIGINT or
// SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edupay/internal/config"
	"edupay/internal/handlers"
	"edupay/internal/logging"
	"edupay/internal/middleware"
	"edupay/internal/repositories"
	"edupay/internal/repositories/cache"
	"edupay/internal/routes"
	"edupay/internal/services/auth"
	"edupay/internal/services/catalog"
	"edupay/internal/services/payment"
	"edupay/internal/services/wallet"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := logging.New(cfg.Logging)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if config.IsProduction() {
		if err := cfg.CheckProduction(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.OpenPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("failed to close database connection", "error", err)
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		return err
	}
	log.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)
	go logPoolStats(ctx, db, log)

	redisClient := cache.NewRedisClient(cfg.Redis)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis connection", "error", err)
		}
	}()

	cacheService := cache.NewCacheService(redisClient, cfg.Wallet.CacheTTL)
	var snapshots wallet.SnapshotCache
	var pinger handlers.Pinger
	if err := cacheService.HealthCheck(ctx); err != nil {
		if cfg.Wallet.Store == repositories.LedgerStoreRedis {
			return err
		}
		log.Warn("redis unavailable, wallet snapshots will not be cached", "error", err)
	} else {
		snapshots = cacheService
		pinger = cacheService
	}

	store, err := repositories.NewLedgerStore(cfg.Wallet.Store, db, redisClient, cfg.Wallet.SeedBalance)
	if err != nil {
		return err
	}

	walletCfg := wallet.Config{
		Currency:       cfg.Wallet.Currency,
		SeedBalance:    cfg.Wallet.SeedBalance,
		MaxTransaction: cfg.Wallet.MaxTransaction,
		CacheTTL:       cfg.Wallet.CacheTTL,
	}
	walletRepo := repositories.NewWalletRepository(db)
	ledger := wallet.NewLedger(walletRepo, store, walletCfg, &wallet.LogMetricsCollector{Logger: log}, log)

	gateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		return err
	}
	bridge := payment.NewBridge(ledger, gateway, payment.Config{
		Currency:      cfg.Wallet.Currency,
		Timeout:       cfg.Payment.Timeout,
		WebhookSecret: cfg.Payment.PaystackSecret,
	}, log)

	facade := wallet.NewFacade(ledger, walletRepo, bridge, snapshots, walletCfg, log)
	bridge.OnSettled(facade.WalletChanged)

	products, err := catalog.Load(cfg.Wallet.CatalogFile)
	if err != nil {
		return err
	}
	catalogService := catalog.NewService(products, facade, log)

	tokens, err := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return err
	}
	userRepo := repositories.NewUserRepository(db)
	authService := auth.NewService(userRepo, ledger, tokens, log)

	go bridge.RunSweeper(ctx, cfg.Payment.SweepInterval, cfg.Payment.PendingTTL)

	app := fiber.New(fiber.Config{
		AppName:      "edupay",
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, log),
		User:          handlers.NewUserHandler(userRepo, facade, log),
		Wallet:        handlers.NewWalletHandler(facade, log),
		Catalog:       handlers.NewCatalogHandler(catalogService, log),
		Webhook:       handlers.NewWebhookHandler(bridge, log),
		Admin:         handlers.NewAdminHandler(ledger, bridge, facade, cfg.Payment.PendingTTL, log),
		Health:        handlers.NewHealthHandler(db, pinger),
		AuthMW:        middleware.NewAuthMiddleware(tokens, authService, log),
		AuthRateLimit: cfg.Server.AuthRateLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.Server.Port, "gateway", gateway.Name(), "ledger_store", cfg.Wallet.Store)
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "grace", cfg.Server.ShutdownGrace)
	return app.ShutdownWithTimeout(cfg.Server.ShutdownGrace)
}

// logPoolStats reports connection pool usage once a minute.
func logPoolStats(ctx context.Context, db *gorm.DB, log *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			log.Debug("db pool stats",
				"open", stats.OpenConnections, "idle", stats.Idle, "in_use", stats.InUse,
				"wait_count", stats.WaitCount, "wait_duration", stats.WaitDuration)
		}
	}
}
