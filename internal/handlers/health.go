package handlers

import (
	"context"
	"time"

	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Pinger is satisfied by cache.CacheService.
type Pinger interface {
	HealthCheck(ctx context.Context) error
	GetStats() *redis.PoolStats
}

type HealthHandler struct {
	db    *gorm.DB
	cache Pinger
}

// NewHealthHandler accepts a nil cache when Redis is not configured.
func NewHealthHandler(db *gorm.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	services := fiber.Map{"database": "connected", "redis": "disabled"}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		services["database"] = "unreachable"
		status = "degraded"
	}
	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			services["redis"] = "unreachable"
			status = "degraded"
		} else {
			services["redis"] = "connected"
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return utils.Respond(c, code, fiber.Map{
		"status":   status,
		"version":  "1.0.0",
		"services": services,
	})
}

func (h *HealthHandler) CacheStats(c *fiber.Ctx) error {
	if h.cache == nil {
		return utils.Success(c, fiber.Map{"pool_stats": nil})
	}
	poolStats := h.cache.GetStats()
	return utils.Success(c, fiber.Map{
		"pool_stats": fiber.Map{
			"hits":        poolStats.Hits,
			"misses":      poolStats.Misses,
			"timeouts":    poolStats.Timeouts,
			"total_conns": poolStats.TotalConns,
			"idle_conns":  poolStats.IdleConns,
			"stale_conns": poolStats.StaleConns,
		},
	})
}
