package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("EDUPAY_TEST_VALUE", "set")
	t.Setenv("EDUPAY_TEST_EMPTY", "")

	assert.Equal(t, "set", GetEnv("EDUPAY_TEST_VALUE", "default"))
	assert.Equal(t, "default", GetEnv("EDUPAY_TEST_EMPTY", "default"))
	assert.Equal(t, "default", GetEnv("EDUPAY_TEST_MISSING", "default"))
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("EDUPAY_INT", "42")
	t.Setenv("EDUPAY_BAD_INT", "forty")
	t.Setenv("EDUPAY_DURATION", "90s")
	t.Setenv("EDUPAY_DECIMAL", "3400.50")
	t.Setenv("EDUPAY_BAD_DECIMAL", "lots")

	assert.Equal(t, 42, GetIntEnv("EDUPAY_INT", 1))
	assert.Equal(t, 1, GetIntEnv("EDUPAY_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, GetDurationEnv("EDUPAY_DURATION", time.Second))
	assert.True(t, decimal.RequireFromString("3400.50").Equal(GetDecimalEnv("EDUPAY_DECIMAL", decimal.Zero)))
	assert.True(t, decimal.Zero.Equal(GetDecimalEnv("EDUPAY_BAD_DECIMAL", decimal.Zero)))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY", "")
	t.Setenv("LEDGER_STORE", "")
	t.Setenv("WALLET_CURRENCY", "")

	cfg := Load()

	assert.Equal(t, "sandbox", cfg.Payment.Gateway)
	assert.Equal(t, "sql", cfg.Wallet.Store)
	assert.Equal(t, "NGN", cfg.Wallet.Currency)
	assert.Equal(t, 24*time.Hour, cfg.Payment.PendingTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY", "paystack")
	t.Setenv("WALLET_SEED_BALANCE", "10000")
	t.Setenv("PAYMENT_TIMEOUT", "5s")

	cfg := Load()

	assert.Equal(t, "paystack", cfg.Payment.Gateway)
	assert.True(t, decimal.NewFromInt(10000).Equal(cfg.Wallet.SeedBalance))
	assert.Equal(t, 5*time.Second, cfg.Payment.Timeout)
}

func TestCheckProduction(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	err := cfg.CheckProduction()
	assert.ErrorContains(t, err, "PAYMENT_GATEWAY=sandbox")
	assert.ErrorContains(t, err, "JWT_SECRET must be set")

	t.Setenv("PAYMENT_GATEWAY", "paystack")
	t.Setenv("JWT_SECRET", "a-long-random-secret")
	assert.NoError(t, Load().CheckProduction())

	t.Setenv("JWT_SECRET", DevJWTSecret)
	assert.ErrorContains(t, Load().CheckProduction(), "JWT_SECRET")
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	assert.True(t, IsProduction())
	t.Setenv("ENV", "staging")
	assert.False(t, IsProduction())
}
