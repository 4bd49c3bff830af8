package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"edupay/internal/config"
	"edupay/internal/models"
	"edupay/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// useSQLite points every command at a fresh sqlite ledger and returns it.
func useSQLite(t *testing.T) (*gorm.DB, *ledgerEnv) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledgerctl.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.Migrate(db))

	cfg := config.Config{
		Wallet:  config.WalletConfig{Store: repositories.LedgerStoreSQL},
		Payment: config.PaymentConfig{Gateway: "sandbox"},
	}
	env, err := newLedgerEnv(cfg, db, nil)
	require.NoError(t, err)

	prev := openEnv
	openEnv = func(config.Config) (*ledgerEnv, error) { return env, nil }
	t.Cleanup(func() { openEnv = prev })
	return db, env
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LEDGER_STORE", "sql")
	t.Setenv("PAYMENT_GATEWAY", "sandbox")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func openFunded(t *testing.T, env *ledgerEnv, userID uint, amount string) uint {
	t.Helper()
	ctx := context.Background()
	w, err := env.ledger.OpenWallet(ctx, userID)
	require.NoError(t, err)
	_, err = env.ledger.Credit(ctx, w.ID, decimal.RequireFromString(amount))
	require.NoError(t, err)
	return w.ID
}

func TestBalanceAndHistory(t *testing.T) {
	_, env := useSQLite(t)
	walletID := openFunded(t, env, 1, "5000")
	_, err := env.ledger.Debit(context.Background(), walletID, decimal.NewFromInt(1200), "NECO token")
	require.NoError(t, err)

	out, err := execute(t, "balance", "1")
	require.NoError(t, err)
	assert.Equal(t, "3800.00\n", out)

	out, err = execute(t, "history", "1", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "NECO token")

	_, err = execute(t, "balance", "abc")
	assert.EqualError(t, err, `invalid wallet id "abc"`)
}

func TestAudit(t *testing.T) {
	db, env := useSQLite(t)
	openFunded(t, env, 1, "100")
	second := openFunded(t, env, 2, "250.50")

	out, err := execute(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "250.50")

	require.NoError(t, db.Model(&models.Wallet{}).Where("id = ?", second).
		Update("balance", decimal.NewFromInt(999)).Error)

	out, err = execute(t, "audit", "--json", "2")
	assert.EqualError(t, err, "1 of 1 wallets drifted")
	assert.Contains(t, out, `"consistent": false`)
}

func TestLockUnlock(t *testing.T) {
	_, env := useSQLite(t)
	walletID := openFunded(t, env, 1, "10")

	_, err := execute(t, "lock", "1", "--reason", "fraud review")
	require.NoError(t, err)
	_, err = env.ledger.Credit(context.Background(), walletID, decimal.NewFromInt(1))
	assert.Error(t, err)

	out, err := execute(t, "unlock", "1")
	require.NoError(t, err)
	assert.Equal(t, "wallet 1 unlocked\n", out)
	_, err = env.ledger.Credit(context.Background(), walletID, decimal.NewFromInt(1))
	assert.NoError(t, err)
}

func TestExpirePending(t *testing.T) {
	_, env := useSQLite(t)
	walletID := openFunded(t, env, 1, "0.01")
	_, err := env.ledger.RecordPending(context.Background(), walletID, decimal.NewFromInt(500), "EDU-STALE", nil)
	require.NoError(t, err)

	out, err := execute(t, "expire-pending", "--older-than", "1h")
	require.NoError(t, err)
	assert.Equal(t, "expired 0 pending fundings\n", out)

	out, err = execute(t, "expire-pending", "--older-than", "0s")
	require.NoError(t, err)
	assert.Equal(t, "expired 1 pending fundings\n", out)

	_, err = env.ledger.FindByReference(context.Background(), "EDU-STALE")
	assert.Error(t, err)
}
