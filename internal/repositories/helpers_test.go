package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"edupay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func createWallet(t *testing.T, db *gorm.DB, userID uint, opening int64) *models.Wallet {
	t.Helper()

	w := &models.Wallet{UserID: userID, OpeningBalance: decimal.NewFromInt(opening), Currency: "NGN"}
	require.NoError(t, NewWalletRepository(db).Create(context.Background(), w))
	return w
}
