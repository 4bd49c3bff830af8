package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"edupay/internal/models"
	"edupay/internal/repositories"
	"edupay/internal/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string {
	return "mock"
}

func (m *mockGateway) InitializePayment(ctx context.Context, req InitRequest) (*InitResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*InitResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) VerifyPayment(ctx context.Context, reference, gatewayRef string) (*VerifyResponse, error) {
	args := m.Called(ctx, reference, gatewayRef)
	resp, _ := args.Get(0).(*VerifyResponse)
	return resp, args.Error(1)
}

type bridgeFixture struct {
	bridge  *Bridge
	ledger  wallet.Ledger
	gateway *mockGateway
	wallet  *models.Wallet
}

func newBridgeFixture(t *testing.T, opening string) bridgeFixture {
	t.Helper()
	return newBridgeFixtureWithConfig(t, wallet.Config{SeedBalance: dec(opening)})
}

func newBridgeFixtureWithConfig(t *testing.T, cfg wallet.Config) bridgeFixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "payment.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.Migrate(db))

	ledger := wallet.NewLedger(
		repositories.NewWalletRepository(db),
		repositories.NewSQLLedgerStore(db),
		cfg,
		nil,
		discardLogger(),
	)
	w, err := ledger.OpenWallet(context.Background(), 1)
	require.NoError(t, err)

	gw := new(mockGateway)
	bridge := NewBridge(ledger, gw, Config{WebhookSecret: "sk_test_secret"}, discardLogger())
	return bridgeFixture{bridge: bridge, ledger: ledger, gateway: gw, wallet: w}
}

// annotateFailingLedger fails every AnnotatePending call.
type annotateFailingLedger struct {
	wallet.Ledger
}

func (l *annotateFailingLedger) AnnotatePending(context.Context, *models.Transaction, map[string]interface{}) (*models.Transaction, error) {
	return nil, errors.New("storage hiccup")
}
