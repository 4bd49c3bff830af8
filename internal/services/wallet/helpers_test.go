package wallet

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"
	"edupay/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// memWallets is an in-memory WalletRepository for the KV fixtures.
type memWallets struct {
	mu      sync.Mutex
	nextID  uint
	wallets map[uint]*models.Wallet
}

func newMemWallets() *memWallets {
	return &memWallets{wallets: make(map[uint]*models.Wallet)}
}

func (m *memWallets) Create(_ context.Context, w *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.wallets {
		if existing.UserID == w.UserID {
			return apperrors.ErrDuplicateUser
		}
	}
	m.nextID++
	w.ID = m.nextID
	w.Balance = w.OpeningBalance
	if w.Status == "" {
		w.Status = models.WalletStatusActive
	}
	cp := *w
	m.wallets[w.ID] = &cp
	return nil
}

func (m *memWallets) GetByID(_ context.Context, id uint) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return nil, apperrors.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWallets) GetByUserID(_ context.Context, userID uint) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.UserID == userID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, apperrors.ErrWalletNotFound
}

func (m *memWallets) UpdateStatus(_ context.Context, walletID uint, status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok {
		return apperrors.ErrWalletNotFound
	}
	w.Status = status
	w.StatusReason = reason
	return nil
}

func (m *memWallets) ListIDs(_ context.Context) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint, 0, len(m.wallets))
	for id := range m.wallets {
		ids = append(ids, id)
	}
	return ids, nil
}

type fixture struct {
	ledger  Ledger
	store   repositories.LedgerStore
	wallets repositories.WalletRepository
	wallet  *models.Wallet
}

func newSQLFixture(t *testing.T, opening string, cfg Config) fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "wallet.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.Migrate(db))

	return openFixture(t, repositories.NewWalletRepository(db), repositories.NewSQLLedgerStore(db), opening, cfg)
}

func newKVFixture(t *testing.T, opening string, cfg Config) fixture {
	t.Helper()
	store := repositories.NewKVLedgerStore(repositories.NewMemoryKV(), decimal.Zero)
	return openFixture(t, newMemWallets(), store, opening, cfg)
}

func openFixture(t *testing.T, wallets repositories.WalletRepository, store repositories.LedgerStore, opening string, cfg Config) fixture {
	t.Helper()
	cfg.SeedBalance = dec(opening)
	l := NewLedger(wallets, store, cfg, nil, discardLogger())
	w, err := l.OpenWallet(context.Background(), 1)
	require.NoError(t, err)
	return fixture{ledger: l, store: store, wallets: wallets, wallet: w}
}

// forEachStore runs fn once per ledger backend.
func forEachStore(t *testing.T, opening string, cfg Config, fn func(t *testing.T, f fixture)) {
	t.Run("sql", func(t *testing.T) { fn(t, newSQLFixture(t, opening, cfg)) })
	t.Run("kv", func(t *testing.T) { fn(t, newKVFixture(t, opening, cfg)) })
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordOperationDuration(op string, d time.Duration) {
	m.Called(op, d)
}

func (m *mockMetrics) RecordError(op, code string) {
	m.Called(op, code)
}

func (m *mockMetrics) RecordTransaction(txType string, amount decimal.Decimal) {
	m.Called(txType, amount)
}

func (m *mockMetrics) RecordBalanceChange(walletID uint, oldBalance, newBalance decimal.Decimal) {
	m.Called(walletID, oldBalance, newBalance)
}

type mockBridge struct {
	mock.Mock
}

func (m *mockBridge) Initiate(ctx context.Context, walletID uint, amount decimal.Decimal, email string) (*Checkout, error) {
	args := m.Called(ctx, walletID, amount, email)
	c, _ := args.Get(0).(*Checkout)
	return c, args.Error(1)
}

func (m *mockBridge) Verify(ctx context.Context, reference string) (*Verification, error) {
	args := m.Called(ctx, reference)
	if fn, ok := args.Get(0).(func(context.Context, string) (*Verification, error)); ok {
		return fn(ctx, reference)
	}
	v, _ := args.Get(0).(*Verification)
	return v, args.Error(1)
}

func (m *mockBridge) Gateway() string {
	return m.Called().String(0)
}

// memCache is a SnapshotCache that JSON-encodes like the Redis one.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) SetWithTTL(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deletes++
	}
	return nil
}
