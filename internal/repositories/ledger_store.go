package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edupay/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerStore persists one ledger (balance snapshot, opening balance and
// transaction history) per wallet. The raw writes are not transactional
// between themselves; callers that need balance and history to move together
// run them inside Atomically.
type LedgerStore interface {
	// InitLedger prepares an empty ledger seeded with opening. It is a no-op
	// for a ledger that already exists.
	InitLedger(ctx context.Context, walletID uint, opening decimal.Decimal) error

	GetBalance(ctx context.Context, walletID uint) (decimal.Decimal, error)
	GetOpeningBalance(ctx context.Context, walletID uint) (decimal.Decimal, error)
	// GetTransactions returns the history most-recent-first.
	GetTransactions(ctx context.Context, walletID uint) ([]models.Transaction, error)

	SetBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error
	AppendTransaction(ctx context.Context, walletID uint, tx *models.Transaction) error
	RemoveTransaction(ctx context.Context, walletID uint, txID string) error

	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListPending(ctx context.Context, createdBefore time.Time) ([]models.Transaction, error)

	// Atomically runs fn against a view of walletID's ledger. Either all of
	// fn's writes land or none do, and no other Atomically call on the same
	// wallet interleaves with it.
	Atomically(ctx context.Context, walletID uint, fn func(LedgerStore) error) error
}

// Ledger store kinds accepted by NewLedgerStore.
const (
	LedgerStoreSQL   = "sql"
	LedgerStoreRedis = "redis"
)

// NewLedgerStore builds the store selected by kind. The redis store needs a
// client; seed is its opening balance for ledgers missing an opening key.
func NewLedgerStore(kind string, db *gorm.DB, client *redis.Client, seed decimal.Decimal) (LedgerStore, error) {
	switch strings.ToLower(kind) {
	case "", LedgerStoreSQL:
		if db == nil {
			return nil, errors.New("sql ledger store needs a database")
		}
		return NewSQLLedgerStore(db), nil
	case LedgerStoreRedis:
		if client == nil {
			return nil, errors.New("redis ledger store needs a redis client")
		}
		return NewKVLedgerStore(NewRedisKV(client), seed), nil
	default:
		return nil, fmt.Errorf("unknown ledger store %q", kind)
	}
}
