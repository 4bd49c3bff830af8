package wallet

import (
	"context"
	"time"

	"edupay/internal/models"

	"github.com/shopspring/decimal"
)

// Ledger is the only writer of wallet balances.
type Ledger interface {
	// Wallet management
	OpenWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	LockWallet(ctx context.Context, walletID uint, reason string) error
	UnlockWallet(ctx context.Context, walletID uint) error

	// Ledger operations
	Credit(ctx context.Context, walletID uint, amount decimal.Decimal, opts ...Option) (*Result, error)
	Debit(ctx context.Context, walletID uint, amount decimal.Decimal, description string, opts ...Option) (*Result, error)

	// Reads
	Balance(ctx context.Context, walletID uint) (decimal.Decimal, error)
	Transactions(ctx context.Context, walletID uint) ([]models.Transaction, error)
	Audit(ctx context.Context, walletID uint) (*AuditReport, error)

	// Pending records for gateway-backed funding
	RecordPending(ctx context.Context, walletID uint, amount decimal.Decimal, reference string, metadata map[string]interface{}) (*models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListPending(ctx context.Context, createdBefore time.Time) ([]models.Transaction, error)
	DiscardPending(ctx context.Context, walletID uint, txID string) error
	// AnnotatePending merges metadata into a pending record in one atomic
	// step. It does not require the wallet to be active.
	AnnotatePending(ctx context.Context, pending *models.Transaction, metadata map[string]interface{}) (*models.Transaction, error)
	// SettlePending removes the pending record and credits amount in one step.
	SettlePending(ctx context.Context, pending *models.Transaction, amount decimal.Decimal, opts ...Option) (*Result, error)
}

// FundingBridge is the payment-gateway side of wallet funding.
type FundingBridge interface {
	Initiate(ctx context.Context, walletID uint, amount decimal.Decimal, email string) (*Checkout, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
	// Gateway names the gateway used for new checkouts.
	Gateway() string
}

// SnapshotCache is satisfied by cache.CacheService.
type SnapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
