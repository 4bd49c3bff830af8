package wallet

import (
	"time"

	"edupay/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds configuration for wallet operations
type Config struct {
	Currency string
	// SeedBalance is the opening balance of newly opened wallets.
	SeedBalance decimal.Decimal
	// MaxTransaction caps a single credit or debit; zero disables the cap.
	MaxTransaction decimal.Decimal
	CacheTTL       time.Duration
}

// Result is what a ledger mutation returns: the balance after the mutation
// and the transaction it appended.
type Result struct {
	Balance     decimal.Decimal    `json:"balance"`
	Transaction models.Transaction `json:"transaction"`
}

// AuditReport compares a wallet's stored snapshot with the fold of its log.
type AuditReport struct {
	WalletID     uint            `json:"wallet_id"`
	Opening      decimal.Decimal `json:"opening_balance"`
	Snapshot     decimal.Decimal `json:"snapshot_balance"`
	Derived      decimal.Decimal `json:"derived_balance"`
	Drift        decimal.Decimal `json:"drift"`
	Transactions int             `json:"transactions"`
	Pending      int             `json:"pending"`
	Consistent   bool            `json:"consistent"`
}

// Snapshot is the facade's view of one user's wallet.
type Snapshot struct {
	WalletID     uint                 `json:"wallet_id"`
	Currency     string               `json:"currency"`
	Status       string               `json:"status"`
	Balance      decimal.Decimal      `json:"balance"`
	Transactions []models.Transaction `json:"transactions"`
	FetchedAt    time.Time            `json:"fetched_at"`
}

// Checkout is returned when funding goes through a payment gateway.
type Checkout struct {
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorization_url,omitempty"`
	Gateway          string          `json:"gateway"`
	Amount           decimal.Decimal `json:"amount"`
}

// Verification is the outcome of verifying a gateway funding attempt.
type Verification struct {
	Reference   string              `json:"reference"`
	Status      string              `json:"status"`
	Balance     decimal.Decimal     `json:"balance"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// FundingOutcome is what FundWallet returns. Exactly one of Transaction and
// Checkout is set.
type FundingOutcome struct {
	Snapshot    *Snapshot           `json:"wallet"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Checkout    *Checkout           `json:"checkout,omitempty"`
}

// MutationOutcome is what AddTransaction and VerifyFunding return.
type MutationOutcome struct {
	Snapshot    *Snapshot           `json:"wallet"`
	Transaction *models.Transaction `json:"transaction"`
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordError(operation, errCode string)
	RecordTransaction(txType string, amount decimal.Decimal)
	RecordBalanceChange(walletID uint, oldBalance, newBalance decimal.Decimal)
}

// Option customises the transaction a mutation appends.
type Option func(*models.Transaction)

func WithCategory(category string) Option {
	return func(t *models.Transaction) { t.Category = category }
}

func WithDescription(description string) Option {
	return func(t *models.Transaction) { t.Description = description }
}

func WithReference(reference string) Option {
	return func(t *models.Transaction) { t.Reference = reference }
}

func WithMetadata(metadata map[string]interface{}) Option {
	return func(t *models.Transaction) { t.Metadata = models.NewJSON(metadata) }
}

// WithID sets a caller-generated transaction id.
func WithID(id string) Option {
	return func(t *models.Transaction) { t.ID = id }
}
