package wallet

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"
	"edupay/internal/repositories"

	"github.com/shopspring/decimal"
)

// Facade is the per-user view of the wallet used by the HTTP layer and the
// catalog. Every mutation is followed by a refetch and the refetched snapshot
// is what callers get back.
type Facade struct {
	ledger  Ledger
	wallets repositories.WalletRepository
	funding FundingBridge
	cache   SnapshotCache
	config  Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewFacade wires the facade. funding and cache may be nil: without a bridge
// only direct funding is accepted, without a cache every fetch reads the store.
func NewFacade(
	ledger Ledger,
	wallets repositories.WalletRepository,
	funding FundingBridge,
	cache SnapshotCache,
	config Config,
	logger *slog.Logger,
) *Facade {
	if ledger == nil {
		panic("ledger is required")
	}
	if wallets == nil {
		panic("wallet repository is required")
	}
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Facade{
		ledger:  ledger,
		wallets: wallets,
		funding: funding,
		cache:   cache,
		config:  config,
		logger:  logger.With("component", "wallet_facade"),
		now:     time.Now,
	}
}

// Ledger exposes the underlying ledger for admin tooling.
func (f *Facade) Ledger() Ledger {
	return f.ledger
}

// WalletFor returns the user's wallet, opening one on first use.
func (f *Facade) WalletFor(ctx context.Context, userID uint) (*models.Wallet, error) {
	w, err := f.wallets.GetByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, apperrors.ErrWalletNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	w, err = f.ledger.OpenWallet(ctx, userID)
	if err != nil {
		// A concurrent request may have opened it first.
		if existing, lookupErr := f.wallets.GetByUserID(ctx, userID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return w, nil
}

// FetchWalletData returns the balance and history of the user's wallet.
func (f *Facade) FetchWalletData(ctx context.Context, userID uint) (*Snapshot, error) {
	if snap, ok := f.cachedSnapshot(ctx, userID); ok {
		return snap, nil
	}

	w, err := f.WalletFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := f.ledger.Balance(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	txns, err := f.ledger.Transactions(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []models.Transaction{}
	}

	snap := &Snapshot{
		WalletID:     w.ID,
		Currency:     w.Currency,
		Status:       w.Status,
		Balance:      balance,
		Transactions: txns,
		FetchedAt:    f.now().UTC(),
	}
	f.storeSnapshot(ctx, userID, snap)
	return snap, nil
}

// FundWallet credits the wallet directly or starts a gateway checkout.
func (f *Facade) FundWallet(ctx context.Context, userID uint, amount decimal.Decimal, method, email string) (*FundingOutcome, error) {
	w, err := f.WalletFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	method = strings.ToLower(strings.TrimSpace(method))
	switch {
	case method == "" || method == models.FundingMethodDirect:
		res, err := f.ledger.Credit(ctx, w.ID, amount,
			WithDescription(DirectFundingDescription),
			WithMetadata(map[string]interface{}{"method": models.FundingMethodDirect}),
		)
		if err != nil {
			return nil, err
		}
		snap, err := f.refetch(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &FundingOutcome{Snapshot: snap, Transaction: &res.Transaction}, nil

	case f.isGatewayMethod(method):
		checkout, err := f.funding.Initiate(ctx, w.ID, amount, email)
		if err != nil {
			return nil, err
		}
		snap, err := f.refetch(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &FundingOutcome{Snapshot: snap, Checkout: checkout}, nil
	}

	return nil, apperrors.WithMessage(apperrors.ErrInvalidFundingMethod, "unsupported funding method %q", method)
}

// AddTransaction applies a credit or debit described by input.
func (f *Facade) AddTransaction(ctx context.Context, userID uint, input models.TransactionInput) (*MutationOutcome, error) {
	txType := strings.ToLower(strings.TrimSpace(input.Type))
	if txType != models.TransactionTypeCredit && txType != models.TransactionTypeDebit {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransactionType, "unknown transaction type %q", input.Type)
	}

	w, err := f.WalletFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	var opts []Option
	if input.Category != "" {
		opts = append(opts, WithCategory(input.Category))
	}
	if input.Reference != "" {
		opts = append(opts, WithReference(input.Reference))
	}
	if input.Metadata != nil {
		opts = append(opts, WithMetadata(input.Metadata))
	}

	var res *Result
	if txType == models.TransactionTypeCredit {
		if input.Description != "" {
			opts = append(opts, WithDescription(input.Description))
		}
		res, err = f.ledger.Credit(ctx, w.ID, input.Amount, opts...)
	} else {
		res, err = f.ledger.Debit(ctx, w.ID, input.Amount, input.Description, opts...)
	}
	if err != nil {
		return nil, err
	}

	snap, err := f.refetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MutationOutcome{Snapshot: snap, Transaction: &res.Transaction}, nil
}

// VerifyFunding settles a gateway funding attempt started by userID.
func (f *Facade) VerifyFunding(ctx context.Context, userID uint, reference string) (*MutationOutcome, error) {
	if f.funding == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidFundingMethod, "gateway funding is not configured")
	}

	w, err := f.WalletFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := f.ledger.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if pending.WalletID != w.ID {
		return nil, apperrors.ErrTransactionNotFound
	}

	verification, verifyErr := f.funding.Verify(ctx, reference)
	// A failed verification still removed the pending record.
	snap, err := f.refetch(ctx, userID)
	if verifyErr != nil {
		return nil, verifyErr
	}
	if err != nil {
		return nil, err
	}
	return &MutationOutcome{Snapshot: snap, Transaction: verification.Transaction}, nil
}

func (f *Facade) refetch(ctx context.Context, userID uint) (*Snapshot, error) {
	f.InvalidateUser(ctx, userID)
	return f.FetchWalletData(ctx, userID)
}

func (f *Facade) isGatewayMethod(method string) bool {
	if f.funding == nil {
		return false
	}
	return method == models.FundingMethodGateway || method == strings.ToLower(f.funding.Gateway())
}
