package wallet

import (
	"context"
	"log/slog"
	"time"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"
	"edupay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ledger struct {
	wallets repositories.WalletRepository
	store   repositories.LedgerStore
	locks   *walletLocks
	config  Config
	metrics MetricsCollector
	logger  *slog.Logger
	now     func() time.Time
}

// NewLedger creates the wallet ledger
func NewLedger(
	wallets repositories.WalletRepository,
	store repositories.LedgerStore,
	config Config,
	metrics MetricsCollector,
	logger *slog.Logger,
) Ledger {
	if wallets == nil {
		panic("wallet repository is required")
	}
	if store == nil {
		panic("ledger store is required")
	}

	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ledger{
		wallets: wallets,
		store:   store,
		locks:   newWalletLocks(),
		config:  config,
		metrics: metrics,
		logger:  logger.With("component", "ledger"),
		now:     time.Now,
	}
}

func (l *ledger) OpenWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	w := &models.Wallet{
		UserID:         userID,
		OpeningBalance: l.config.SeedBalance,
		Currency:       l.config.Currency,
		Status:         models.WalletStatusActive,
	}
	if err := l.wallets.Create(ctx, w); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if err := l.store.InitLedger(ctx, w.ID, w.OpeningBalance); err != nil {
		return nil, err
	}

	l.logger.Info("wallet opened",
		"wallet_id", w.ID, "user_id", userID, "opening_balance", w.OpeningBalance.String())
	return w, nil
}

func (l *ledger) LockWallet(ctx context.Context, walletID uint, reason string) error {
	if err := l.wallets.UpdateStatus(ctx, walletID, models.WalletStatusLocked, reason); err != nil {
		return err
	}
	l.logger.Warn("wallet locked", "wallet_id", walletID, "reason", reason)
	return nil
}

func (l *ledger) UnlockWallet(ctx context.Context, walletID uint) error {
	if err := l.wallets.UpdateStatus(ctx, walletID, models.WalletStatusActive, ""); err != nil {
		return err
	}
	l.logger.Info("wallet unlocked", "wallet_id", walletID)
	return nil
}

func (l *ledger) Credit(ctx context.Context, walletID uint, amount decimal.Decimal, opts ...Option) (*Result, error) {
	if err := l.validateAmount(amount); err != nil {
		l.metrics.RecordError("credit", apperrors.CodeOf(err))
		return nil, err
	}

	entry := l.newEntry(models.TransactionTypeCredit, amount, models.CategoryFunding, DefaultCreditDescription, opts)
	return l.mutate(ctx, "credit", walletID, entry, nil, func(balance decimal.Decimal) (decimal.Decimal, error) {
		return balance.Add(amount), nil
	})
}

func (l *ledger) Debit(ctx context.Context, walletID uint, amount decimal.Decimal, description string, opts ...Option) (*Result, error) {
	if err := l.validateAmount(amount); err != nil {
		l.metrics.RecordError("debit", apperrors.CodeOf(err))
		return nil, err
	}

	entry := l.newEntry(models.TransactionTypeDebit, amount, DefaultDebitCategory, description, opts)
	return l.mutate(ctx, "debit", walletID, entry, nil, func(balance decimal.Decimal) (decimal.Decimal, error) {
		if amount.GreaterThan(balance) {
			return decimal.Zero, apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				"insufficient wallet balance: need %s, have %s", amount.StringFixed(AmountScale), balance.StringFixed(AmountScale))
		}
		return balance.Sub(amount), nil
	})
}

func (l *ledger) SettlePending(ctx context.Context, pending *models.Transaction, amount decimal.Decimal, opts ...Option) (*Result, error) {
	// The transaction cap is checked when the checkout opens, not here.
	if err := validateFormat(amount); err != nil {
		l.metrics.RecordError("settle", apperrors.CodeOf(err))
		return nil, err
	}

	base := []Option{
		WithReference(pending.Reference),
		WithDescription(pending.Description),
		WithMetadata(pending.Metadata),
	}
	entry := l.newEntry(models.TransactionTypeCredit, amount, models.CategoryFunding, DefaultCreditDescription, append(base, opts...))

	remove := func(tx repositories.LedgerStore) error {
		return tx.RemoveTransaction(ctx, pending.WalletID, pending.ID)
	}
	return l.mutate(ctx, "settle", pending.WalletID, entry, remove, func(balance decimal.Decimal) (decimal.Decimal, error) {
		return balance.Add(amount), nil
	})
}

func (l *ledger) RecordPending(ctx context.Context, walletID uint, amount decimal.Decimal, reference string, metadata map[string]interface{}) (*models.Transaction, error) {
	if err := l.validateAmount(amount); err != nil {
		return nil, err
	}
	w, err := l.activeWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	description := DefaultCreditDescription
	if gateway, ok := metadata["gateway"].(string); ok && gateway != "" {
		description = "Wallet funding via " + gateway
	}
	entry := l.newEntry(models.TransactionTypeCredit, amount, models.CategoryFunding, description, []Option{
		WithReference(reference),
		WithMetadata(metadata),
	})
	entry.Status = models.TransactionStatusPending

	unlock, err := l.locks.Lock(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = l.store.Atomically(ctx, w.ID, func(tx repositories.LedgerStore) error {
		return tx.AppendTransaction(ctx, w.ID, entry)
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("pending funding recorded",
		"wallet_id", w.ID, "reference", reference, "amount", amount.String())
	return entry, nil
}

func (l *ledger) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	return l.store.FindByReference(ctx, reference)
}

func (l *ledger) ListPending(ctx context.Context, createdBefore time.Time) ([]models.Transaction, error) {
	return l.store.ListPending(ctx, createdBefore)
}

func (l *ledger) AnnotatePending(ctx context.Context, pending *models.Transaction, metadata map[string]interface{}) (*models.Transaction, error) {
	updated := *pending
	updated.Metadata = models.JSON{}
	for k, v := range pending.Metadata {
		updated.Metadata[k] = v
	}
	for k, v := range metadata {
		updated.Metadata[k] = v
	}

	unlock, err := l.locks.Lock(ctx, pending.WalletID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = l.store.Atomically(ctx, pending.WalletID, func(tx repositories.LedgerStore) error {
		if err := tx.RemoveTransaction(ctx, pending.WalletID, pending.ID); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, pending.WalletID, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (l *ledger) DiscardPending(ctx context.Context, walletID uint, txID string) error {
	unlock, err := l.locks.Lock(ctx, walletID)
	if err != nil {
		return err
	}
	defer unlock()

	return l.store.Atomically(ctx, walletID, func(tx repositories.LedgerStore) error {
		return tx.RemoveTransaction(ctx, walletID, txID)
	})
}

func (l *ledger) Balance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	opening, err := l.store.GetOpeningBalance(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	txns, err := l.store.GetTransactions(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return models.FoldBalance(opening, txns), nil
}

func (l *ledger) Transactions(ctx context.Context, walletID uint) ([]models.Transaction, error) {
	return l.store.GetTransactions(ctx, walletID)
}

func (l *ledger) Audit(ctx context.Context, walletID uint) (*AuditReport, error) {
	opening, err := l.store.GetOpeningBalance(ctx, walletID)
	if err != nil {
		return nil, err
	}
	snapshot, err := l.store.GetBalance(ctx, walletID)
	if err != nil {
		return nil, err
	}
	txns, err := l.store.GetTransactions(ctx, walletID)
	if err != nil {
		return nil, err
	}

	derived := models.FoldBalance(opening, txns)
	report := &AuditReport{
		WalletID:     walletID,
		Opening:      opening,
		Snapshot:     snapshot,
		Derived:      derived,
		Drift:        snapshot.Sub(derived),
		Transactions: len(txns),
	}
	for i := range txns {
		if txns[i].Status == models.TransactionStatusPending {
			report.Pending++
		}
	}
	report.Consistent = report.Drift.IsZero()

	if !report.Consistent {
		l.logger.Warn("ledger drift detected",
			"wallet_id", walletID, "snapshot", snapshot.String(), "derived", derived.String())
	}
	return report, nil
}

// mutate runs one balance change: active check, per-wallet lock, then an
// atomic section that derives the balance from the log, applies next and
// writes the new snapshot together with entry.
func (l *ledger) mutate(
	ctx context.Context,
	op string,
	walletID uint,
	entry *models.Transaction,
	before func(repositories.LedgerStore) error,
	next func(decimal.Decimal) (decimal.Decimal, error),
) (*Result, error) {
	start := l.now()
	defer func() {
		l.metrics.RecordOperationDuration(op, time.Since(start))
	}()

	result, err := l.doMutate(ctx, walletID, entry, before, next)
	if err != nil {
		l.metrics.RecordError(op, apperrors.CodeOf(err))
		l.logger.Debug("ledger mutation rejected", "operation", op, "wallet_id", walletID, "error", err)
		return nil, err
	}

	l.metrics.RecordTransaction(entry.Type, entry.Amount)
	l.logger.Info("ledger mutation applied",
		"operation", op,
		"wallet_id", walletID,
		"transaction_id", entry.ID,
		"amount", entry.Amount.String(),
		"balance", result.Balance.String(),
	)
	return result, nil
}

func (l *ledger) doMutate(
	ctx context.Context,
	walletID uint,
	entry *models.Transaction,
	before func(repositories.LedgerStore) error,
	next func(decimal.Decimal) (decimal.Decimal, error),
) (*Result, error) {
	if _, err := l.activeWallet(ctx, walletID); err != nil {
		return nil, err
	}

	unlock, err := l.locks.Lock(ctx, walletID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result Result
	err = l.store.Atomically(ctx, walletID, func(tx repositories.LedgerStore) error {
		if before != nil {
			if err := before(tx); err != nil {
				return err
			}
		}

		opening, err := tx.GetOpeningBalance(ctx, walletID)
		if err != nil {
			return err
		}
		txns, err := tx.GetTransactions(ctx, walletID)
		if err != nil {
			return err
		}
		current := models.FoldBalance(opening, txns)

		updated, err := next(current)
		if err != nil {
			return err
		}

		if err := tx.AppendTransaction(ctx, walletID, entry); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, walletID, updated); err != nil {
			return err
		}

		l.metrics.RecordBalanceChange(walletID, current, updated)
		result = Result{Balance: updated, Transaction: *entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (l *ledger) activeWallet(ctx context.Context, walletID uint) (*models.Wallet, error) {
	w, err := l.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if !w.IsActive() {
		return nil, apperrors.ErrWalletLocked
	}
	return w, nil
}

func (l *ledger) validateAmount(amount decimal.Decimal) error {
	if err := validateFormat(amount); err != nil {
		return err
	}
	if l.config.MaxTransaction.IsPositive() && amount.GreaterThan(l.config.MaxTransaction) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount,
			"amount exceeds maximum of %s", l.config.MaxTransaction.StringFixed(AmountScale))
	}
	return nil
}

func validateFormat(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}
	if amount.Exponent() < -AmountScale && !amount.Equal(amount.Round(AmountScale)) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount may carry at most %d decimal places", AmountScale)
	}
	return nil
}

func (l *ledger) newEntry(txType string, amount decimal.Decimal, category, description string, opts []Option) *models.Transaction {
	entry := &models.Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Type:        txType,
		Category:    category,
		Status:      models.TransactionStatusCompleted,
		Description: description,
		CreatedAt:   l.now().UTC(),
	}
	for _, opt := range opts {
		opt(entry)
	}
	if entry.Category == "" {
		entry.Category = category
	}
	if entry.Description == "" {
		entry.Description = description
	}
	return entry
}
