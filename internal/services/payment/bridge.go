package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"
	"edupay/internal/services/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultPendingTTL = 24 * time.Hour

	referencePrefix = "EDU-"
)

// Metadata keys written on pending records.
const (
	metaGateway    = "gateway"
	metaGatewayRef = "gateway_reference"
	metaEmail      = "email"
)

// Config holds bridge settings
type Config struct {
	Currency string
	Timeout  time.Duration
	// WebhookSecret signs gateway callbacks (the Paystack secret key).
	WebhookSecret string
}

// Bridge drives a funding attempt from checkout to ledger credit.
type Bridge struct {
	ledger    wallet.Ledger
	gateway   Gateway
	config    Config
	logger    *slog.Logger
	onSettled func(ctx context.Context, walletID uint)
	now       func() time.Time
	newRef    func() string
}

func NewBridge(ledger wallet.Ledger, gateway Gateway, config Config, logger *slog.Logger) *Bridge {
	if ledger == nil {
		panic("ledger is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Currency == "" {
		config.Currency = wallet.DefaultCurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		ledger:  ledger,
		gateway: gateway,
		config:  config,
		logger:  logger.With("component", "payment_bridge", "gateway", gateway.Name()),
		now:     time.Now,
		newRef: func() string {
			return referencePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		},
	}
}

// OnSettled registers a hook run after a wallet is credited or a pending
// record discarded.
func (b *Bridge) OnSettled(fn func(ctx context.Context, walletID uint)) {
	b.onSettled = fn
}

func (b *Bridge) Gateway() string {
	return b.gateway.Name()
}

// Initiate records a pending credit and opens a checkout with the gateway.
func (b *Bridge) Initiate(ctx context.Context, walletID uint, amount decimal.Decimal, email string) (*wallet.Checkout, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}

	reference := b.newRef()
	meta := map[string]interface{}{
		metaGateway: b.gateway.Name(),
		metaEmail:   email,
	}
	pending, err := b.ledger.RecordPending(ctx, walletID, amount, reference, meta)
	if err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	resp, err := b.gateway.InitializePayment(gctx, InitRequest{
		Amount:    amount,
		Currency:  b.config.Currency,
		Email:     email,
		Reference: reference,
		Metadata:  map[string]interface{}{"wallet_id": walletID},
	})
	if err != nil {
		if discardErr := b.ledger.DiscardPending(ctx, walletID, pending.ID); discardErr != nil {
			b.logger.Error("failed to discard pending funding", "reference", reference, "error", discardErr)
		}
		b.logger.Warn("payment initialization failed", "wallet_id", walletID, "reference", reference, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}

	if resp.GatewayReference != "" {
		if err := b.rememberGatewayRef(ctx, pending, resp.GatewayReference); err != nil {
			b.logger.Error("failed to record gateway reference",
				"reference", reference, "gateway_reference", resp.GatewayReference, "error", err)
			return nil, err
		}
	}

	b.logger.Info("payment initialized", "wallet_id", walletID, "reference", reference, "amount", amount.String())
	return &wallet.Checkout{
		Reference:        reference,
		AuthorizationURL: resp.AuthorizationURL,
		Gateway:          b.gateway.Name(),
		Amount:           amount,
	}, nil
}

// rememberGatewayRef stores the provider's own id for the attempt on the
// pending record.
func (b *Bridge) rememberGatewayRef(ctx context.Context, pending *models.Transaction, gatewayRef string) error {
	updated, err := b.ledger.AnnotatePending(ctx, pending, map[string]interface{}{metaGatewayRef: gatewayRef})
	if err != nil {
		return err
	}
	*pending = *updated
	return nil
}

// Verify asks the gateway for its verdict on reference and settles the
// pending record accordingly.
func (b *Bridge) Verify(ctx context.Context, reference string) (*wallet.Verification, error) {
	pending, err := b.ledger.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if pending.Status != models.TransactionStatusPending {
		// Already settled.
		return nil, apperrors.ErrTransactionNotFound
	}

	gatewayRef, _ := pending.Metadata[metaGatewayRef].(string)

	gctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	resp, err := b.gateway.VerifyPayment(gctx, reference, gatewayRef)
	if err != nil {
		b.logger.Warn("payment verification failed", "reference", reference, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrGateway, err)
	}

	switch resp.Status {
	case StatusSuccess:
		return b.settle(ctx, pending, resp)
	case StatusPending:
		return nil, apperrors.WithMessage(apperrors.ErrGateway, "payment not completed yet")
	}

	if err := b.ledger.DiscardPending(ctx, pending.WalletID, pending.ID); err != nil && !errors.Is(err, apperrors.ErrTransactionNotFound) {
		return nil, err
	}
	b.notify(ctx, pending.WalletID)
	b.logger.Info("payment not successful", "reference", reference, "status", resp.Status)
	return nil, apperrors.WithMessage(apperrors.ErrGateway, "payment not successful")
}

func (b *Bridge) settle(ctx context.Context, pending *models.Transaction, resp *VerifyResponse) (*wallet.Verification, error) {
	amount := resp.Amount
	if !amount.IsPositive() {
		amount = pending.Amount
	}
	if !amount.Equal(pending.Amount) {
		b.logger.Warn("gateway amount differs from requested amount",
			"reference", pending.Reference, "requested", pending.Amount.String(), "confirmed", amount.String())
	}

	meta := map[string]interface{}{}
	for k, v := range pending.Metadata {
		meta[k] = v
	}
	meta["verified_at"] = b.now().UTC().Format(time.RFC3339)
	if resp.GatewayReference != "" {
		meta[metaGatewayRef] = resp.GatewayReference
	}

	res, err := b.ledger.SettlePending(ctx, pending, amount, wallet.WithMetadata(meta))
	if err != nil {
		return nil, err
	}
	b.notify(ctx, pending.WalletID)

	b.logger.Info("payment settled",
		"wallet_id", pending.WalletID, "reference", pending.Reference, "amount", amount.String())
	return &wallet.Verification{
		Reference:   pending.Reference,
		Status:      StatusSuccess,
		Balance:     res.Balance,
		Transaction: &res.Transaction,
	}, nil
}

// ExpirePending discards pending records older than olderThan and returns
// how many were removed.
func (b *Bridge) ExpirePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := b.now().Add(-olderThan)
	pending, err := b.ledger.ListPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range pending {
		tx := pending[i]
		err := b.ledger.DiscardPending(ctx, tx.WalletID, tx.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrTransactionNotFound) {
				continue
			}
			return expired, err
		}
		expired++
		b.notify(ctx, tx.WalletID)
		b.logger.Info("pending funding expired", "wallet_id", tx.WalletID, "reference", tx.Reference)
	}
	return expired, nil
}

// RunSweeper expires stale pending records every interval until ctx is done.
func (b *Bridge) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		return
	}
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.ExpirePending(ctx, ttl)
			if err != nil {
				b.logger.Error("pending sweep failed", "error", err)
				continue
			}
			if n > 0 {
				b.logger.Info("pending sweep finished", "expired", n)
			}
		}
	}
}

func (b *Bridge) notify(ctx context.Context, walletID uint) {
	if b.onSettled != nil {
		b.onSettled(ctx, walletID)
	}
}
