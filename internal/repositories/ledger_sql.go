package repositories

import (
	"context"
	"errors"
	"time"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sqlLedgerStore keeps the balance snapshot on the wallets row and the
// history in the transactions table.
type sqlLedgerStore struct {
	db *gorm.DB
}

func NewSQLLedgerStore(db *gorm.DB) LedgerStore {
	return &sqlLedgerStore{db: db}
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrStorage, err)
}

func (s *sqlLedgerStore) wallet(ctx context.Context, walletID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := s.db.WithContext(ctx).First(&w, walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, storageErr(err)
	}
	return &w, nil
}

// InitLedger only checks the row exists: the wallets row created by the
// WalletRepository already carries the opening balance.
func (s *sqlLedgerStore) InitLedger(ctx context.Context, walletID uint, _ decimal.Decimal) error {
	_, err := s.wallet(ctx, walletID)
	return err
}

func (s *sqlLedgerStore) GetBalance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	w, err := s.wallet(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

func (s *sqlLedgerStore) GetOpeningBalance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	w, err := s.wallet(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.OpeningBalance, nil
}

func (s *sqlLedgerStore) GetTransactions(ctx context.Context, walletID uint) ([]models.Transaction, error) {
	txns := make([]models.Transaction, 0)
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("seq DESC").
		Find(&txns).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return txns, nil
}

func (s *sqlLedgerStore) SetBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error {
	result := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{"balance": balance, "updated_at": time.Now()})
	if result.Error != nil {
		return storageErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrWalletNotFound
	}
	return nil
}

func (s *sqlLedgerStore) AppendTransaction(ctx context.Context, walletID uint, tx *models.Transaction) error {
	var maxSeq int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("wallet_id = ?", walletID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return storageErr(err)
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.WalletID = walletID
	tx.Seq = maxSeq + 1

	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return storageErr(err)
	}
	return nil
}

func (s *sqlLedgerStore) RemoveTransaction(ctx context.Context, walletID uint, txID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND wallet_id = ?", txID, walletID).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return storageErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func (s *sqlLedgerStore) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("seq DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, storageErr(err)
	}
	return &tx, nil
}

func (s *sqlLedgerStore) ListPending(ctx context.Context, createdBefore time.Time) ([]models.Transaction, error) {
	txns := make([]models.Transaction, 0)
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.TransactionStatusPending, createdBefore.UTC()).
		Order("created_at").
		Find(&txns).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return txns, nil
}

// Atomically locks the wallets row FOR UPDATE for the duration of fn.
func (s *sqlLedgerStore) Atomically(ctx context.Context, walletID uint, fn func(LedgerStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w models.Wallet
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, walletID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrWalletNotFound
			}
			return storageErr(err)
		}
		return fn(&sqlLedgerStore{db: tx})
	})
}
