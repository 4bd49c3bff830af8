package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"

	"gorm.io/gorm"
)

// WalletRepository owns the wallets table: which wallet belongs to whom and
// whether it accepts mutations. Balances live in the LedgerStore.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	UpdateStatus(ctx context.Context, walletID uint, status, reason string) error
	ListIDs(ctx context.Context) ([]uint, error)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByID(ctx context.Context, id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateStatus(ctx context.Context, walletID uint, status, reason string) error {
	result := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{"status": status, "status_reason": reason})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrWalletNotFound
	}
	return nil
}

func (r *walletRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Wallet{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return ids, nil
}
