package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet statuses
const (
	WalletStatusActive = "active"
	WalletStatusLocked = "locked"
)

type Wallet struct {
	ID     uint `gorm:"primarykey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	// OpeningBalance is the seed the ledger folds completed transactions onto.
	OpeningBalance decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"opening_balance"`
	// Balance is the snapshot written alongside every transaction append.
	Balance      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance"`
	Currency     string          `gorm:"default:'NGN'" json:"currency"`
	Status       string          `gorm:"default:'active'" json:"status"`
	StatusReason string          `gorm:"default:''" json:"status_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// A new wallet's snapshot always starts at its seed.
	w.Balance = w.OpeningBalance
	if w.Status == "" {
		w.Status = WalletStatusActive
	}
	return nil
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}
