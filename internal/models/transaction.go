package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Common categories
const (
	CategoryFunding       = "funding"
	CategoryEducation     = "education"
	CategoryCommunication = "communication"
)

// Transaction is one entry of a wallet ledger.
type Transaction struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	WalletID    uint            `gorm:"index:idx_wallet_seq;not null" json:"wallet_id"`
	Seq         int64           `gorm:"index:idx_wallet_seq;not null" json:"-"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Type        string          `gorm:"size:16;not null" json:"type"`
	Category    string          `gorm:"size:64" json:"category"`
	Status      string          `gorm:"size:16;not null;default:'pending'" json:"status"`
	Description string          `json:"description"`
	Reference   string          `gorm:"index;size:128" json:"reference,omitempty"`
	Metadata    JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}

// SignedAmount is +Amount for credits and -Amount for debits.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// FoldBalance applies every completed transaction to opening.
func FoldBalance(opening decimal.Decimal, txns []Transaction) decimal.Decimal {
	balance := opening
	for i := range txns {
		if txns[i].IsCompleted() {
			balance = balance.Add(txns[i].SignedAmount())
		}
	}
	return balance
}
