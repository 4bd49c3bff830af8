package wallet

import "time"

// Default configuration values
const (
	DefaultCurrency = "NGN"
	DefaultCacheTTL = 5 * time.Minute
	// AmountScale is the number of decimal places an amount may carry (kobo).
	AmountScale = 2
)

// Default transaction labels
const (
	DefaultCreditDescription = "Wallet funding"
	DefaultDebitCategory     = "purchase"
	DirectFundingDescription = "Direct wallet funding"
)

// Cache keys
const (
	SnapshotCacheEntity = "wallet"
	SnapshotCacheKind   = "snapshot"
)
