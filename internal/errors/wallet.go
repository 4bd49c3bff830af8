package errors

var (
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrWalletLocked = &DomainError{
		Code:    "WALLET_LOCKED",
		Message: "wallet is locked",
	}
	ErrTransactionNotFound = &DomainError{
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
	ErrInvalidTransactionType = &DomainError{
		Code:    "INVALID_TRANSACTION_TYPE",
		Message: "transaction type must be credit or debit",
	}
	ErrStorage = &DomainError{
		Code:    "STORAGE_ERROR",
		Message: "ledger storage failure",
	}
)
