/*
Package wallet implements the wallet ledger and the facade the HTTP layer
talks to.

The Ledger owns every balance mutation:

	ledger := wallet.NewLedger(walletRepo, store, wallet.Config{}, nil, logger)

	// Fund a wallet
	res, err := ledger.Credit(ctx, walletID, decimal.NewFromInt(5000))

	// Spend from it
	res, err = ledger.Debit(ctx, walletID, decimal.NewFromInt(3400), "WAEC Result Checker",
		wallet.WithCategory(models.CategoryEducation))

Mutations on one wallet are serialized in process and run inside the
store's atomic section, so balance and history always move together. The
balance the ledger reports is the fold of completed transactions over the
wallet's opening balance; Audit compares that fold with the stored snapshot.

The Facade resolves a user's wallet (opening one on first use), serves
cached snapshots of balance and history, and refetches after every
mutation. Gateway-backed funding is delegated to a FundingBridge.

Errors are the domain errors from edupay/internal/errors:
ErrInvalidAmount, ErrInsufficientBalance, ErrWalletLocked,
ErrWalletNotFound, ErrInvalidTransactionType and ErrStorage.
*/
package wallet
