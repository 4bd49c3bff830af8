package wallet

import (
	"context"

	"edupay/internal/repositories/cache"
)

func snapshotKey(userID uint) string {
	return cache.GenerateKey(SnapshotCacheEntity, SnapshotCacheKind, userID)
}

func (f *Facade) cachedSnapshot(ctx context.Context, userID uint) (*Snapshot, bool) {
	if f.cache == nil {
		return nil, false
	}
	var snap Snapshot
	found, err := f.cache.Get(ctx, snapshotKey(userID), &snap)
	if err != nil {
		f.logger.Warn("wallet cache read failed", "user_id", userID, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &snap, true
}

func (f *Facade) storeSnapshot(ctx context.Context, userID uint, snap *Snapshot) {
	if f.cache == nil {
		return
	}
	if err := f.cache.SetWithTTL(ctx, snapshotKey(userID), snap, f.config.CacheTTL); err != nil {
		f.logger.Warn("wallet cache write failed", "user_id", userID, "error", err)
	}
}

// InvalidateUser drops the cached snapshot of userID's wallet.
func (f *Facade) InvalidateUser(ctx context.Context, userID uint) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Delete(ctx, snapshotKey(userID)); err != nil {
		f.logger.Warn("wallet cache invalidation failed", "user_id", userID, "error", err)
	}
}

// WalletChanged invalidates the snapshot of the wallet's owner. The payment
// bridge calls it after settling a webhook-driven funding.
func (f *Facade) WalletChanged(ctx context.Context, walletID uint) {
	w, err := f.wallets.GetByID(ctx, walletID)
	if err != nil {
		f.logger.Warn("wallet cache invalidation skipped", "wallet_id", walletID, "error", err)
		return
	}
	f.InvalidateUser(ctx, w.UserID)
}
