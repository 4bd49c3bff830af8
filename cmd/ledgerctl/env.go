package main

import (
	"errors"
	"log/slog"

	"edupay/internal/config"
	"edupay/internal/repositories"
	"edupay/internal/repositories/cache"
	"edupay/internal/services/payment"
	"edupay/internal/services/wallet"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ledgerEnv is what every subcommand works against.
type ledgerEnv struct {
	ledger  wallet.Ledger
	wallets repositories.WalletRepository
	bridge  *payment.Bridge
	close   func() error
}

// openEnv is swapped out in tests.
var openEnv = openConfiguredEnv

func openConfiguredEnv(cfg config.Config) (*ledgerEnv, error) {
	db, err := repositories.OpenPostgres(cfg.Database)
	if err != nil {
		return nil, err
	}

	var client *redis.Client
	if cfg.Wallet.Store == repositories.LedgerStoreRedis {
		client = cache.NewRedisClient(cfg.Redis)
	}

	env, err := newLedgerEnv(cfg, db, client)
	if err != nil {
		_ = repositories.Close(db)
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}
	env.close = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, repositories.Close(db))
		return errors.Join(errs...)
	}
	return env, nil
}

func newLedgerEnv(cfg config.Config, db *gorm.DB, client *redis.Client) (*ledgerEnv, error) {
	store, err := repositories.NewLedgerStore(cfg.Wallet.Store, db, client, cfg.Wallet.SeedBalance)
	if err != nil {
		return nil, err
	}
	gateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		return nil, err
	}

	log := slog.Default()
	wallets := repositories.NewWalletRepository(db)
	ledger := wallet.NewLedger(wallets, store, wallet.Config{
		Currency:       cfg.Wallet.Currency,
		SeedBalance:    cfg.Wallet.SeedBalance,
		MaxTransaction: cfg.Wallet.MaxTransaction,
	}, nil, log)

	return &ledgerEnv{
		ledger:  ledger,
		wallets: wallets,
		bridge:  payment.NewBridge(ledger, gateway, payment.Config{Currency: cfg.Wallet.Currency}, log),
		close:   func() error { return nil },
	}, nil
}
