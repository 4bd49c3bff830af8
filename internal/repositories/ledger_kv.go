package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "edupay/internal/errors"
	"edupay/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const kvLedgerPrefix = "ledger:"

// kvLedgerStore lays a ledger out as a handful of keys per wallet:
//
//	ledger:{wallet}:opening       decimal string
//	ledger:{wallet}:balance       decimal string
//	ledger:{wallet}:transactions  JSON array, most-recent-first
//	ledger:ref:{reference}        "{wallet}:{transaction id}"
type kvLedgerStore struct {
	kv   KVBackend
	seed decimal.Decimal

	// Set only on the copy handed to an Atomically callback.
	view   KVView
	writes *KVWrites
}

// NewKVLedgerStore returns a LedgerStore over kv. Ledgers that were never
// initialised report seed as both their opening balance and balance.
func NewKVLedgerStore(kv KVBackend, seed decimal.Decimal) LedgerStore {
	return &kvLedgerStore{kv: kv, seed: seed}
}

func openingKey(walletID uint) string { return fmt.Sprintf("%s%d:opening", kvLedgerPrefix, walletID) }
func balanceKey(walletID uint) string { return fmt.Sprintf("%s%d:balance", kvLedgerPrefix, walletID) }
func historyKey(walletID uint) string {
	return fmt.Sprintf("%s%d:transactions", kvLedgerPrefix, walletID)
}
func referenceKey(reference string) string { return kvLedgerPrefix + "ref:" + reference }

func walletKeys(walletID uint) []string {
	return []string{openingKey(walletID), balanceKey(walletID), historyKey(walletID)}
}

func (s *kvLedgerStore) get(ctx context.Context, key string) (string, bool, error) {
	if s.writes != nil {
		if v, ok := s.writes.Set[key]; ok {
			return v, true, nil
		}
		for _, k := range s.writes.Del {
			if k == key {
				return "", false, nil
			}
		}
		return s.view.Get(ctx, key)
	}
	return s.kv.Get(ctx, key)
}

// write runs fn against a transactional copy of s, reusing the current
// transaction when there is one.
func (s *kvLedgerStore) write(ctx context.Context, walletID uint, fn func(*kvLedgerStore) error) error {
	if s.writes != nil {
		return fn(s)
	}
	err := s.kv.Txn(ctx, walletKeys(walletID), func(view KVView) (KVWrites, error) {
		inner := &kvLedgerStore{kv: s.kv, seed: s.seed, view: view, writes: &KVWrites{}}
		if err := fn(inner); err != nil {
			return KVWrites{}, err
		}
		return *inner.writes, nil
	})
	return storageErr(err)
}

func (s *kvLedgerStore) getDecimal(ctx context.Context, key string) (decimal.Decimal, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil {
		return decimal.Zero, storageErr(err)
	}
	if !ok {
		return s.seed, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, storageErr(fmt.Errorf("corrupt value at %s: %w", key, err))
	}
	return d, nil
}

func (s *kvLedgerStore) InitLedger(ctx context.Context, walletID uint, opening decimal.Decimal) error {
	return s.write(ctx, walletID, func(tx *kvLedgerStore) error {
		_, exists, err := tx.get(ctx, openingKey(walletID))
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		tx.writes.put(openingKey(walletID), opening.String())
		tx.writes.put(balanceKey(walletID), opening.String())
		return nil
	})
}

func (s *kvLedgerStore) GetBalance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	return s.getDecimal(ctx, balanceKey(walletID))
}

func (s *kvLedgerStore) GetOpeningBalance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	return s.getDecimal(ctx, openingKey(walletID))
}

func (s *kvLedgerStore) GetTransactions(ctx context.Context, walletID uint) ([]models.Transaction, error) {
	raw, ok, err := s.get(ctx, historyKey(walletID))
	if err != nil {
		return nil, storageErr(err)
	}
	txns := make([]models.Transaction, 0)
	if !ok || raw == "" {
		return txns, nil
	}
	if err := json.Unmarshal([]byte(raw), &txns); err != nil {
		return nil, storageErr(fmt.Errorf("corrupt history for wallet %d: %w", walletID, err))
	}
	return txns, nil
}

func (s *kvLedgerStore) putTransactions(walletID uint, txns []models.Transaction) error {
	data, err := json.Marshal(txns)
	if err != nil {
		return storageErr(err)
	}
	s.writes.put(historyKey(walletID), string(data))
	return nil
}

func (s *kvLedgerStore) SetBalance(ctx context.Context, walletID uint, balance decimal.Decimal) error {
	return s.write(ctx, walletID, func(tx *kvLedgerStore) error {
		tx.writes.put(balanceKey(walletID), balance.String())
		return nil
	})
}

func (s *kvLedgerStore) AppendTransaction(ctx context.Context, walletID uint, t *models.Transaction) error {
	return s.write(ctx, walletID, func(tx *kvLedgerStore) error {
		txns, err := tx.GetTransactions(ctx, walletID)
		if err != nil {
			return err
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		t.WalletID = walletID
		t.Seq = int64(len(txns)) + 1

		txns = append([]models.Transaction{*t}, txns...)
		if err := tx.putTransactions(walletID, txns); err != nil {
			return err
		}
		if t.Reference != "" {
			tx.writes.put(referenceKey(t.Reference), fmt.Sprintf("%d:%s", walletID, t.ID))
		}
		return nil
	})
}

func (s *kvLedgerStore) RemoveTransaction(ctx context.Context, walletID uint, txID string) error {
	return s.write(ctx, walletID, func(tx *kvLedgerStore) error {
		txns, err := tx.GetTransactions(ctx, walletID)
		if err != nil {
			return err
		}
		kept := make([]models.Transaction, 0, len(txns))
		var removed *models.Transaction
		for i := range txns {
			if txns[i].ID == txID && removed == nil {
				removed = &txns[i]
				continue
			}
			kept = append(kept, txns[i])
		}
		if removed == nil {
			return apperrors.ErrTransactionNotFound
		}
		if err := tx.putTransactions(walletID, kept); err != nil {
			return err
		}
		if removed.Reference != "" {
			tx.writes.del(referenceKey(removed.Reference))
		}
		return nil
	})
}

func (s *kvLedgerStore) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	raw, ok, err := s.get(ctx, referenceKey(reference))
	if err != nil {
		return nil, storageErr(err)
	}
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	walletPart, txID, found := strings.Cut(raw, ":")
	if !found {
		return nil, storageErr(fmt.Errorf("corrupt reference index %q", raw))
	}
	walletID, err := strconv.ParseUint(walletPart, 10, 64)
	if err != nil {
		return nil, storageErr(fmt.Errorf("corrupt reference index %q: %w", raw, err))
	}

	txns, err := s.GetTransactions(ctx, uint(walletID))
	if err != nil {
		return nil, err
	}
	for i := range txns {
		if txns[i].ID == txID {
			return &txns[i], nil
		}
	}
	return nil, apperrors.ErrTransactionNotFound
}

func (s *kvLedgerStore) ListPending(ctx context.Context, createdBefore time.Time) ([]models.Transaction, error) {
	keys, err := s.kv.Keys(ctx, kvLedgerPrefix+"*:transactions")
	if err != nil {
		return nil, storageErr(err)
	}

	pending := make([]models.Transaction, 0)
	for _, key := range keys {
		idPart := strings.TrimSuffix(strings.TrimPrefix(key, kvLedgerPrefix), ":transactions")
		walletID, err := strconv.ParseUint(idPart, 10, 64)
		if err != nil {
			continue
		}
		txns, err := s.GetTransactions(ctx, uint(walletID))
		if err != nil {
			return nil, err
		}
		for _, t := range txns {
			if t.Status == models.TransactionStatusPending && t.CreatedAt.Before(createdBefore) {
				pending = append(pending, t)
			}
		}
	}
	return pending, nil
}

func (s *kvLedgerStore) Atomically(ctx context.Context, walletID uint, fn func(LedgerStore) error) error {
	return s.write(ctx, walletID, func(tx *kvLedgerStore) error {
		return fn(tx)
	})
}
