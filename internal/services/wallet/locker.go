package wallet

import (
	"context"
	"sync"
)

// walletLocks serializes mutations per wallet id. Entries are reference
// counted and dropped once nobody holds or waits on them.
type walletLocks struct {
	mu    sync.Mutex
	locks map[uint]*walletLock
}

type walletLock struct {
	sem  chan struct{}
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[uint]*walletLock)}
}

// Lock blocks until walletID is free or ctx is done. The returned func
// releases the lock.
func (w *walletLocks) Lock(ctx context.Context, walletID uint) (func(), error) {
	w.mu.Lock()
	l, ok := w.locks[walletID]
	if !ok {
		l = &walletLock{sem: make(chan struct{}, 1)}
		w.locks[walletID] = l
	}
	l.refs++
	w.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		w.release(walletID, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			w.release(walletID, l)
		})
	}, nil
}

func (w *walletLocks) release(walletID uint, l *walletLock) {
	w.mu.Lock()
	defer w.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(w.locks, walletID)
	}
}

func (w *walletLocks) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.locks)
}
