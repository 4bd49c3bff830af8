package repositories

import (
	"context"
	"path"
	"sort"
	"sync"
)

// KVView is the read side of a key-value transaction.
type KVView interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// KVWrites are applied atomically when a KVBackend transaction commits.
type KVWrites struct {
	Set map[string]string
	Del []string
}

func (w *KVWrites) put(key, value string) {
	if w.Set == nil {
		w.Set = make(map[string]string)
	}
	w.Set[key] = value
	for i, k := range w.Del {
		if k == key {
			w.Del = append(w.Del[:i], w.Del[i+1:]...)
			break
		}
	}
}

func (w *KVWrites) del(key string) {
	delete(w.Set, key)
	w.Del = append(w.Del, key)
}

func (w *KVWrites) empty() bool {
	return len(w.Set) == 0 && len(w.Del) == 0
}

// KVBackend is the minimal key-value surface the KV ledger store needs.
type KVBackend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// Txn reads through view and commits the returned writes atomically.
	// If any of watch changed before the commit, fn is run again.
	Txn(ctx context.Context, watch []string, fn func(view KVView) (KVWrites, error)) error
	// Keys lists keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// MemoryKV is an in-process KVBackend for development and tests.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

type memoryView map[string]string

func (v memoryView) Get(_ context.Context, key string) (string, bool, error) {
	val, ok := v[key]
	return val, ok, nil
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok, nil
}

// Txn holds the store mutex for the whole of fn, so watch is not needed.
func (m *MemoryKV) Txn(_ context.Context, _ []string, fn func(view KVView) (KVWrites, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	writes, err := fn(memoryView(m.data))
	if err != nil {
		return err
	}
	for k, v := range writes.Set {
		m.data[k] = v
	}
	for _, k := range writes.Del {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0)
	for k := range m.data {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
