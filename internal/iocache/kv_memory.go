package iocache

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

type memoryEntry struct {
	value   []byte
	updated time.Time
}

// MemoryStore is a process-local KVStore. Tests and ephemeral sessions use it.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool
}

var _ contract.KVStore = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get returns a copy of the value stored at key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, contract.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores a copy of value at key.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return m.SetBatch(ctx, map[string][]byte{key: value})
}

// SetBatch applies every entry under one lock. Nil values delete.
func (m *MemoryStore) SetBatch(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, v := range entries {
		if v == nil {
			delete(m.entries, k)
			continue
		}
		m.entries[k] = memoryEntry{value: slices.Clone(v), updated: now}
	}
	return nil
}

// Delete removes keys.
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Keys returns sorted keys with the given prefix.
func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range maps.Keys(m.entries) {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// GetStatus summarizes the in-memory contents.
func (m *MemoryStore) GetStatus() (schema.StoreStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := schema.StoreStatus{
		Backend:   string(schema.MemoryBackend),
		Connected: !m.closed,
		TotalKeys: len(m.entries),
	}
	for k, e := range m.entries {
		status.TableSizeBytes += int64(len(k) + len(e.value))
		if e.updated.After(status.LastWriteTime) {
			status.LastWriteTime = e.updated
		}
		if status.OldestWriteTime.IsZero() || e.updated.Before(status.OldestWriteTime) {
			status.OldestWriteTime = e.updated
		}
	}
	return status, nil
}

// Close marks the store as disconnected. Data stays readable.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
