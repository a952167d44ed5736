// Package iocache is for durable key-value I/O across database backends.
package iocache

import (
	"sync"

	"github.com/huangsam/pantry/internal/contract"
)

// StoreManagerImpl owns the process-wide KVStore.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.KVStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetStore returns the KVStore.
func (mgr *StoreManagerImpl) GetStore() contract.KVStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}
