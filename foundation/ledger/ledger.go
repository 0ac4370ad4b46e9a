package ledger

import (
	"sync"
)

// Handle owns the process wide store instance and scopes all access to it.
// There is exactly one writer at a time; the writer excludes all readers;
// readers run concurrently with each other. No caller may retain the store,
// or any value read from it, past the end of its scope function.
type Handle struct {
	mu    sync.RWMutex
	store *Store
}

// NewHandle constructs a handle over the specified store. The handle takes
// ownership: the caller must not touch the store directly afterwards.
func NewHandle(store *Store) *Handle {
	return &Handle{
		store: store,
	}
}

// WithWrite grants fn exclusive mutable access to the store for the
// duration of the call. Effects become visible to every subsequent scope.
func (h *Handle) WithWrite(fn func(store *Store)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn(h.store)
}

// WithRead grants fn shared read-only access to the store for the duration
// of the call.
func (h *Handle) WithRead(fn func(store Reader)) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	fn(h.store)
}
