package bindkit

import "sync"

// Handle is a single-assignment cell standing in for an instance that may
// still be under construction. Deferred dependencies receive a *Handle
// instead of the instance itself; the cell is bound exactly once, when the
// construction that issued it finishes.
//
// A Handle issued to break a cycle is unresolved while its target is being
// built, so Get must not be called from inside the receiving build function.
type Handle struct {
	mu       sync.Mutex
	key      Key
	resolved bool
	value    any
}

// Direct returns a handle already bound to v.
func Direct(v any) *Handle {
	return &Handle{resolved: true, value: v}
}

// Get returns the bound instance, or UnresolvedHandleError if construction
// of the target has not finished.
func (h *Handle) Get() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.resolved {
		return nil, &UnresolvedHandleError{Key: h.key}
	}
	return h.value, nil
}

// MustGet returns the bound instance and panics if it is not yet bound.
func (h *Handle) MustGet() any {
	v, err := h.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Resolved reports whether the handle has been bound.
func (h *Handle) Resolved() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resolved
}

// bind assigns the cell. Binding twice is a logic error.
func (h *Handle) bind(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved {
		panic("bindkit: handle for " + h.key.String() + " bound twice")
	}
	h.resolved = true
	h.value = v
}
