// Package handle implements a generation-checked handle table for objects
// referenced by foreign callers across the C boundary.
//
// A raw Go pointer must never be handed to C, and a bare slot index would
// make a stale handle alias whatever object reuses the slot. Each slot
// therefore carries a generation counter that is bumped on retirement, and
// a handle encodes both slot index and generation. Looking up a retired
// handle fails instead of reaching freed state.
package handle

import (
	"sync"
)

// Handle is an opaque reference safe to pass through C as an integer.
// The zero value is Nil and is never issued for a live object.
type Handle uint64

// Nil is the sentinel "no handle" value.
const Nil Handle = 0

func pack(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

type slot struct {
	gen  uint32
	live bool
	val  any
}

// Table stores objects on behalf of foreign callers and issues handles for
// them. All methods are safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32 // retired slot indexes available for reuse
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Put stores v and returns a fresh handle for it. The handle stays valid
// until Delete is called with it.
func (t *Table) Put(v any) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.live = true
		s.val = v

		return pack(idx, s.gen)
	}

	// Generation starts at 1 so a fresh slot never packs to the Nil handle.
	t.slots = append(t.slots, slot{gen: 1, live: true, val: v})

	return pack(uint32(len(t.slots)-1), 1)
}

// Get returns the object h refers to. It reports false for Nil, for handles
// this table never issued, and for handles already passed to Delete.
func (t *Table) Get(h Handle) (any, bool) {
	if h == Nil {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := h.index()
	if int(idx) >= len(t.slots) {
		return nil, false
	}

	s := &t.slots[idx]
	if !s.live || s.gen != h.gen() {
		return nil, false
	}

	return s.val, true
}

// Delete retires h and returns the object it referred to so the caller can
// release it. Deleting Nil, an unknown handle, or an already-deleted handle
// is a no-op reporting false; the slot generation is bumped so the retired
// handle can never resolve again, even after the slot is reused.
func (t *Table) Delete(h Handle) (any, bool) {
	if h == Nil {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := h.index()
	if int(idx) >= len(t.slots) {
		return nil, false
	}

	s := &t.slots[idx]
	if !s.live || s.gen != h.gen() {
		return nil, false
	}

	v := s.val
	s.val = nil
	s.live = false
	s.gen++
	t.free = append(t.free, idx)

	return v, true
}

// Len returns the number of live handles. Useful for leak checks in tests.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for i := range t.slots {
		if t.slots[i].live {
			n++
		}
	}

	return n
}
