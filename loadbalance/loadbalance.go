// Package loadbalance implements LoadBalance[C], a pool of shared client
// handles for one service, selected per-call by one of four strategies.
//
// Membership is deduplicated by address: a Put for an address already
// present removes the old entry before appending the new one, so the
// newest entry for any address always wins. Selection never mutates
// membership; only Put, Remove, and Clear do.
package loadbalance

import (
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
)

// Strategy names a selection algorithm for DoBalance.
type Strategy int

const (
	// Round picks entries in round-robin order.
	Round Strategy = iota
	// Random uniformly samples an index.
	Random
	// Hash deterministically selects an entry from the from key.
	Hash
	// MinConnect picks the entry with the fewest in-flight callers.
	MinConnect
)

// Client is the capability LoadBalance requires of a pooled entry: an
// address used for deduplication and for Hash selection stability.
type Client interface {
	Addr() string
}

// entry wraps a pooled client with the atomic in-flight counter every
// DoBalance selection, regardless of strategy, increments and every
// matching Handle.Release decrements. Go has no shared-pointer reference
// count, so this is the explicit substitute: it is both MinConnect's load
// signal and Remove's "is anyone still using this" check.
//
// onIdle, if set by Remove, fires exactly once — either immediately, if no
// Handle was outstanding at removal time, or from whichever Release call
// later drives inflight to zero. It is guarded by atomic.Pointer.Swap so
// Remove and a racing Release can never both fire it.
type entry[C Client] struct {
	client   C
	inflight atomic.Int64
	onIdle   atomic.Pointer[func()]
}

// Handle is a selected pool entry. Every Handle must have Release called
// once the call it was selected for completes, so the in-flight count
// backing MinConnect and Remove's shutdown-safety check reflects reality.
type Handle[C Client] struct {
	Client C

	e *entry[C]
}

// Release decrements the in-flight counter backing this handle. If this
// was the last outstanding reference to an entry already removed from the
// pool, it fires that entry's pending onIdle callback.
func (h Handle[C]) Release() {
	if h.e == nil {
		return
	}
	if h.e.inflight.Add(-1) == 0 {
		if cb := h.e.onIdle.Swap(nil); cb != nil {
			(*cb)()
		}
	}
}

// LoadBalance holds an ordered, concurrently-mutable list of shared client
// handles for one service, plus a round-robin cursor.
type LoadBalance[C Client] struct {
	mu      sync.RWMutex
	entries []*entry[C]
	cursor  atomic.Uint64
}

// New returns an empty LoadBalance.
func New[C Client]() *LoadBalance[C] {
	return &LoadBalance[C]{}
}

// Put inserts c. If an entry with the same address already exists, it is
// removed first and returned; the new entry is always appended last, so
// the newest Put for any address wins.
func (b *LoadBalance[C]) Put(c C) (old C, had bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.entries {
		if e.client.Addr() == c.Addr() {
			old = e.client
			had = true
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	b.entries = append(b.entries, &entry[C]{client: c})
	return old, had
}

// Remove unlists addr so no future DoBalance call can select it, and
// returns the removed client. onIdle, if non-nil, is invoked exactly once
// with the removed client once no outstanding Handle still references it —
// synchronously before Remove returns if nothing was outstanding at
// removal time, or later from whichever Handle.Release call drives the
// entry's in-flight count to zero. A caller that closes resources on onIdle
// therefore never closes a client a concurrent call is still using.
func (b *LoadBalance[C]) Remove(addr string, onIdle func(C)) (removed C, had bool) {
	b.mu.Lock()
	var e *entry[C]
	for i, en := range b.entries {
		if en.client.Addr() == addr {
			e = en
			removed = en.client
			had = true
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	if !had || onIdle == nil {
		return removed, had
	}

	fire := func() { onIdle(e.client) }
	e.onIdle.Store(&fire)
	if e.inflight.Load() == 0 {
		if cb := e.onIdle.Swap(nil); cb != nil {
			(*cb)()
		}
	}
	return removed, had
}

// Contains reports whether addr is present.
func (b *LoadBalance[C]) Contains(addr string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, e := range b.entries {
		if e.client.Addr() == addr {
			return true
		}
	}
	return false
}

// Clear drops all entries. Outstanding Handles selected before Clear keep
// working; their Release calls simply decrement counters nothing else
// observes.
func (b *LoadBalance[C]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

// Len returns the current number of entries.
func (b *LoadBalance[C]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Addrs returns the addresses of all current entries, in order.
func (b *LoadBalance[C]) Addrs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	addrs := make([]string, len(b.entries))
	for i, e := range b.entries {
		addrs[i] = e.client.Addr()
	}
	return addrs
}

// DoBalance selects one entry per strategy and increments its in-flight
// count; the caller must call Handle.Release once it is done with the
// selection. An empty pool returns the zero value and ok=false.
func (b *LoadBalance[C]) DoBalance(strategy Strategy, from string) (handle Handle[C], ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.entries)
	if n == 0 {
		return Handle[C]{}, false
	}

	var e *entry[C]

	switch strategy {
	case Round:
		idx := b.cursor.Add(1) - 1
		e = b.entries[int(idx%uint64(n))]

	case Random:
		e = b.entries[rand.Intn(n)]

	case Hash:
		key := from
		if key == "" {
			key = strconv.FormatInt(int64(rand.Int31()), 10)
		}
		var hash int64
		for i := 0; i < len(key); i++ {
			hash += int64(key[i]) * int64(i+1)
		}
		idx := ((hash % int64(n)) + int64(n)) % int64(n)
		e = b.entries[idx]

	case MinConnect:
		best := b.entries[0]
		for _, cand := range b.entries[1:] {
			if cand.inflight.Load() < best.inflight.Load() {
				best = cand
			}
		}
		e = best

	default:
		e = b.entries[0]
	}

	e.inflight.Add(1)
	return Handle[C]{Client: e.client, e: e}, true
}
