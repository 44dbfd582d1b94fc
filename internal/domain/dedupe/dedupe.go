// Package dedupe keeps a bounded ledger of notification keys already handed
// to a dispatcher so a key is never delivered twice by one process.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 10_000

// Ledger records notification keys that were handed off.
type Ledger interface {
	// MarkSent records key and reports whether it had been recorded before.
	// Check and record happen atomically.
	MarkSent(ctx context.Context, key string) (already bool)

	// Contains reports whether key is recorded.
	Contains(ctx context.Context, key string) bool

	Size() int64
}

type slot struct {
	key string
	gen uint64
}

// inMemoryLedger evicts the oldest key once maxSize is reached.
// maxSize <= 0 disables eviction.
type inMemoryLedger struct {
	mu      sync.Mutex
	maxSize int
	gen     uint64
	seen    map[string]uint64
	ring    []slot
	next    int
}

// NewInMemoryLedger creates a ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(l)
	}
	l.seen = make(map[string]uint64)
	if l.maxSize > 0 {
		l.ring = make([]slot, 0, l.maxSize)
	}
	return l
}

func (l *inMemoryLedger) MarkSent(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return true
	}
	l.gen++
	l.seen[key] = l.gen
	if l.maxSize <= 0 {
		return false
	}

	if len(l.ring) < l.maxSize {
		l.ring = append(l.ring, slot{key: key, gen: l.gen})
		return false
	}
	old := l.ring[l.next]
	if g, ok := l.seen[old.key]; ok && g == old.gen {
		delete(l.seen, old.key)
	}
	l.ring[l.next] = slot{key: key, gen: l.gen}
	l.next = (l.next + 1) % l.maxSize
	return false
}

func (l *inMemoryLedger) Contains(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[key]
	return ok
}

func (l *inMemoryLedger) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.seen))
}
