// Package queue holds notifications discovered during one pass and hands
// them back in a single global chronological order.
package queue

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/metrics"
)

const defaultCapacity = 100_000

// Item is the payload flowing through the queue.
type Item = model.NotificationItem

// Queue orders items by their QueueKey.
type Queue interface {
	// Push adds an item. It fails with ErrDuplicateKey when an item with the
	// same key is already queued and with ErrQueueFull at capacity.
	Push(ctx context.Context, it Item) error

	// Drain returns every queued item in ascending key order and empties the queue.
	Drain(ctx context.Context) []Item

	// Len returns the number of queued items.
	Len() int

	// Reset drops every queued item.
	Reset()
}

// treap node; BST on key, heap on prio
type node struct {
	item  Item
	prio  uint64
	left  *node
	right *node
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

// insert returns the new root and whether the key was already present.
func insert(n *node, it Item, prio uint64) (*node, bool) {
	if n == nil {
		return &node{item: it, prio: prio}, false
	}
	var dup bool
	switch c := it.Key.Compare(n.item.Key); {
	case c == 0:
		return n, true
	case c < 0:
		n.left, dup = insert(n.left, it, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	default:
		n.right, dup = insert(n.right, it, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	return n, dup
}

func collect(n *node, out []Item) []Item {
	for n != nil {
		out = collect(n.left, out)
		out = append(out, n.item)
		n = n.right
	}
	return out
}

// Chronological is an in-memory Queue backed by a treap.
type Chronological struct {
	mu       sync.Mutex
	root     *node
	size     int
	capacity int
	rng      *rand.Rand
}

// NewChronological creates an empty queue.
func NewChronological(opts ...Option) *Chronological {
	q := &Chronological{
		capacity: defaultCapacity,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(q)
	}
	metrics.UpdateQueueSize(0)
	return q
}

// Push adds it to the queue.
func (q *Chronological) Push(_ context.Context, it Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size >= q.capacity {
		return ErrQueueFull
	}
	root, dup := insert(q.root, it, q.rng.Uint64())
	if dup {
		return ErrDuplicateKey
	}
	q.root = root
	q.size++
	metrics.RecordNotificationEnqueued()
	metrics.UpdateQueueSize(q.size)
	return nil
}

// Drain empties the queue, returning items oldest first.
func (q *Chronological) Drain(_ context.Context) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := collect(q.root, make([]Item, 0, q.size))
	q.root = nil
	q.size = 0
	metrics.UpdateQueueSize(0)
	return out
}

// Len returns the number of queued items.
func (q *Chronological) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Reset drops every queued item.
func (q *Chronological) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.root = nil
	q.size = 0
	metrics.UpdateQueueSize(0)
}
