package queue

import "math/rand/v2"

// Option applies a configuration option to the Chronological queue.
type Option func(*Chronological)

// WithCapacity sets the maximum number of queued items.
func WithCapacity(capacity int) Option {
	return func(q *Chronological) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithSeed makes treap priorities deterministic.
func WithSeed(seed uint64) Option {
	return func(q *Chronological) {
		q.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}
