package repository

import "time"

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithQueryTimeout bounds every store operation.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithClock overrides the time source used for bookkeeping columns.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}
