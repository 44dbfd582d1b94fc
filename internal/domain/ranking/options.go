package ranking

import (
	"time"

	"github.com/okian/pwnwatch/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithTopN sets the default member cap of Summary.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithClock overrides the time source used when Capture is given a zero time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
