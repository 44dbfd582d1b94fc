package worker

import (
	"github.com/okian/pwnwatch/internal/domain/dedupe"
	"github.com/okian/pwnwatch/pkg/logger"
)

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLedger shares an at-most-once ledger across workers.
func WithLedger(l dedupe.Ledger) Option {
	return func(w *Worker) {
		if l != nil {
			w.ledger = l
		}
	}
}
