package service

import (
	"time"

	"github.com/okian/pwnwatch/internal/adapters/mq/worker"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
	"github.com/okian/pwnwatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithIgnored sets member ids the service never tracks.
func WithIgnored(ids model.IDSet) Option {
	return func(s *Service) {
		if ids != nil {
			s.ignored = ids
		}
	}
}

// WithDispatcher sets where activity notifications go.
func WithDispatcher(d worker.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithSummaryDispatcher sets where ranking summaries go.
func WithSummaryDispatcher(d ranking.SummaryDispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.summary = d
		}
	}
}

// WithAlerter sets the operational error sink.
func WithAlerter(a Alerter) Option {
	return func(s *Service) {
		if a != nil {
			s.alerter = a
		}
	}
}

// WithLedgerSize bounds the at-most-once dispatch ledger.
func WithLedgerSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.ledgerSize = n
		}
	}
}

// WithQueueCapacity caps notifications held in one pass.
func WithQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// WithTopN sets how many members a ranking summary lists.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIntervalFunc reports the poll wait at a given time for GetStats.
func WithIntervalFunc(f func(time.Time) time.Duration) Option {
	return func(s *Service) {
		s.interval = f
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
