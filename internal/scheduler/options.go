package scheduler

import "github.com/okian/pwnwatch/pkg/logger"

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithPolicy sets the poll interval policy.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithCalendar sets the ranking windows. Without one the slow tick never runs.
func WithCalendar(c Calendar) Option {
	return func(s *Scheduler) { s.calendar = c }
}

// WithStateStore persists the last ranking window across restarts.
func WithStateStore(st StateStore) Option {
	return func(s *Scheduler) { s.state = st }
}

// WithLogger overrides the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}
