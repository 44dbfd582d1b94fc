// Package scheduler drives the fast activity tick and the calendar gated
// ranking tick from a single goroutine.
package scheduler

import (
	"context"
	"time"

	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

// LastWindowKey is the state key holding the last ranking window id.
const LastWindowKey = "ranking.last_window"

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

// StateStore keeps the last ranking window id.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool, error)
	PutState(ctx context.Context, key, value string) error
}

// Scheduler runs sync on every tick and rank at most once per ranking window.
type Scheduler struct {
	sync       Task
	rank       Task
	clock      Clock
	policy     Policy
	calendar   Calendar
	state      StateStore
	lastWindow string
	loaded     bool
	log        logger.Logger
}

// New creates a Scheduler. rank may be nil.
func New(sync, rank Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		sync:   sync,
		rank:   rank,
		clock:  RealClock(),
		policy: Policy{Default: 30 * time.Minute},
		log:    logger.Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info(ctx, "scheduler started")
	for {
		wait := s.Tick(ctx)
		s.log.Info(ctx, "sleeping", logger.Duration("interval", wait))
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scheduler stopped")
			return nil
		case <-s.clock.After(wait):
		}
	}
}

// Tick runs one fast pass, the ranking pass when due, and returns the wait
// before the next tick.
func (s *Scheduler) Tick(ctx context.Context) time.Duration {
	s.runTask(ctx, "fast", s.sync)

	if id, due := s.rankingDue(ctx); due {
		s.markWindow(ctx, id)
		s.log.Info(ctx, "ranking window opened", logger.String("window", id))
		s.runTask(ctx, "slow", s.rank)
	}

	wait := s.policy.Interval(s.clock.Now())
	metrics.UpdatePollInterval(wait)
	return wait
}

func (s *Scheduler) runTask(ctx context.Context, cadence string, t Task) {
	if t == nil || ctx.Err() != nil {
		return
	}
	start := s.clock.Now()
	err := t(ctx)
	took := s.clock.Now().Sub(start)
	if err != nil {
		metrics.RecordCycle(cadence, "error", took)
		s.log.Error(ctx, "tick failed", logger.String("cadence", cadence), logger.Error(err))
		return
	}
	metrics.RecordCycle(cadence, "ok", took)
}

func (s *Scheduler) rankingDue(ctx context.Context) (string, bool) {
	if s.rank == nil {
		return "", false
	}
	id, ok := s.calendar.WindowID(s.clock.Now())
	if !ok {
		return "", false
	}
	if !s.loaded && s.state != nil {
		v, found, err := s.state.GetState(ctx, LastWindowKey)
		if err != nil {
			s.log.Warn(ctx, "reading last ranking window", logger.Error(err))
		} else {
			s.loaded = true
			if found {
				s.lastWindow = v
			}
		}
	}
	return id, id != s.lastWindow
}

// markWindow records the window before running so a failing or crashing
// ranking pass is not repeated inside the same window.
func (s *Scheduler) markWindow(ctx context.Context, id string) {
	s.lastWindow = id
	if s.state == nil {
		return
	}
	if err := s.state.PutState(ctx, LastWindowKey, id); err != nil {
		s.log.Warn(ctx, "persisting ranking window", logger.String("window", id), logger.Error(err))
	}
}

// LastWindow returns the most recent ranking window id seen by this process.
func (s *Scheduler) LastWindow() string { return s.lastWindow }
