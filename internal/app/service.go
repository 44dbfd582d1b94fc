// Package service wires the tracker components into passes run by the
// scheduler and the CLI, and serves the reads required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/pwnwatch/internal/adapters/mq/queue"
	"github.com/okian/pwnwatch/internal/adapters/mq/worker"
	"github.com/okian/pwnwatch/internal/adapters/notify"
	"github.com/okian/pwnwatch/internal/adapters/repository"
	"github.com/okian/pwnwatch/internal/domain/activity"
	"github.com/okian/pwnwatch/internal/domain/dedupe"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
	"github.com/okian/pwnwatch/internal/domain/roster"
	"github.com/okian/pwnwatch/internal/domain/types"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

// Platform is the remote API the service polls.
type Platform interface {
	roster.Source
	activity.Feed
	ranking.Source
}

// Alerter receives operational errors.
type Alerter interface {
	Alert(ctx context.Context, msg string, err error)
}

// Service runs tracker passes over one store and one platform.
type Service struct {
	// pass serializes SyncOnce and RankOnce.
	pass sync.Mutex
	mu   sync.RWMutex

	store      repository.Store
	platform   Platform
	roster     *roster.Synchronizer
	detector   *activity.Detector
	engine     *ranking.Engine
	queue      *queue.Chronological
	worker     *worker.Worker
	ledger     dedupe.Ledger
	dispatcher worker.Dispatcher
	summary    ranking.SummaryDispatcher
	alerter    Alerter

	ignored       model.IDSet
	ledgerSize    int
	queueCapacity int
	topN          int
	now           func() time.Time
	interval      func(time.Time) time.Duration

	lastSync SyncReport
	lastRank RankReport
	syncs    int
	ranks    int

	logger logger.Logger
}

// New constructs a Service. Without a dispatcher, notifications and
// summaries are written to the log.
func New(store repository.Store, platform Platform, opts ...Option) *Service {
	s := &Service{
		store:      store,
		platform:   platform,
		ignored:    model.NewIDSet(),
		ledgerSize: 10_000,
		topN:       ranking.DefaultTopN,
		now:        time.Now,
		logger:     logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dispatcher == nil || s.summary == nil {
		ld := notify.NewLogDispatcher(s.logger.Named("notify"))
		if s.dispatcher == nil {
			s.dispatcher = ld
		}
		if s.summary == nil {
			s.summary = ld
		}
	}
	if s.alerter == nil {
		s.alerter = notify.NewAlerter("")
	}

	s.roster = roster.New(platform, store,
		roster.WithIgnored(s.ignored),
		roster.WithLogger(s.logger.Named("roster")),
	)
	s.detector = activity.NewDetector(platform, store)
	s.engine = ranking.NewEngine(platform, store,
		ranking.WithTopN(s.topN),
		ranking.WithClock(s.now),
		ranking.WithLogger(s.logger.Named("ranking")),
	)
	s.queue = queue.NewChronological(queue.WithCapacity(s.queueCapacity))
	s.ledger = dedupe.NewInMemoryLedger(dedupe.WithMaxSize(s.ledgerSize))
	s.worker = worker.New(s.queue, s.dispatcher,
		worker.WithLedger(s.ledger),
		worker.WithLogger(s.logger.Named("worker")),
	)

	return s
}

// Members returns up to limit members ordered by rank.
func (s *Service) Members(ctx context.Context, limit int) ([]types.Member, error) {
	ms, err := s.store.TopMembers(ctx, limit)
	if err != nil {
		return nil, err
	}
	return types.FromMembers(ms), nil
}

// Member returns one member. Unknown ids wrap types.ErrNotFound.
func (s *Service) Member(ctx context.Context, id int64) (types.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Member{}, fmt.Errorf("%w: member %d", types.ErrNotFound, id)
	}
	if err != nil {
		return types.Member{}, err
	}
	return types.FromMember(m), nil
}

// Deltas returns the current ranking summary for up to limit members.
func (s *Service) Deltas(ctx context.Context, limit int) (types.Deltas, error) {
	sum, err := s.engine.Summary(ctx, limit)
	if err != nil {
		return types.Deltas{}, err
	}
	return types.FromSummary(sum), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	last, rank := s.lastSync, s.lastRank
	stats := map[string]interface{}{
		"syncs":       s.syncs,
		"ranks":       s.ranks,
		"ledgerSize":  s.Size(),
		"queueLength": s.queue.Len(),
	}
	s.mu.RUnlock()

	if !last.Started.IsZero() {
		stats["lastSync"] = model.FormatTime(last.Started)
		stats["lastSyncCycle"] = last.CycleID
		stats["lastSyncTook"] = last.Took.String()
		stats["lastDelivered"] = len(last.Delivered)
	}
	if !rank.Started.IsZero() {
		stats["lastRank"] = model.FormatTime(rank.Started)
		stats["lastRankCycle"] = rank.CycleID
	}
	if s.interval != nil {
		stats["nextInterval"] = s.interval(s.now()).String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if n, err := s.store.CountMembers(ctx); err == nil {
		stats["members"] = n
		metrics.UpdateMembersTracked(n)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	return stats
}

// Size returns the number of keys held by the dispatch ledger.
func (s *Service) Size() int64 {
	if sz, ok := s.ledger.(interface{ Size() int64 }); ok {
		return sz.Size()
	}
	return 0
}

func (s *Service) alert(ctx context.Context, msg string, err error) {
	s.alerter.Alert(ctx, msg, err)
}
