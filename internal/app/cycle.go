package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pwnwatch/internal/adapters/mq/worker"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
	"github.com/okian/pwnwatch/internal/domain/roster"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

// SyncReport describes one fast pass.
type SyncReport struct {
	CycleID string
	Started time.Time
	Took    time.Duration
	Roster  roster.Plan
	// RosterErr is set when the roster could not be refreshed; the pass
	// then runs on the local roster.
	RosterErr error
	Checked   int
	Seeded    int
	// FetchFailed lists members whose activity could not be checked.
	FetchFailed []int64
	// Dropped counts events the queue refused.
	Dropped int
	// Delivered lists handed off notifications in chronological order.
	Delivered  []worker.Item
	Failed     int
	Suppressed int
}

// RankReport describes one ranking pass.
type RankReport struct {
	CycleID string
	Started time.Time
	Capture ranking.CaptureReport
	Summary ranking.Summary
}

// SyncRoster refreshes the local roster from the platform.
func (s *Service) SyncRoster(ctx context.Context) (roster.Plan, error) {
	return s.roster.Sync(ctx)
}

// SyncOnce runs one fast pass: roster refresh, activity detection for every
// tracked member, then a chronological drain of the queue. A roster or
// member failure skips only that scope and yields ErrPartialPass.
func (s *Service) SyncOnce(ctx context.Context) (SyncReport, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	rep := SyncReport{CycleID: uuid.NewString(), Started: s.now().UTC()}
	log := s.logger.With(logger.String("cycle", rep.CycleID))
	log.Info(ctx, "sync pass started")

	plan, err := s.roster.Sync(ctx)
	rep.Roster = plan
	if err != nil {
		rep.RosterErr = err
		s.alert(ctx, "roster sync failed", err)
	}

	members, err := s.store.ListMembers(ctx)
	if err != nil {
		metrics.RecordStoreError("list_members")
		s.alert(ctx, "listing members failed", err)
		return rep, fmt.Errorf("%w: %w", ErrListMembers, err)
	}
	metrics.UpdateMembersTracked(len(members))

	for _, m := range members {
		if s.ignored.Has(m.ID) {
			continue
		}
		if ctx.Err() != nil {
			log.Warn(ctx, "sync pass interrupted", logger.Int("checked", rep.Checked))
			break
		}

		res, err := s.detector.Check(ctx, m)
		if err != nil {
			rep.FetchFailed = append(rep.FetchFailed, m.ID)
			s.alert(ctx, "activity check failed for "+m.Name, err)
			continue
		}
		rep.Checked++
		if res.Seeded {
			rep.Seeded++
			log.Info(ctx, "member seeded",
				logger.Int64("member_id", m.ID),
				logger.String("member", m.Name),
				logger.String("watermark", model.FormatTime(res.Watermark)),
			)
		}

		for i, ev := range res.Events {
			if err := s.queue.Push(ctx, model.NewNotification(m, ev, i)); err != nil {
				rep.Dropped++
				log.Error(ctx, "notification not queued",
					logger.Int64("member_id", m.ID),
					logger.Error(err),
				)
			}
		}
	}

	out := s.worker.Flush(ctx)
	rep.Delivered = out.Delivered
	rep.Failed = out.Failed
	rep.Suppressed = out.Suppressed
	rep.Took = s.now().UTC().Sub(rep.Started)

	s.mu.Lock()
	s.lastSync = rep
	s.syncs++
	s.mu.Unlock()

	log.Info(ctx, "sync pass finished",
		logger.Int("checked", rep.Checked),
		logger.Int("seeded", rep.Seeded),
		logger.Int("delivered", len(rep.Delivered)),
		logger.Int("failed", rep.Failed),
		logger.Duration("took", rep.Took),
	)

	if rep.RosterErr != nil || len(rep.FetchFailed) > 0 || rep.Dropped > 0 {
		return rep, ErrPartialPass
	}
	return rep, nil
}

// RankOnce captures a snapshot of the team and every member and dispatches
// the resulting summary. The roster is expected to be current.
func (s *Service) RankOnce(ctx context.Context) (RankReport, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	rep := RankReport{CycleID: uuid.NewString(), Started: s.now().UTC()}
	log := s.logger.With(logger.String("cycle", rep.CycleID))
	log.Info(ctx, "ranking pass started")

	capture, err := s.engine.Capture(ctx, rep.Started)
	rep.Capture = capture
	if err != nil {
		s.alert(ctx, "ranking capture failed", err)
		return rep, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	var partial error
	if !capture.Team {
		partial = errors.Join(partial, fmt.Errorf("%w: team snapshot skipped", ErrPartialPass))
	}
	if len(capture.Failed) > 0 {
		partial = errors.Join(partial, fmt.Errorf("%w: %d member snapshots skipped", ErrPartialPass, len(capture.Failed)))
	}
	if partial != nil {
		s.alert(ctx, "ranking capture incomplete", partial)
	}

	sum, err := s.engine.Summary(ctx, s.topN)
	if err != nil {
		s.alert(ctx, "ranking summary failed", err)
		return rep, fmt.Errorf("%w: %w", ErrSummary, err)
	}
	rep.Summary = sum

	if err := s.summary.DispatchSummary(ctx, sum); err != nil {
		s.alert(ctx, "ranking summary not delivered", err)
		return rep, fmt.Errorf("%w: %w", ErrDispatchSummary, err)
	}

	s.mu.Lock()
	s.lastRank = rep
	s.ranks++
	s.mu.Unlock()

	log.Info(ctx, "ranking pass finished",
		logger.Int("members", capture.Members),
		logger.Int("failed", len(capture.Failed)),
	)
	return rep, partial
}
