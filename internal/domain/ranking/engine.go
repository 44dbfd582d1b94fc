// Package ranking captures periodic team and member statistics and computes
// the change between the two most recent captures.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

const DefaultTopN = 25

// Source fetches current statistics from the platform.
type Source interface {
	TeamStats(ctx context.Context) (model.TeamStanding, error)
	MemberStats(ctx context.Context, memberID int64) (model.Metrics, error)
}

// Store is the slice of the row store the engine needs.
type Store interface {
	ListMembers(ctx context.Context) ([]model.Member, error)
	TopMembers(ctx context.Context, limit int) ([]model.Member, error)
	AppendSnapshot(ctx context.Context, s model.RankingSnapshot) error
	LatestSnapshots(ctx context.Context, scope model.Scope, subjectID int64, n int) ([]model.RankingSnapshot, error)
}

// SummaryDispatcher publishes a ranking summary.
type SummaryDispatcher interface {
	DispatchSummary(ctx context.Context, s Summary) error
}

// Delta is the latest capture of a subject and its change since the one before.
type Delta struct {
	Scope     model.Scope   `json:"scope"`
	SubjectID int64         `json:"subject_id"`
	Name      string        `json:"name"`
	Time      time.Time     `json:"time"`
	Current   model.Metrics `json:"current"`
	Change    model.Metrics `json:"change"`
}

// Summary is the team delta plus the deltas of the top ranked members.
type Summary struct {
	Team    *Delta  `json:"team,omitempty"`
	Members []Delta `json:"members"`
}

// CaptureReport describes one Capture call.
type CaptureReport struct {
	Team    bool
	Members int
	Failed  []int64
}

// Engine appends ranking snapshots and derives deltas from them.
type Engine struct {
	source Source
	store  Store
	topN   int
	now    func() time.Time
	log    logger.Logger
}

// NewEngine creates an Engine.
func NewEngine(source Source, store Store, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		store:  store,
		topN:   DefaultTopN,
		now:    time.Now,
		log:    logger.Named("ranking"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TopN returns the default member cap.
func (e *Engine) TopN() int { return e.topN }

// Capture appends one team snapshot and one snapshot per local member, all
// stamped with at. Rank and points of members come from the roster, which
// the caller is expected to have synchronized. A failed team or member fetch
// skips only that subject.
func (e *Engine) Capture(ctx context.Context, at time.Time) (CaptureReport, error) {
	if at.IsZero() {
		at = e.now()
	}
	at = at.UTC()
	var rep CaptureReport

	members, err := e.store.ListMembers(ctx)
	if err != nil {
		metrics.RecordRankingPass("error")
		return rep, fmt.Errorf("%w: %w", ErrListMembers, err)
	}

	if team, err := e.source.TeamStats(ctx); err != nil {
		metrics.RecordFetchError("team_stats")
		e.log.Warn(ctx, "skipping team snapshot", logger.Error(fmt.Errorf("%w: %w", ErrFetchTeam, err)))
	} else if err := e.append(ctx, model.RankingSnapshot{
		Scope:     model.ScopeTeam,
		SubjectID: model.TeamSubject,
		Name:      team.Name,
		Time:      at,
		Metrics:   team.Metrics,
	}); err != nil {
		e.log.Error(ctx, "storing team snapshot", logger.Error(err))
	} else {
		rep.Team = true
	}

	for _, m := range members {
		if ctx.Err() != nil {
			break
		}
		stats, err := e.source.MemberStats(ctx, m.ID)
		if err != nil {
			metrics.RecordFetchError("member_stats")
			rep.Failed = append(rep.Failed, m.ID)
			e.log.Warn(ctx, "skipping member snapshot",
				logger.Int64("member_id", m.ID),
				logger.String("member", m.Name),
				logger.Error(fmt.Errorf("%w: %w", ErrFetchMember, err)),
			)
			continue
		}
		stats.Rank, stats.Points = m.Rank, m.Points
		if err := e.append(ctx, model.RankingSnapshot{
			Scope:     model.ScopeMember,
			SubjectID: m.ID,
			Name:      m.Name,
			Time:      at,
			Metrics:   stats,
		}); err != nil {
			rep.Failed = append(rep.Failed, m.ID)
			e.log.Error(ctx, "storing member snapshot", logger.Int64("member_id", m.ID), logger.Error(err))
			continue
		}
		rep.Members++
	}

	outcome := "ok"
	if !rep.Team || len(rep.Failed) > 0 {
		outcome = "partial"
	}
	metrics.RecordRankingPass(outcome)
	e.log.Info(ctx, "ranking captured",
		logger.Bool("team", rep.Team),
		logger.Int("members", rep.Members),
		logger.Int("failed", len(rep.Failed)),
	)
	return rep, ctx.Err()
}

func (e *Engine) append(ctx context.Context, s model.RankingSnapshot) error {
	if err := e.store.AppendSnapshot(ctx, s); err != nil {
		return err
	}
	metrics.RecordSnapshotAppended(string(s.Scope))
	return nil
}

// Delta compares the two most recent snapshots of a subject. With a single
// snapshot the change is zero; with none ok is false.
func (e *Engine) Delta(ctx context.Context, scope model.Scope, subjectID int64) (Delta, bool, error) {
	rows, err := e.store.LatestSnapshots(ctx, scope, subjectID, 2)
	if err != nil {
		return Delta{}, false, fmt.Errorf("%w: %w", ErrSnapshots, err)
	}
	return deltaOf(rows)
}

func deltaOf(rows []model.RankingSnapshot) (Delta, bool, error) {
	if len(rows) == 0 {
		return Delta{}, false, nil
	}
	latest := rows[0]
	previous := latest
	if len(rows) > 1 {
		previous = rows[1]
	}
	return Delta{
		Scope:     latest.Scope,
		SubjectID: latest.SubjectID,
		Name:      latest.Name,
		Time:      latest.Time,
		Current:   latest.Metrics,
		Change:    latest.Metrics.Sub(previous.Metrics),
	}, true, nil
}

// Summary builds the team delta and the deltas of up to limit members
// ordered by rank ascending with unranked members last. A non-positive
// limit selects the engine default. Members without snapshots are omitted.
func (e *Engine) Summary(ctx context.Context, limit int) (Summary, error) {
	if limit <= 0 {
		limit = e.topN
	}
	var sum Summary

	team, ok, err := e.Delta(ctx, model.ScopeTeam, model.TeamSubject)
	if err != nil {
		return sum, err
	}
	if ok {
		sum.Team = &team
	}

	top, err := e.store.TopMembers(ctx, limit)
	if err != nil {
		return sum, fmt.Errorf("%w: %w", ErrListMembers, err)
	}
	sum.Members = make([]Delta, 0, len(top))
	for _, m := range top {
		d, ok, err := e.Delta(ctx, model.ScopeMember, m.ID)
		if err != nil {
			return sum, err
		}
		if !ok {
			continue
		}
		if d.Name == "" {
			d.Name = m.Name
		}
		sum.Members = append(sum.Members, d)
	}
	return sum, nil
}
