// Package roster reconciles the remote team roster with the local member table.
package roster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

// Source fetches the remote roster.
type Source interface {
	TeamMembers(ctx context.Context) ([]model.Member, error)
}

// Store is the member table the roster writes to.
type Store interface {
	ListMembers(ctx context.Context) ([]model.Member, error)
	InsertMember(ctx context.Context, m model.Member) error
	UpdateMemberProfile(ctx context.Context, m model.Member) error
	DeleteMember(ctx context.Context, id int64) error
}

// Plan is the set of writes that brings the local roster in line with the remote one.
type Plan struct {
	Inserts []model.Member
	Updates []model.Member
	Deletes []int64
	// Skipped lists ids left alone: ignored members and malformed remote records.
	Skipped []int64
	// Malformed counts remote records that could not be used.
	Malformed int
}

// Empty reports whether the plan writes nothing.
func (p Plan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// BuildPlan compares remote and local rosters. Ignored ids are never created,
// updated nor removed. Updates carry the local watermark unchanged. A remote
// record without a usable id leaves absence unknowable, so no member is
// deleted in that pass.
func BuildPlan(remote, local []model.Member, ignored model.IDSet) Plan {
	var p Plan

	localByID := make(map[int64]model.Member, len(local))
	for _, m := range local {
		localByID[m.ID] = m
	}

	present := make(map[int64]struct{}, len(remote))
	unidentified := false
	for _, r := range remote {
		if r.ID <= 0 {
			p.Malformed++
			unidentified = true
			continue
		}
		if _, dup := present[r.ID]; dup {
			continue
		}
		present[r.ID] = struct{}{}

		if ignored.Has(r.ID) {
			p.Skipped = append(p.Skipped, r.ID)
			continue
		}
		if r.Name == "" {
			p.Malformed++
			p.Skipped = append(p.Skipped, r.ID)
			continue
		}

		l, ok := localByID[r.ID]
		if !ok {
			r.Watermark = time.Time{}
			p.Inserts = append(p.Inserts, r)
			continue
		}
		r.Watermark = l.Watermark
		p.Updates = append(p.Updates, r)
	}

	if !unidentified {
		for _, l := range local {
			if _, ok := present[l.ID]; ok || ignored.Has(l.ID) {
				continue
			}
			p.Deletes = append(p.Deletes, l.ID)
		}
	}

	sort.Slice(p.Inserts, func(i, j int) bool { return p.Inserts[i].ID < p.Inserts[j].ID })
	sort.Slice(p.Updates, func(i, j int) bool { return p.Updates[i].ID < p.Updates[j].ID })
	sort.Slice(p.Deletes, func(i, j int) bool { return p.Deletes[i] < p.Deletes[j] })
	sort.Slice(p.Skipped, func(i, j int) bool { return p.Skipped[i] < p.Skipped[j] })
	return p
}

// Synchronizer applies roster plans against the store.
type Synchronizer struct {
	source  Source
	store   Store
	ignored model.IDSet
	log     logger.Logger
}

// New creates a Synchronizer.
func New(source Source, store Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		source:  source,
		store:   store,
		ignored: model.NewIDSet(),
		log:     logger.Named("roster"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync fetches the remote roster and applies the resulting plan. A fetch
// failure returns before any write. A failed individual write is logged and
// the remaining writes proceed; the returned error then wraps ErrPartialApply.
func (s *Synchronizer) Sync(ctx context.Context) (Plan, error) {
	remote, err := s.source.TeamMembers(ctx)
	if err != nil {
		metrics.RecordFetchError("roster")
		return Plan{}, fmt.Errorf("%w: %w", ErrFetchRoster, err)
	}
	local, err := s.store.ListMembers(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("list local members: %w", err)
	}

	plan := BuildPlan(remote, local, s.ignored)
	for i := 0; i < plan.Malformed; i++ {
		metrics.RecordMalformedRecord("roster")
	}
	if plan.Malformed > 0 {
		s.log.Warn(ctx, "malformed roster records skipped", logger.Int("count", plan.Malformed))
	}

	failed := 0
	for _, m := range plan.Inserts {
		if err := s.store.InsertMember(ctx, m); err != nil {
			failed++
			s.log.Error(ctx, "insert member failed", logger.Int64("member_id", m.ID), logger.Error(err))
			continue
		}
		s.log.Info(ctx, "member added", logger.Int64("member_id", m.ID), logger.String("name", m.Name))
	}
	for _, m := range plan.Updates {
		if err := s.store.UpdateMemberProfile(ctx, m); err != nil {
			failed++
			s.log.Error(ctx, "update member failed", logger.Int64("member_id", m.ID), logger.Error(err))
		}
	}
	for _, id := range plan.Deletes {
		if err := s.store.DeleteMember(ctx, id); err != nil {
			failed++
			s.log.Error(ctx, "delete member failed", logger.Int64("member_id", id), logger.Error(err))
			continue
		}
		s.log.Info(ctx, "member removed", logger.Int64("member_id", id))
	}

	metrics.RecordRosterChange("insert", len(plan.Inserts))
	metrics.RecordRosterChange("update", len(plan.Updates))
	metrics.RecordRosterChange("delete", len(plan.Deletes))
	metrics.RecordRosterChange("skip", len(plan.Skipped))

	if failed > 0 {
		return plan, fmt.Errorf("%w: %d of %d writes failed", ErrPartialApply, failed,
			len(plan.Inserts)+len(plan.Updates)+len(plan.Deletes))
	}
	return plan, nil
}
