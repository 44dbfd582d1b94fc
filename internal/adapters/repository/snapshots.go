package repository

import (
	"context"
	"fmt"

	"github.com/okian/pwnwatch/internal/domain/model"
)

type snapshotRow struct {
	Scope         string `db:"scope"`
	SubjectID     int64  `db:"subject_id"`
	Name          string `db:"name"`
	TakenAt       string `db:"taken_at"`
	Rank          int    `db:"rank_no"`
	Points        int    `db:"points"`
	UserOwns      int    `db:"user_owns"`
	SystemOwns    int    `db:"system_owns"`
	ChallengeOwns int    `db:"challenge_owns"`
	FortressOwns  int    `db:"fortress_owns"`
	EndgameOwns   int    `db:"endgame_owns"`
	ProlabOwns    int    `db:"prolab_owns"`
	Bloods        int    `db:"bloods"`
	Respects      int    `db:"respects"`
}

func (r snapshotRow) toModel() (model.RankingSnapshot, error) {
	ts, err := model.ParseTime(r.TakenAt)
	if err != nil {
		return model.RankingSnapshot{}, err
	}
	return model.RankingSnapshot{
		Scope:     model.Scope(r.Scope),
		SubjectID: r.SubjectID,
		Name:      r.Name,
		Time:      ts,
		Metrics: model.Metrics{
			Rank:          r.Rank,
			Points:        r.Points,
			UserOwns:      r.UserOwns,
			SystemOwns:    r.SystemOwns,
			ChallengeOwns: r.ChallengeOwns,
			FortressOwns:  r.FortressOwns,
			EndgameOwns:   r.EndgameOwns,
			ProlabOwns:    r.ProlabOwns,
			Bloods:        r.Bloods,
			Respects:      r.Respects,
		},
	}, nil
}

// AppendSnapshot stores one ranking row.
func (s *SQLStore) AppendSnapshot(ctx context.Context, snap model.RankingSnapshot) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	m := snap.Metrics
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO ranking_snapshots (
			scope, subject_id, name, taken_at,
			rank_no, points, user_owns, system_owns, challenge_owns,
			fortress_owns, endgame_owns, prolab_owns, bloods, respects
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		string(snap.Scope), snap.SubjectID, snap.Name, model.FormatTime(snap.Time),
		m.Rank, m.Points, m.UserOwns, m.SystemOwns, m.ChallengeOwns,
		m.FortressOwns, m.EndgameOwns, m.ProlabOwns, m.Bloods, m.Respects,
	)
	if err != nil {
		return s.fail("append_snapshot", err)
	}
	return nil
}

// LatestSnapshots returns up to n rows for a subject, newest first.
func (s *SQLStore) LatestSnapshots(ctx context.Context, scope model.Scope, subjectID int64, n int) ([]model.RankingSnapshot, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT scope, subject_id, name, taken_at,
			rank_no, points, user_owns, system_owns, challenge_owns,
			fortress_owns, endgame_owns, prolab_owns, bloods, respects
		FROM ranking_snapshots
		WHERE scope = ? AND subject_id = ?
		ORDER BY taken_at DESC, id DESC
		LIMIT ?`), string(scope), subjectID, n)
	if err != nil {
		return nil, s.fail("latest_snapshots", err)
	}

	out := make([]model.RankingSnapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
