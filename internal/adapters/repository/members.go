package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
)

type memberRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Avatar    string `db:"avatar"`
	Points    int    `db:"points"`
	Rank      int    `db:"rank_no"`
	Watermark string `db:"watermark"`
}

func (r memberRow) toModel() (model.Member, error) {
	wm, err := model.ParseTime(r.Watermark)
	if err != nil {
		return model.Member{}, fmt.Errorf("member %d: %w", r.ID, err)
	}
	return model.Member{
		ID:        r.ID,
		Name:      r.Name,
		Avatar:    r.Avatar,
		Points:    r.Points,
		Rank:      r.Rank,
		Watermark: wm,
	}, nil
}

func toMembers(rows []memberRow) ([]model.Member, error) {
	out := make([]model.Member, 0, len(rows))
	for _, r := range rows {
		m, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

const memberColumns = `id, name, avatar, points, rank_no, watermark`

// ListMembers returns every member ordered by id.
func (s *SQLStore) ListMembers(ctx context.Context) ([]model.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []memberRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+memberColumns+` FROM members ORDER BY id`); err != nil {
		return nil, s.fail("list_members", err)
	}
	return toMembers(rows)
}

// GetMember returns one member.
func (s *SQLStore) GetMember(ctx context.Context, id int64) (model.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var row memberRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+memberColumns+` FROM members WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return model.Member{}, s.fail("get_member", err)
	}
	return row.toModel()
}

// TopMembers returns up to limit members by rank ascending, unranked last.
func (s *SQLStore) TopMembers(ctx context.Context, limit int) ([]model.Member, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rows []memberRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+memberColumns+` FROM members
		ORDER BY CASE WHEN rank_no > 0 THEN 0 ELSE 1 END, rank_no, id
		LIMIT ?`), limit)
	if err != nil {
		return nil, s.fail("top_members", err)
	}
	return toMembers(rows)
}

// CountMembers returns the roster size.
func (s *SQLStore) CountMembers(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM members`); err != nil {
		return 0, s.fail("count_members", err)
	}
	return n, nil
}

// InsertMember adds a member with an unset watermark.
func (s *SQLStore) InsertMember(ctx context.Context, m model.Member) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO members (id, name, avatar, points, rank_no, watermark, updated_at)
		VALUES (?, ?, ?, ?, ?, '', ?)`),
		m.ID, m.Name, m.Avatar, m.Points, m.Rank, model.FormatTime(s.now()),
	)
	if err != nil {
		return s.fail("insert_member", err)
	}
	return nil
}

// UpdateMemberProfile refreshes the profile columns of an existing member.
func (s *SQLStore) UpdateMemberProfile(ctx context.Context, m model.Member) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE members SET name = ?, avatar = ?, points = ?, rank_no = ?, updated_at = ?
		WHERE id = ?`),
		m.Name, m.Avatar, m.Points, m.Rank, model.FormatTime(s.now()), m.ID,
	)
	if err != nil {
		return s.fail("update_member", err)
	}
	return requireRow(res, m.ID)
}

// DeleteMember removes a member. Unknown ids are not an error.
func (s *SQLStore) DeleteMember(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM members WHERE id = ?`), id); err != nil {
		return s.fail("delete_member", err)
	}
	return nil
}

// SetWatermark advances a member's watermark. Older or equal values are
// ignored; the fixed-width text layout keeps string order chronological.
func (s *SQLStore) SetWatermark(ctx context.Context, id int64, watermark time.Time) error {
	if watermark.IsZero() {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	wm := model.FormatTime(watermark)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE members SET watermark = ?, updated_at = ?
		WHERE id = ? AND watermark < ?`),
		wm, model.FormatTime(s.now()), id, wm,
	)
	if err != nil {
		return s.fail("set_watermark", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	var exists int
	err = s.db.GetContext(ctx, &exists, s.db.Rebind(`SELECT COUNT(*) FROM members WHERE id = ?`), id)
	if err != nil {
		return s.fail("set_watermark", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
