// Package repository persists members, watermarks, ranking snapshots and
// scheduler state in a SQL row store.
package repository

import (
	"context"
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
)

// MemberStore is the local roster.
type MemberStore interface {
	// ListMembers returns every member ordered by id.
	ListMembers(ctx context.Context) ([]model.Member, error)
	// GetMember returns ErrNotFound for unknown ids.
	GetMember(ctx context.Context, id int64) (model.Member, error)
	// TopMembers returns up to limit members by rank ascending, unranked last.
	TopMembers(ctx context.Context, limit int) ([]model.Member, error)
	CountMembers(ctx context.Context) (int, error)

	// InsertMember adds a member with an unset watermark.
	InsertMember(ctx context.Context, m model.Member) error
	// UpdateMemberProfile refreshes name, avatar, points and rank. The
	// watermark is never written here.
	UpdateMemberProfile(ctx context.Context, m model.Member) error
	DeleteMember(ctx context.Context, id int64) error

	// SetWatermark is the only watermark write path. A value not newer than
	// the stored one is ignored so the watermark never regresses.
	SetWatermark(ctx context.Context, id int64, watermark time.Time) error
}

// SnapshotStore is the append-only ranking history.
type SnapshotStore interface {
	AppendSnapshot(ctx context.Context, s model.RankingSnapshot) error
	// LatestSnapshots returns up to n rows for scope and subject, newest first.
	LatestSnapshots(ctx context.Context, scope model.Scope, subjectID int64, n int) ([]model.RankingSnapshot, error)
}

// StateStore keeps small named values such as the last ranking window.
type StateStore interface {
	// GetState reports ok=false for unknown keys.
	GetState(ctx context.Context, key string) (value string, ok bool, err error)
	PutState(ctx context.Context, key, value string) error
}

// Store is the full row store.
type Store interface {
	MemberStore
	SnapshotStore
	StateStore
	Close() error
}
