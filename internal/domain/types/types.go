// Package types contains the read shapes served by the HTTP API.
package types

import (
	"errors"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
)

// ErrNotFound marks lookups of unknown subjects.
var ErrNotFound = errors.New("not found")

// Member is a tracked member.
type Member struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Points    int    `json:"points"`
	Rank      int    `json:"rank"`
	Watermark string `json:"watermark,omitempty"`
}

// FromMember converts a stored member.
func FromMember(m model.Member) Member {
	return Member{
		ID:        m.ID,
		Name:      m.Name,
		Avatar:    m.Avatar,
		Points:    m.Points,
		Rank:      m.Rank,
		Watermark: model.FormatTime(m.Watermark),
	}
}

// FromMembers converts a list of stored members.
func FromMembers(ms []model.Member) []Member {
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromMember(m))
	}
	return out
}

// Delta is a subject's latest counters and their change.
type Delta struct {
	SubjectID int64         `json:"subject_id"`
	Name      string        `json:"name"`
	TakenAt   string        `json:"taken_at"`
	Current   model.Metrics `json:"current"`
	Change    model.Metrics `json:"change"`
}

// Deltas is the ranking summary.
type Deltas struct {
	Team    *Delta  `json:"team"`
	Members []Delta `json:"members"`
}

// FromDelta converts an engine delta.
func FromDelta(d ranking.Delta) Delta {
	return Delta{
		SubjectID: d.SubjectID,
		Name:      d.Name,
		TakenAt:   model.FormatTime(d.Time),
		Current:   d.Current,
		Change:    d.Change,
	}
}

// FromSummary converts an engine summary.
func FromSummary(s ranking.Summary) Deltas {
	out := Deltas{Members: make([]Delta, 0, len(s.Members))}
	if s.Team != nil {
		t := FromDelta(*s.Team)
		out.Team = &t
	}
	for _, d := range s.Members {
		out.Members = append(out.Members, FromDelta(d))
	}
	return out
}
