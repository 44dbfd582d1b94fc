// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// Member is a team member as tracked locally.
type Member struct {
	ID     int64
	Name   string
	Avatar string
	Points int
	Rank   int

	// Watermark is the time of the newest activity already observed.
	// Zero means the member has never been observed.
	Watermark time.Time
}

// HasWatermark reports whether the member has been observed at least once.
func (m Member) HasWatermark() bool { return !m.Watermark.IsZero() }

// IDSet is a set of member ids.
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s IDSet) Add(id int64) { s[id] = struct{}{} }

// Remove deletes id.
func (s IDSet) Remove(id int64) { delete(s, id) }

// Has reports membership. A nil set contains nothing.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s IDSet) Len() int { return len(s) }

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
