// Package activity finds activity events a member completed since the last
// observed watermark.
package activity

import (
	"sort"
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
)

// Result is the outcome of comparing a feed against a watermark.
type Result struct {
	// Events holds the new events in chronological order.
	Events []model.ActivityEvent
	// Watermark is the value to persist for the member.
	Watermark time.Time
	// Seeded is set on first observation: the watermark was initialized
	// and nothing is reported.
	Seeded bool
	// Changed reports whether Watermark differs from the input watermark.
	Changed bool
}

// Detect compares a newest-first feed against the stored watermark.
//
// A zero watermark seeds from the newest feed entry without reporting any
// event. Otherwise every event strictly newer than the watermark is returned
// oldest first, and the watermark moves to the newest feed entry. The
// watermark never moves backwards. An empty feed changes nothing.
func Detect(watermark time.Time, feed []model.ActivityEvent) Result {
	res := Result{Watermark: watermark}
	if len(feed) == 0 {
		return res
	}

	newest := feed[0].Time
	for _, ev := range feed[1:] {
		if ev.Time.After(newest) {
			newest = ev.Time
		}
	}

	if watermark.IsZero() {
		res.Watermark = newest
		res.Seeded = true
		res.Changed = true
		return res
	}

	for i := len(feed) - 1; i >= 0; i-- {
		if feed[i].Time.After(watermark) {
			res.Events = append(res.Events, feed[i])
		}
	}
	// the feed is expected newest-first; keep discovery order for equal times
	sort.SliceStable(res.Events, func(i, j int) bool {
		return res.Events[i].Time.Before(res.Events[j].Time)
	})

	if newest.After(watermark) {
		res.Watermark = newest
		res.Changed = true
	}
	return res
}
