package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/okian/pwnwatch/pkg/metrics"
)

// Feed fetches a member's activity, newest first.
type Feed interface {
	Activity(ctx context.Context, memberID int64) ([]model.ActivityEvent, error)
}

// WatermarkStore is the single write path for member watermarks.
type WatermarkStore interface {
	SetWatermark(ctx context.Context, memberID int64, watermark time.Time) error
}

// Detector fetches a member's feed, runs Detect and persists the new watermark.
type Detector struct {
	feed  Feed
	store WatermarkStore
	log   logger.Logger
}

// NewDetector creates a Detector.
func NewDetector(feed Feed, store WatermarkStore) *Detector {
	return &Detector{feed: feed, store: store, log: logger.Named("activity")}
}

// Check processes one member. Events are returned only once the new
// watermark has been stored; on any error the caller must not notify.
func (d *Detector) Check(ctx context.Context, m model.Member) (Result, error) {
	feed, err := d.feed.Activity(ctx, m.ID)
	if err != nil {
		metrics.RecordFetchError("activity")
		return Result{Watermark: m.Watermark}, fmt.Errorf("%w: member %d: %w", ErrFetchActivity, m.ID, err)
	}
	for i := range feed {
		feed[i].MemberID = m.ID
	}

	res := Detect(m.Watermark, feed)
	if !res.Changed {
		return res, nil
	}

	if err := d.store.SetWatermark(ctx, m.ID, res.Watermark); err != nil {
		metrics.RecordStoreError("set_watermark")
		return Result{Watermark: m.Watermark}, fmt.Errorf("%w: member %d: %w", ErrStoreWatermark, m.ID, err)
	}

	if res.Seeded {
		metrics.RecordWatermarkSeeded()
		d.log.Info(ctx, "watermark seeded",
			logger.Int64("member_id", m.ID),
			logger.String("watermark", model.FormatTime(res.Watermark)),
		)
		return res, nil
	}

	metrics.RecordWatermarkAdvanced()
	metrics.RecordEventsDetected(len(res.Events))
	d.log.Debug(ctx, "watermark advanced",
		logger.Int64("member_id", m.ID),
		logger.Int("events", len(res.Events)),
		logger.String("watermark", model.FormatTime(res.Watermark)),
	)
	return res, nil
}
