package notify

import (
	"context"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
	"github.com/okian/pwnwatch/pkg/logger"
)

// LogDispatcher writes notifications and summaries to the log. It stands in
// when no team webhook is configured.
type LogDispatcher struct {
	log logger.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(l logger.Logger) *LogDispatcher {
	if l == nil {
		l = logger.Named("notify")
	}
	return &LogDispatcher{log: l}
}

// Dispatch logs one notification.
func (d *LogDispatcher) Dispatch(ctx context.Context, it model.NotificationItem) error {
	d.log.Info(ctx, Headline(it),
		logger.Int64("member_id", it.MemberID),
		logger.String("kind", string(it.Event.Kind)),
		logger.String("at", model.FormatTime(it.Event.Time)),
	)
	return nil
}

// DispatchSummary logs the rendered summary.
func (d *LogDispatcher) DispatchSummary(ctx context.Context, s ranking.Summary) error {
	d.log.Info(ctx, "ranking summary",
		logger.Int("members", len(s.Members)),
		logger.String("table", SummaryText(s)),
	)
	return nil
}
