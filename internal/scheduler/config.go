package scheduler

import (
	"fmt"
	"time"

	"github.com/okian/pwnwatch/internal/config"
)

// FromConfig builds the poll policy and ranking calendar. A disabled
// ranking section yields an empty calendar.
func FromConfig(cfg *config.Config) (Policy, Calendar, error) {
	loc, err := time.LoadLocation(cfg.Poll.Location)
	if err != nil {
		return Policy{}, Calendar{}, fmt.Errorf("%w: location %q: %v", ErrInvalidWindow, cfg.Poll.Location, err)
	}

	p := Policy{Default: cfg.Poll.Default, Location: loc}
	for i, w := range cfg.Poll.Windows {
		win, err := ParseWindow(w.Days, w.Start, w.End, w.Interval)
		if err != nil {
			return Policy{}, Calendar{}, fmt.Errorf("poll.windows[%d]: %w", i, err)
		}
		p.Windows = append(p.Windows, win)
	}

	c := Calendar{Location: loc}
	if !cfg.Ranking.Enabled {
		return p, c, nil
	}
	for i, w := range cfg.Ranking.Windows {
		days, err := ParseDays(w.Days)
		if err != nil {
			return Policy{}, Calendar{}, fmt.Errorf("ranking.windows[%d]: %w", i, err)
		}
		if w.Hour < 0 || w.Hour > 23 {
			return Policy{}, Calendar{}, fmt.Errorf("ranking.windows[%d]: %w: hour %d", i, ErrInvalidWindow, w.Hour)
		}
		c.Windows = append(c.Windows, RankingWindow{Days: days, Hour: w.Hour})
	}
	return p, c, nil
}
