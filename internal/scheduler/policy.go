package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Days is a set of weekdays.
type Days uint8

// NewDays builds a set from weekdays.
func NewDays(ds ...time.Weekday) Days {
	var d Days
	for _, w := range ds {
		d |= 1 << uint(w)
	}
	return d
}

// Has reports whether w is in the set.
func (d Days) Has(w time.Weekday) bool { return d&(1<<uint(w)) != 0 }

// ParseDays parses names such as "sat", "Saturday" or "6".
func ParseDays(names []string) (Days, error) {
	var d Days
	for _, n := range names {
		w, err := ParseWeekday(n)
		if err != nil {
			return 0, err
		}
		d |= NewDays(w)
	}
	return d, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts an English day name, its three letter form or 0-6
// with Sunday as 0.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if w, ok := weekdays[s]; ok {
		return w, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// ParseClock turns "HH:MM" into minutes after midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hh, err1 := strconv.Atoi(h)
	mm, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hh < 0 || mm < 0 || mm > 59 || hh > 24 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return hh*60 + mm, nil
}

// Window maps part of a day on selected weekdays to a poll interval.
// Start and End are minutes after midnight; End before Start wraps past
// midnight and the wrapped part belongs to the following day.
type Window struct {
	Days     Days
	Start    int
	End      int
	Interval time.Duration
}

// ParseWindow builds a Window from configuration strings.
func ParseWindow(days []string, start, end string, interval time.Duration) (Window, error) {
	d, err := ParseDays(days)
	if err != nil {
		return Window{}, err
	}
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if interval <= 0 || s == e {
		return Window{}, fmt.Errorf("%w: %s-%s every %s", ErrInvalidWindow, start, end, interval)
	}
	return Window{Days: d, Start: s, End: e, Interval: interval}, nil
}

func (w Window) contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	if w.Start < w.End {
		return w.Days.Has(t.Weekday()) && m >= w.Start && m < w.End
	}
	if m >= w.Start {
		return w.Days.Has(t.Weekday())
	}
	return m < w.End && w.Days.Has((t.Weekday()+6)%7)
}

// Policy picks the poll interval for a moment in time.
type Policy struct {
	Default  time.Duration
	Location *time.Location
	Windows  []Window
}

// Interval returns the interval of the first window containing t, or the
// default.
func (p Policy) Interval(t time.Time) time.Duration {
	t = t.In(p.location())
	for _, w := range p.Windows {
		if w.contains(t) {
			return w.Interval
		}
	}
	return p.Default
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// RankingWindow is one hour on selected weekdays.
type RankingWindow struct {
	Days Days
	Hour int
}

// Calendar decides when the slow tick is due.
type Calendar struct {
	Location *time.Location
	Windows  []RankingWindow
}

// WindowID returns an identifier of the ranking window containing t, in the
// form YYYY-MM-DD@HH, and false outside every window.
func (c Calendar) WindowID(t time.Time) (string, bool) {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	for _, w := range c.Windows {
		if w.Days.Has(t.Weekday()) && t.Hour() == w.Hour {
			return fmt.Sprintf("%s@%02d", t.Format("2006-01-02"), w.Hour), true
		}
	}
	return "", false
}
