package scheduler

import "errors"

var (
	ErrInvalidWeekday = errors.New("invalid weekday")
	ErrInvalidClock   = errors.New("invalid time of day")
	ErrInvalidWindow  = errors.New("invalid window")
)
