package queue

import "errors"

var (
	ErrDuplicateKey = errors.New("notification key already queued")
	ErrQueueFull    = errors.New("notification queue full")
)
