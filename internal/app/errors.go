package service

import "errors"

var (
	// ErrPartialPass marks a pass that completed but skipped some scope.
	ErrPartialPass = errors.New("pass completed with errors")
	// ErrListMembers is returned when the local roster cannot be read.
	ErrListMembers = errors.New("list members")
	// ErrCapture is returned when no snapshot could be taken.
	ErrCapture = errors.New("capture ranking")
	// ErrSummary is returned when the ranking summary cannot be built.
	ErrSummary = errors.New("build ranking summary")
	// ErrDispatchSummary is returned when the summary was not delivered.
	ErrDispatchSummary = errors.New("dispatch ranking summary")
)
