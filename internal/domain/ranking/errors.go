package ranking

import "errors"

var (
	ErrListMembers = errors.New("list members for ranking")
	ErrFetchTeam   = errors.New("fetch team stats")
	ErrFetchMember = errors.New("fetch member stats")
	ErrSnapshots   = errors.New("read ranking snapshots")
)
