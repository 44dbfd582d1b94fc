package roster

import "errors"

var (
	ErrFetchRoster  = errors.New("fetch remote roster")
	ErrPartialApply = errors.New("roster partially applied")
)
