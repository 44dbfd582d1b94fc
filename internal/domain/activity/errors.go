package activity

import "errors"

var (
	ErrFetchActivity  = errors.New("fetch activity")
	ErrStoreWatermark = errors.New("store watermark")
)
