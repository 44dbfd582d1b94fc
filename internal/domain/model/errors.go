package model

import "errors"

var (
	ErrUnknownKind = errors.New("unknown object kind")
	ErrInvalidTime = errors.New("invalid timestamp")
)
