package repository

import "errors"

var (
	ErrNotFound        = errors.New("member not found")
	ErrInvalidLimit    = errors.New("invalid limit")
	ErrUnsupportedDSN  = errors.New("unsupported database dsn")
	ErrMigrationFailed = errors.New("schema migration failed")
)
