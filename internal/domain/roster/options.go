package roster

import (
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/pkg/logger"
)

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithIgnored sets member ids the synchronizer never touches.
func WithIgnored(ids model.IDSet) Option {
	return func(s *Synchronizer) {
		if ids != nil {
			s.ignored = ids
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}
