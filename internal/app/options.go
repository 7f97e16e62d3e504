package app

import "github.com/reftools/matchvoice/pkg/logger"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithAcceptThreshold sets the minimum confidence a candidate needs to be
// persisted. Values outside (0, 1] are ignored.
func WithAcceptThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithLogger overrides the service's logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
