package roster

import (
	"time"

	"github.com/reftools/matchvoice/pkg/logger"
)

// Option applies a configuration option to the CachingProvider.
type Option func(*CachingProvider)

// WithTTL sets how long a cached roster stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(p *CachingProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock overrides the provider's time source.
func WithClock(clock func() time.Time) Option {
	return func(p *CachingProvider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger overrides the provider's logger.
func WithLogger(log logger.Logger) Option {
	return func(p *CachingProvider) {
		if log != nil {
			p.log = log
		}
	}
}
