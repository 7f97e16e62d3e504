package syncer

import (
	"time"

	"github.com/reftools/matchvoice/pkg/logger"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithInterval sets how often Run executes a cycle.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithWorkerCount bounds concurrent deliveries within a cycle.
func WithWorkerCount(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workerCount = n
		}
	}
}

// WithMaxRetries sets the total attempt budget before an event is parked
// as permanently failed.
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetries = n
		}
	}
}

// WithBaseDelay sets the first retry delay; later delays double from it.
func WithBaseDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.baseDelay = d
		}
	}
}

// WithMaxDelay caps the retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.maxDelay = d
		}
	}
}

// WithStaleAfter sets how long a claim may sit in syncing before a cycle
// reclaims it.
func WithStaleAfter(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.staleAfter = d
		}
	}
}

// WithBatchLimit caps how many due events one cycle collects.
func WithBatchLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.batchLimit = n
		}
	}
}

// WithClock overrides the manager's time source.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger overrides the manager's logger.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
