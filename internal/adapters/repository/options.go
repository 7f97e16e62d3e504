package repository

import "time"

// BoltOption applies a configuration option to the BoltStore.
type BoltOption func(*BoltStore)

// WithClock overrides the store's time source, used by tests to advance
// time without sleeping.
func WithClock(clock func() time.Time) BoltOption {
	return func(s *BoltStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}
