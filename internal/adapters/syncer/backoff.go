package syncer

import (
	"math/rand"
	"time"
)

const jitterFraction = 0.2

// backoffDelay computes the wait before the next delivery attempt:
// exponential in the retry count, capped, with up to 20% jitter either
// way so a backlog of failures does not retry in lockstep.
func backoffDelay(retryCount int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 5 * time.Minute
	}

	delay := base
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}

	jitter := time.Duration(rand.Int63n(int64(float64(delay)*jitterFraction)*2+1)) - time.Duration(float64(delay)*jitterFraction)
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return delay
}
