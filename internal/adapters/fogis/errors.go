package fogis

import "errors"

// Sentinel kinds for delivery outcomes. The sync manager branches on these
// to decide between retrying and parking an event permanently.
var (
	// ErrRetryableDelivery covers transient upstream trouble: timeouts,
	// connection failures, 429 and 5xx responses.
	ErrRetryableDelivery = errors.New("retryable delivery failure")
	// ErrFatalDelivery covers responses that will not improve with time,
	// such as a 400 or 422 rejection of the payload.
	ErrFatalDelivery = errors.New("fatal delivery failure")
	// ErrMatchNotFound means the federation does not know the match id.
	ErrMatchNotFound = errors.New("match not found")
)
