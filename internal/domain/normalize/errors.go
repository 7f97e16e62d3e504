package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	// ErrUnsupportedLocale means no rule set is registered for the locale.
	// Normalization is deterministic, so callers must not retry.
	ErrUnsupportedLocale = errors.New("unsupported locale")
)
