package extract

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxNameDistance sets the maximum edit distance accepted when resolving
// spoken player names against a roster.
func WithMaxNameDistance(d int) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.maxNameDistance = d
		}
	}
}
