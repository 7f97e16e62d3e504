package api

type serverConfig struct {
	defaultLocale string
	maxListLimit  int
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

// WithDefaultLocale sets the locale assumed when a request omits one.
func WithDefaultLocale(locale string) Option {
	return func(c *serverConfig) {
		if locale != "" {
			c.defaultLocale = locale
		}
	}
}

// WithMaxListLimit caps GET /events?limit.
func WithMaxListLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxListLimit = n
		}
	}
}
