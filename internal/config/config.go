// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors must be wrapped via this package's sentinel errors.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath locates the durable event store file.
	DBPath string `koanf:"db_path"`

	// DefaultLocale applies when an utterance carries no locale tag.
	DefaultLocale string `koanf:"default_locale"`

	// AcceptThreshold is the minimum extraction confidence to persist a
	// candidate event.
	AcceptThreshold float64 `koanf:"accept_threshold"`

	// MaxListLimit caps GET /events?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// SyncIntervalSeconds sets the background sync cycle cadence.
	SyncIntervalSeconds int `koanf:"sync_interval_seconds"`

	// SyncWorkerCount bounds concurrent deliveries per cycle.
	SyncWorkerCount int `koanf:"sync_worker_count"`

	// SyncBatchLimit caps how many due events one cycle collects.
	SyncBatchLimit int `koanf:"sync_batch_limit"`

	// MaxRetryAttempts is the total delivery budget per event.
	MaxRetryAttempts int `koanf:"max_retry_attempts"`

	// BaseDelayMS and MaxDelayMS bound the exponential retry backoff.
	BaseDelayMS int `koanf:"base_delay_ms"`
	MaxDelayMS  int `koanf:"max_delay_ms"`

	// StaleClaimSeconds is how long a claim may sit in syncing before a
	// cycle reclaims it.
	StaleClaimSeconds int `koanf:"stale_claim_seconds"`

	// FOGISBaseURL and FOGISToken configure the federation API client.
	FOGISBaseURL string `koanf:"fogis_base_url"`
	FOGISToken   string `koanf:"fogis_token"`

	// DeliveryTimeoutSeconds bounds each federation request.
	DeliveryTimeoutSeconds int `koanf:"delivery_timeout_seconds"`

	// RosterCacheTTLSeconds sets how long fetched rosters stay fresh.
	RosterCacheTTLSeconds int `koanf:"roster_cache_ttl_seconds"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		DBPath:                 "matchvoice.db",
		DefaultLocale:          "sv",
		AcceptThreshold:        0.70,
		MaxListLimit:           200,
		SyncIntervalSeconds:    30,
		SyncWorkerCount:        4,
		SyncBatchLimit:         50,
		MaxRetryAttempts:       5,
		BaseDelayMS:            2000,
		MaxDelayMS:             300_000,
		StaleClaimSeconds:      120,
		FOGISBaseURL:           "https://fogis.svenskfotboll.se",
		DeliveryTimeoutSeconds: 10,
		RosterCacheTTLSeconds:  300,
	}
}
