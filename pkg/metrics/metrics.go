// Package metrics provides Prometheus metrics for the matchvoice service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Extraction pipeline metrics
	utterancesHandled   prometheus.Counter
	utterancesRejected  *prometheus.CounterVec
	candidatesExtracted *prometheus.CounterVec
	candidatesRejected  prometheus.Counter
	eventsCreated       *prometheus.CounterVec
	extractionLatency   prometheus.Histogram

	// Sync metrics
	syncAttempts     prometheus.Counter
	syncSuccess      prometheus.Counter
	syncRetryable    prometheus.Counter
	syncFatal        prometheus.Counter
	syncConflicts    prometheus.Counter
	syncReclaimed    prometheus.Counter
	deliveryLatency  prometheus.Histogram
	eventsByState    *prometheus.GaugeVec
	syncCycleLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store metrics
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchvoice",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.utterancesHandled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "utterances_handled_total",
		Help:      "Total number of transcribed utterances processed",
	})

	m.utterancesRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "utterances_rejected_total",
			Help:      "Total number of utterances rejected before extraction",
		},
		[]string{"reason"},
	)

	m.candidatesExtracted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "candidates_extracted_total",
			Help:      "Total number of candidate events produced by extraction",
		},
		[]string{"event_type"},
	)

	m.candidatesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_below_threshold_total",
		Help:      "Total number of candidate events rejected by the confidence threshold",
	})

	m.eventsCreated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_created_total",
			Help:      "Total number of match events persisted",
		},
		[]string{"event_type"},
	)

	m.extractionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_latency_milliseconds",
		Help:      "Histogram of normalize+extract latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.syncAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "attempts_total",
		Help:      "Total number of delivery attempts to the federation API",
	})

	m.syncSuccess = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "success_total",
		Help:      "Total number of events accepted by the federation API",
	})

	m.syncRetryable = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "retryable_failures_total",
		Help:      "Total number of delivery attempts that failed with a retryable error",
	})

	m.syncFatal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "fatal_failures_total",
		Help:      "Total number of events that reached the fatal failure state",
	})

	m.syncConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "claim_conflicts_total",
		Help:      "Total number of claim races lost to a concurrent sync cycle",
	})

	m.syncReclaimed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "stale_reclaimed_total",
		Help:      "Total number of stale syncing events reset to pending",
	})

	m.deliveryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "delivery_latency_milliseconds",
		Help:      "Histogram of remote delivery call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.eventsByState = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: "sync",
			Name:      "events_by_state",
			Help:      "Current number of stored events per sync state",
		},
		[]string{"state"},
	)

	m.syncCycleLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "cycle_latency_milliseconds",
		Help:      "Histogram of full sync cycle duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "update_latency_milliseconds",
		Help:      "Event store write/transition latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "query_latency_milliseconds",
		Help:      "Event store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordUtteranceHandled increments the handled utterances counter.
func RecordUtteranceHandled() {
	globalManager.utterancesHandled.Inc()
}

// RecordUtteranceRejected records an utterance rejected before extraction.
func RecordUtteranceRejected(reason string) {
	globalManager.utterancesRejected.WithLabelValues(reason).Inc()
}

// RecordCandidateExtracted records a candidate event by type.
func RecordCandidateExtracted(eventType string) {
	globalManager.candidatesExtracted.WithLabelValues(eventType).Inc()
}

// RecordCandidateRejected increments the below-threshold counter.
func RecordCandidateRejected() {
	globalManager.candidatesRejected.Inc()
}

// RecordEventCreated records a persisted match event by type.
func RecordEventCreated(eventType string) {
	globalManager.eventsCreated.WithLabelValues(eventType).Inc()
}

// RecordExtractionLatency records normalize+extract latency in milliseconds.
func RecordExtractionLatency(latencyMs float64) {
	globalManager.extractionLatency.Observe(latencyMs)
}

// RecordSyncAttempt increments the delivery attempts counter.
func RecordSyncAttempt() {
	globalManager.syncAttempts.Inc()
}

// RecordSyncSuccess increments the delivery success counter.
func RecordSyncSuccess() {
	globalManager.syncSuccess.Inc()
}

// RecordSyncRetryable increments the retryable failure counter.
func RecordSyncRetryable() {
	globalManager.syncRetryable.Inc()
}

// RecordSyncFatal increments the fatal failure counter.
func RecordSyncFatal() {
	globalManager.syncFatal.Inc()
}

// RecordSyncConflict increments the lost-claim counter.
func RecordSyncConflict() {
	globalManager.syncConflicts.Inc()
}

// RecordSyncReclaimed increments the stale reclaim counter.
func RecordSyncReclaimed() {
	globalManager.syncReclaimed.Inc()
}

// RecordDeliveryLatency records a delivery call latency in milliseconds.
func RecordDeliveryLatency(latencyMs float64) {
	globalManager.deliveryLatency.Observe(latencyMs)
}

// RecordSyncCycleLatency records a full cycle duration in milliseconds.
func RecordSyncCycleLatency(latencyMs float64) {
	globalManager.syncCycleLatency.Observe(latencyMs)
}

// UpdateEventsByState sets the per-state event gauge.
func UpdateEventsByState(state string, count int) {
	globalManager.eventsByState.WithLabelValues(state).Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordStoreUpdateLatency records an event store write latency.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records an event store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
