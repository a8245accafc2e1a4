// Package metrics provides Prometheus metrics for the royale agent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the agent process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Decision loop metrics
	ticksTotal   prometheus.Counter
	ticksSkipped *prometheus.CounterVec
	tickDuration prometheus.Histogram
	actionsTotal *prometheus.CounterVec

	// Game API client metrics
	apiRequests        *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	apiErrors          *prometheus.CounterVec

	// Match lifecycle metrics
	matchesStarted  prometheus.Counter
	matchesFinished *prometheus.CounterVec
	killsTotal      prometheus.Counter

	// Region value table metrics
	regionCount       prometheus.Gauge
	regionShardCount  prometheus.Gauge
	regionEvents      *prometheus.CounterVec
	persistenceErrors prometheus.Counter

	// Outcome event pipeline metrics
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueDropped    prometheus.Counter
	eventsApplied   prometheus.Counter
	eventsDuplicate prometheus.Counter
	applyLatency    prometheus.Histogram

	// Ops HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "royale",
		subsystem:        "agent",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.ticksTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_total",
		Help:      "Decision ticks completed (fetch, decide, act).",
	})
	m.ticksSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_skipped_total",
		Help:      "Ticks abandoned without submitting an action, by reason.",
	}, []string{"reason"})
	m.tickDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tick_duration_ms",
		Help:      "Full tick latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.actionsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "actions_total",
		Help:      "Actions submitted, by action type.",
	}, []string{"action"})

	m.apiRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_requests_total",
		Help:      "Game API calls, by operation and outcome.",
	}, []string{"op", "outcome"})
	m.apiRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_request_duration_ms",
		Help:      "Game API round-trip latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})
	m.apiErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_errors_total",
		Help:      "Game API failures, by error kind.",
	}, []string{"kind"})

	m.matchesStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_started_total",
		Help:      "Matches joined.",
	})
	m.matchesFinished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_finished_total",
		Help:      "Matches concluded, by result.",
	}, []string{"result"})
	m.killsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kills_total",
		Help:      "Confirmed kills across all matches.",
	})

	m.regionCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "region_count",
		Help:      "Regions tracked in the value table.",
	})
	m.regionShardCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "region_shard_count",
		Help:      "Shards in the region value store.",
	})
	m.regionEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "region_events_total",
		Help:      "Outcome events applied to the region table, by kind.",
	}, []string{"kind"})
	m.persistenceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_errors_total",
		Help:      "Failed writes to the external region score store.",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_size",
		Help:      "Outcome events waiting to be applied.",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_capacity",
		Help:      "Outcome event queue capacity.",
	})
	m.queueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_queue_dropped_total",
		Help:      "Outcome events dropped on backpressure or shutdown.",
	})
	m.eventsApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_applied_total",
		Help:      "Outcome events folded into the region table.",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Outcome events discarded as already seen.",
	})
	m.applyLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_apply_latency_ms",
		Help:      "Latency applying one outcome event, in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Ops HTTP requests, by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "Ops HTTP request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Allocated heap bytes.",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Live goroutines.",
	})
}

// RecordTick increments the completed tick counter.
func RecordTick() {
	globalManager.ticksTotal.Inc()
}

// RecordTickSkipped counts a tick abandoned for the given reason.
func RecordTickSkipped(reason string) {
	globalManager.ticksSkipped.WithLabelValues(reason).Inc()
}

// RecordTickDuration observes full tick latency.
func RecordTickDuration(latencyMs float64) {
	globalManager.tickDuration.Observe(latencyMs)
}

// RecordAction counts a submitted action by type.
func RecordAction(action string) {
	globalManager.actionsTotal.WithLabelValues(action).Inc()
}

// RecordAPIRequest counts a game API call outcome.
func RecordAPIRequest(op, outcome string) {
	globalManager.apiRequests.WithLabelValues(op, outcome).Inc()
}

// RecordAPIRequestDuration observes game API latency.
func RecordAPIRequestDuration(op string, latencyMs float64) {
	globalManager.apiRequestDuration.WithLabelValues(op).Observe(latencyMs)
}

// RecordAPIError counts a game API failure by error kind.
func RecordAPIError(kind string) {
	globalManager.apiErrors.WithLabelValues(kind).Inc()
}

// RecordMatchStarted counts a joined match.
func RecordMatchStarted() {
	globalManager.matchesStarted.Inc()
}

// RecordMatchFinished counts a concluded match by result.
func RecordMatchFinished(result string) {
	globalManager.matchesFinished.WithLabelValues(result).Inc()
}

// RecordKill counts a confirmed kill.
func RecordKill() {
	globalManager.killsTotal.Inc()
}

// UpdateRegionCount sets the tracked region gauge.
func UpdateRegionCount(count int) {
	globalManager.regionCount.Set(float64(count))
}

// UpdateRegionShardCount sets the region store shard gauge.
func UpdateRegionShardCount(count int) {
	globalManager.regionShardCount.Set(float64(count))
}

// RecordRegionEvent counts an applied region event by kind.
func RecordRegionEvent(kind string) {
	globalManager.regionEvents.WithLabelValues(kind).Inc()
}

// RecordPersistenceError counts a failed external score write.
func RecordPersistenceError() {
	globalManager.persistenceErrors.Inc()
}

// UpdateQueueSize sets the outcome queue depth gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the outcome queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueDrop counts an outcome event dropped before application.
func RecordQueueDrop() {
	globalManager.queueDropped.Inc()
}

// RecordEventApplied counts an outcome event folded into the table.
func RecordEventApplied() {
	globalManager.eventsApplied.Inc()
}

// RecordEventDuplicate counts an outcome event discarded as seen.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordApplyLatency observes event application latency.
func RecordApplyLatency(latencyMs float64) {
	globalManager.applyLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts an ops HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes ops HTTP latency.
func RecordHTTPRequestDuration(endpoint, method, status string, latencyMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the live goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
