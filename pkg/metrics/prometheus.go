// Package metrics provides Prometheus metrics for the pwnwatch tracker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tracker.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pass metrics
	cyclesTotal    *prometheus.CounterVec
	cycleDuration  *prometheus.HistogramVec
	lastCycleUnix  *prometheus.GaugeVec
	pollInterval   prometheus.Gauge
	membersTracked prometheus.Gauge

	// Roster and activity
	rosterChanges      *prometheus.CounterVec
	watermarkSeeded    prometheus.Counter
	watermarkAdvanced  prometheus.Counter
	eventsDetected     prometheus.Counter
	malformedRecords   *prometheus.CounterVec
	fetchErrors        *prometheus.CounterVec
	platformRequests   *prometheus.CounterVec
	platformLatency    prometheus.Histogram
	platformRetries    prometheus.Counter
	storeErrors        *prometheus.CounterVec

	// Notification queue and dispatch
	queueSize               prometheus.Gauge
	notificationsEnqueued   prometheus.Counter
	notificationsDispatched prometheus.Counter
	notificationsFailed     prometheus.Counter
	notificationsSuppressed prometheus.Counter
	dispatchLatency         prometheus.Histogram

	// Ranking
	rankingPasses     *prometheus.CounterVec
	snapshotsAppended *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pwnwatch",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// NewMetricsManager is an alias of NewManager.
func NewMetricsManager(opts ...Option) *Manager { return NewManager(opts...) }

// RefreshInterval reports how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.cyclesTotal = auto.NewCounterVec(
		m.counterOpts("cycles_total", "Passes run by cadence and outcome"),
		[]string{"cadence", "outcome"},
	)
	m.cycleDuration = auto.NewHistogramVec(
		m.histogramOpts("cycle_duration_seconds", "Pass duration in seconds"),
		[]string{"cadence"},
	)
	m.lastCycleUnix = auto.NewGaugeVec(
		m.gaugeOpts("last_cycle_unix", "Unix time of the last finished pass"),
		[]string{"cadence"},
	)
	m.pollInterval = auto.NewGauge(m.gaugeOpts("poll_interval_seconds", "Current wait before the next fast tick"))
	m.membersTracked = auto.NewGauge(m.gaugeOpts("members_tracked", "Members in the local roster"))

	m.rosterChanges = auto.NewCounterVec(
		m.counterOpts("roster_changes_total", "Roster reconciliation writes by operation"),
		[]string{"op"},
	)
	m.watermarkSeeded = auto.NewCounter(m.counterOpts("watermark_seeded_total", "Members whose watermark was seeded on first observation"))
	m.watermarkAdvanced = auto.NewCounter(m.counterOpts("watermark_advanced_total", "Watermark writes that moved a member forward"))
	m.eventsDetected = auto.NewCounter(m.counterOpts("events_detected_total", "Activity events newer than the stored watermark"))
	m.malformedRecords = auto.NewCounterVec(
		m.counterOpts("malformed_records_total", "Remote records skipped as malformed"),
		[]string{"source"},
	)
	m.fetchErrors = auto.NewCounterVec(
		m.counterOpts("fetch_errors_total", "Remote fetch failures by component"),
		[]string{"component"},
	)
	m.platformRequests = auto.NewCounterVec(
		m.counterOpts("platform_requests_total", "Platform API requests by endpoint and status"),
		[]string{"endpoint", "status_code"},
	)
	m.platformLatency = auto.NewHistogram(m.histogramOpts("platform_request_duration_seconds", "Platform API request latency"))
	m.platformRetries = auto.NewCounter(m.counterOpts("platform_retries_total", "Platform API retries after 429 or 5xx"))
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Row store failures by operation"),
		[]string{"op"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Notifications waiting in the chronological queue"))
	m.notificationsEnqueued = auto.NewCounter(m.counterOpts("notifications_enqueued_total", "Notifications pushed to the queue"))
	m.notificationsDispatched = auto.NewCounter(m.counterOpts("notifications_dispatched_total", "Notifications handed to the dispatcher"))
	m.notificationsFailed = auto.NewCounter(m.counterOpts("notifications_failed_total", "Notifications the dispatcher rejected"))
	m.notificationsSuppressed = auto.NewCounter(m.counterOpts("notifications_suppressed_total", "Notifications refused by the dispatch ledger"))
	m.dispatchLatency = auto.NewHistogram(m.histogramOpts("dispatch_latency_seconds", "Dispatcher call latency"))

	m.rankingPasses = auto.NewCounterVec(
		m.counterOpts("ranking_passes_total", "Ranking passes by outcome"),
		[]string{"outcome"},
	)
	m.snapshotsAppended = auto.NewCounterVec(
		m.counterOpts("snapshots_appended_total", "Ranking snapshots appended by scope"),
		[]string{"scope"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP error responses by endpoint and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordCycle records a finished pass for a cadence ("fast" or "slow").
func RecordCycle(cadence, outcome string, took time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.cyclesTotal.WithLabelValues(cadence, outcome).Inc()
	globalManager.cycleDuration.WithLabelValues(cadence).Observe(took.Seconds())
	globalManager.lastCycleUnix.WithLabelValues(cadence).Set(float64(time.Now().Unix()))
}

// UpdatePollInterval sets the wait before the next fast tick.
func UpdatePollInterval(d time.Duration) {
	globalManager.pollInterval.Set(d.Seconds())
}

// UpdateMembersTracked sets the local roster size.
func UpdateMembersTracked(n int) {
	globalManager.membersTracked.Set(float64(n))
}

// RecordRosterChange counts a roster write ("insert", "update", "delete", "skip").
func RecordRosterChange(op string, n int) {
	if n <= 0 {
		return
	}
	globalManager.rosterChanges.WithLabelValues(op).Add(float64(n))
}

// RecordWatermarkSeeded counts a first-observation seed.
func RecordWatermarkSeeded() { globalManager.watermarkSeeded.Inc() }

// RecordWatermarkAdvanced counts a forward watermark write.
func RecordWatermarkAdvanced() { globalManager.watermarkAdvanced.Inc() }

// RecordEventsDetected counts new activity events.
func RecordEventsDetected(n int) {
	if n > 0 {
		globalManager.eventsDetected.Add(float64(n))
	}
}

// RecordMalformedRecord counts a skipped remote record by source ("roster", "activity", "stats").
func RecordMalformedRecord(source string) {
	globalManager.malformedRecords.WithLabelValues(source).Inc()
}

// RecordFetchError counts a failed remote fetch by component.
func RecordFetchError(component string) {
	globalManager.fetchErrors.WithLabelValues(component).Inc()
}

// RecordPlatformRequest records one platform API round trip.
func RecordPlatformRequest(endpoint, statusCode string, took time.Duration) {
	globalManager.platformRequests.WithLabelValues(endpoint, statusCode).Inc()
	globalManager.platformLatency.Observe(took.Seconds())
}

// RecordPlatformRetry counts a retried platform request.
func RecordPlatformRetry() { globalManager.platformRetries.Inc() }

// RecordStoreError counts a failed row store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordNotificationEnqueued counts a queued notification.
func RecordNotificationEnqueued() { globalManager.notificationsEnqueued.Inc() }

// RecordNotificationDispatched records a successful hand-off.
func RecordNotificationDispatched(took time.Duration) {
	globalManager.notificationsDispatched.Inc()
	globalManager.dispatchLatency.Observe(took.Seconds())
}

// RecordNotificationFailed counts a rejected hand-off.
func RecordNotificationFailed() { globalManager.notificationsFailed.Inc() }

// RecordNotificationSuppressed counts a hand-off refused as already sent.
func RecordNotificationSuppressed() { globalManager.notificationsSuppressed.Inc() }

// RecordRankingPass counts a ranking pass by outcome.
func RecordRankingPass(outcome string) {
	globalManager.rankingPasses.WithLabelValues(outcome).Inc()
}

// RecordSnapshotAppended counts an appended ranking snapshot ("team" or "member").
func RecordSnapshotAppended(scope string) {
	globalManager.snapshotsAppended.WithLabelValues(scope).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
