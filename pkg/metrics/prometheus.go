// Package metrics provides Prometheus metrics for the epifetch acquisition layer.
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

// Manager manages all Prometheus metrics for the acquisition layer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Acquisition metrics - one fetch is one upstream acquisition attempt.
	fetchesTotal    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fallbacksTotal  *prometheus.CounterVec
	recordsAcquired *prometheus.CounterVec

	// District fan-out metrics.
	districtQueries     prometheus.Counter
	districtQueryErrors prometheus.Counter
	quotaViolations     prometheus.Counter
	fetchWorkers        prometheus.Gauge

	// Snapshot metrics - git time-travel resolution.
	snapshotResolveDuration prometheus.Histogram
	snapshotCommitUnix      prometheus.Gauge

	// Error metrics by component.
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "epifetch",
		subsystem:        "acquire",
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.fetchesTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetches_total",
			Help:      "Total number of upstream fetches by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	m.fetchDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Histogram of upstream fetch duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"source"},
	)

	m.fallbacksTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fallbacks_total",
			Help:      "Total number of degradations to the bundled fallback dataset",
		},
		[]string{"source", "reason"},
	)

	m.recordsAcquired = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "records_acquired_total",
			Help:      "Total number of records accumulated per source",
		},
		[]string{"source"},
	)

	m.districtQueries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "district_queries_total",
		Help:      "Total number of per-district upstream queries issued",
	})

	m.districtQueryErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "district_query_errors_total",
		Help:      "Total number of per-district queries that failed (partial failures)",
	})

	m.quotaViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_violations_total",
		Help:      "Total number of district result sets that exceeded the record limit",
	})

	m.fetchWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_workers",
		Help:      "Number of concurrent fetch workers in the district fan-out",
	})

	m.snapshotResolveDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_resolve_duration_seconds",
		Help:      "Duration of historical snapshot resolution (clone, lookup, checkout)",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotCommitUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_commit_unix",
		Help:      "Commit timestamp of the last resolved historical snapshot",
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// RecordFetch records a completed upstream fetch with its outcome
// ("remote" or "fallback").
func RecordFetch(source, outcome string) {
	globalManager.fetchesTotal.WithLabelValues(source, outcome).Inc()
}

// RecordFetchDuration records how long an upstream fetch took.
func RecordFetchDuration(source string, d time.Duration) {
	globalManager.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordFallback records a degradation to the bundled fallback dataset.
func RecordFallback(source, reason string) {
	globalManager.fallbacksTotal.WithLabelValues(source, reason).Inc()
}

// RecordRecordsAcquired adds to the per-source record counter.
func RecordRecordsAcquired(source string, n int) {
	globalManager.recordsAcquired.WithLabelValues(source).Add(float64(n))
}

// RecordDistrictQuery increments the per-district query counter.
func RecordDistrictQuery() {
	globalManager.districtQueries.Inc()
}

// RecordDistrictQueryError increments the partial-failure counter.
func RecordDistrictQueryError() {
	globalManager.districtQueryErrors.Inc()
}

// RecordQuotaViolation increments the record-limit violation counter.
func RecordQuotaViolation() {
	globalManager.quotaViolations.Inc()
}

// UpdateFetchWorkers sets the current fan-out worker count.
func UpdateFetchWorkers(count int) {
	globalManager.fetchWorkers.Set(float64(count))
}

// RecordSnapshotResolveDuration records a snapshot resolution duration.
func RecordSnapshotResolveDuration(d time.Duration) {
	globalManager.snapshotResolveDuration.Observe(d.Seconds())
}

// UpdateSnapshotCommitTime sets the commit time of the last resolved snapshot.
func UpdateSnapshotCommitTime(t time.Time) {
	globalManager.snapshotCommitUnix.Set(float64(t.Unix()))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
