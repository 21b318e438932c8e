package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Competition
	attemptsRecorded  *prometheus.CounterVec
	attemptsInvalid   *prometheus.CounterVec
	attemptsDuplicate prometheus.Counter
	attemptsRejected  *prometheus.CounterVec
	athletesTotal     prometheus.Gauge
	athletesScored    prometheus.Gauge

	// Scoring
	scoringRuns    prometheus.Counter
	scoringLatency prometheus.Histogram

	// Store and cache
	storeLatency *prometheus.HistogramVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	breakerState *prometheus.GaugeVec

	// Write-back queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerWriteLatency prometheus.Histogram
	workerErrors       prometheus.Counter
	pointsWrittenBack  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "klv",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

//nolint:funlen // one place for every collector
func (m *Manager) initializeMetrics() {
	m.attemptsRecorded = m.counterVec("attempts_recorded_total", "Attempts recorded by discipline", "discipline")
	m.attemptsInvalid = m.counterVec("attempts_invalid_total", "Attempts recorded as invalid by discipline", "discipline")
	m.attemptsDuplicate = m.counter("attempts_duplicate_total", "Attempt submissions dropped as duplicates")
	m.attemptsRejected = m.counterVec("attempts_rejected_total", "Attempt submissions rejected by reason", "reason")
	m.athletesTotal = m.gauge("athletes_total", "Athletes in the roster")
	m.athletesScored = m.gauge("athletes_scored", "Athletes with a resolvable cohort in the last scoring run")

	m.scoringRuns = m.counter("scoring_runs_total", "Scoring engine runs over a roster snapshot")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Scoring engine run latency in milliseconds")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Roster store call latency in milliseconds", "backend", "op")
	m.cacheHits = m.counter("standings_cache_hits_total", "Standings cache hits")
	m.cacheMisses = m.counter("standings_cache_misses_total", "Standings cache misses")
	m.breakerState = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)", ConstLabels: m.constLabels,
	}, []string{"name"})

	m.queueSize = m.gauge("writeback_queue_size", "Pending point write-back jobs")
	m.queueCapacity = m.gauge("writeback_queue_capacity", "Point write-back queue capacity")
	m.queueEnqueueErrors = m.counter("writeback_enqueue_errors_total", "Write-back jobs rejected by a full queue")
	m.workerCount = m.gauge("writeback_worker_count", "Running write-back workers")
	m.workerWriteLatency = m.histogram("writeback_latency_milliseconds", "Latency of a single point write-back in milliseconds")
	m.workerErrors = m.counter("writeback_errors_total", "Failed point write-backs")
	m.pointsWrittenBack = m.counter("writeback_total", "Points persisted onto athlete records")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Running goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds")
}

func (m *Manager) on() bool { return m != nil && m.enabled }

// Manager-level recorders. The package-level functions below forward to the
// global manager.

func (m *Manager) RecordAttempt(discipline string, invalid bool) {
	if !m.on() {
		return
	}
	m.attemptsRecorded.WithLabelValues(discipline).Inc()
	if invalid {
		m.attemptsInvalid.WithLabelValues(discipline).Inc()
	}
}

func (m *Manager) RecordAttemptDuplicate() {
	if m.on() {
		m.attemptsDuplicate.Inc()
	}
}

func (m *Manager) RecordAttemptRejected(reason string) {
	if m.on() {
		m.attemptsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Manager) UpdateAthletesTotal(n int) {
	if m.on() {
		m.athletesTotal.Set(float64(n))
	}
}

func (m *Manager) RecordScoringRun(latencyMs float64, scored int) {
	if !m.on() {
		return
	}
	m.scoringRuns.Inc()
	m.scoringLatency.Observe(latencyMs)
	m.athletesScored.Set(float64(scored))
}

func (m *Manager) RecordStoreLatency(backend, op string, latencyMs float64) {
	if m.on() {
		m.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
	}
}

func (m *Manager) RecordCacheLookup(hit bool) {
	if !m.on() {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

func (m *Manager) UpdateBreakerState(name string, state int) {
	if m.on() {
		m.breakerState.WithLabelValues(name).Set(float64(state))
	}
}

func (m *Manager) UpdateQueueSize(size int) {
	if m.on() {
		m.queueSize.Set(float64(size))
	}
}

func (m *Manager) UpdateQueueCapacity(capacity int) {
	if m.on() {
		m.queueCapacity.Set(float64(capacity))
	}
}

func (m *Manager) RecordQueueEnqueueError() {
	if m.on() {
		m.queueEnqueueErrors.Inc()
	}
}

func (m *Manager) UpdateWorkerCount(count int) {
	if m.on() {
		m.workerCount.Set(float64(count))
	}
}

func (m *Manager) RecordWriteBack(latencyMs float64, err error) {
	if !m.on() {
		return
	}
	m.workerWriteLatency.Observe(latencyMs)
	if err != nil {
		m.workerErrors.Inc()
		return
	}
	m.pointsWrittenBack.Inc()
}

func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.on() {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.on() {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.on() {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

func (m *Manager) UpdateSystem(memBytes uint64, goroutines int, gcPauseMs float64) {
	if !m.on() {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if gcPauseMs > 0 {
		m.systemGCPauseTime.Observe(gcPauseMs)
	}
}

// Package-level helpers on the global manager.

func RecordAttempt(discipline string, invalid bool) {
	globalManager.RecordAttempt(discipline, invalid)
}

func RecordAttemptDuplicate() {
	globalManager.RecordAttemptDuplicate()
}

func RecordAttemptRejected(reason string) {
	globalManager.RecordAttemptRejected(reason)
}

func UpdateAthletesTotal(n int) {
	globalManager.UpdateAthletesTotal(n)
}

func RecordScoringRun(latencyMs float64, scored int) {
	globalManager.RecordScoringRun(latencyMs, scored)
}

func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.RecordStoreLatency(backend, op, latencyMs)
}

func RecordCacheLookup(hit bool) {
	globalManager.RecordCacheLookup(hit)
}

func UpdateBreakerState(name string, state int) {
	globalManager.UpdateBreakerState(name, state)
}

func UpdateQueueSize(size int) {
	globalManager.UpdateQueueSize(size)
}

func UpdateQueueCapacity(capacity int) {
	globalManager.UpdateQueueCapacity(capacity)
}

func RecordQueueEnqueueError() {
	globalManager.RecordQueueEnqueueError()
}

func UpdateWorkerCount(count int) {
	globalManager.UpdateWorkerCount(count)
}

func RecordWriteBack(latencyMs float64, err error) {
	globalManager.RecordWriteBack(latencyMs, err)
}

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

func UpdateSystem(memBytes uint64, goroutines int, gcPauseMs float64) {
	globalManager.UpdateSystem(memBytes, goroutines, gcPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
