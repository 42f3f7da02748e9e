// Package metrics provides Prometheus metrics for the talentflow service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets covers the simulator range (200-1200ms) with headroom.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 200, 400, 600, 800, 1000, 1200, 1500, 2500} //nolint:gochecknoglobals // read-only default

// Manager manages all Prometheus metrics for the talentflow service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// Simulated network
	simulatedLatency  *prometheus.HistogramVec
	simulatedFailures *prometheus.CounterVec
	operations        *prometheus.CounterVec

	// Entity store
	storeLatency *prometheus.HistogramVec
	recordsTotal *prometheus.GaugeVec

	// Call queue and workers
	callQueueSize     prometheus.Gauge
	callQueueCapacity prometheus.Gauge
	callQueueWait     prometheus.Histogram
	workerCount       prometheus.Gauge
	workerBusy        prometheus.Gauge

	// Domain
	stageTransitions     *prometheus.CounterVec
	idempotentDuplicates prometheus.Counter

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "talentflow",
		subsystem:        "api",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds, simulated latency included", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.simulatedLatency = m.histogramVec("simulated_latency_milliseconds",
		"Injected latency per operation in milliseconds", "op")
	m.simulatedFailures = m.counterVec("simulated_failures_total",
		"Injected failures per operation", "op")
	m.operations = m.counterVec("operations_total",
		"Service operations by outcome", "op", "outcome")

	m.storeLatency = m.histogramVec("store_latency_milliseconds",
		"Entity store operation latency in milliseconds", "collection", "action")
	m.recordsTotal = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records",
		Help:        "Number of stored records per collection",
		ConstLabels: m.constLabels,
	}, []string{"collection"})

	m.callQueueSize = m.gauge("call_queue_size", "Calls waiting for a worker")
	m.callQueueCapacity = m.gauge("call_queue_capacity", "Capacity of the call queue")
	m.callQueueWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "call_queue_wait_milliseconds",
		Help:        "Time a call spent queued before a worker picked it up",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
	m.workerCount = m.gauge("worker_count", "Number of call workers")
	m.workerBusy = m.gauge("worker_busy", "Number of workers currently executing a call")

	m.stageTransitions = m.counterVec("stage_transitions_total",
		"Recorded pipeline stage transitions", "collection", "stage")
	m.idempotentDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "idempotent_duplicates_total",
		Help:        "Create requests rejected because their Idempotency-Key was already seen",
		ConstLabels: m.constLabels,
	})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause in milliseconds",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
		ConstLabels: m.constLabels,
	})
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Simulator Metrics Functions.

// RecordSimulatedLatency records the delay injected before an operation.
func RecordSimulatedLatency(op string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.simulatedLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordSimulatedFailure increments the injected failure counter for op.
func RecordSimulatedFailure(op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.simulatedFailures.WithLabelValues(op).Inc()
}

// RecordOperation counts a finished service operation. Outcome is ok or an error type.
func RecordOperation(op, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.operations.WithLabelValues(op, outcome).Inc()
}

// Store Metrics Functions.

// RecordStoreLatency records an entity store call.
func RecordStoreLatency(collection, action string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeLatency.WithLabelValues(collection, action).Observe(latencyMs)
}

// UpdateRecordsTotal sets the number of records held for a collection.
func UpdateRecordsTotal(collection string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recordsTotal.WithLabelValues(collection).Set(float64(count))
}

// Call Queue and Worker Metrics Functions.

// UpdateCallQueueSize sets the number of queued calls.
func UpdateCallQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.callQueueSize.Set(float64(size))
}

// UpdateCallQueueCapacity sets the queue capacity.
func UpdateCallQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.callQueueCapacity.Set(float64(capacity))
}

// RecordCallQueueWait records how long a call waited in the queue.
func RecordCallQueueWait(waitMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.callQueueWait.Observe(waitMs)
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// IncWorkerBusy marks a worker as executing a call.
func IncWorkerBusy() {
	if !globalManager.enabled {
		return
	}
	globalManager.workerBusy.Inc()
}

// DecWorkerBusy marks a worker as idle again.
func DecWorkerBusy() {
	if !globalManager.enabled {
		return
	}
	globalManager.workerBusy.Dec()
}

// Domain Metrics Functions.

// RecordStageTransition counts a stage history append.
func RecordStageTransition(collection, stage string) {
	if !globalManager.enabled {
		return
	}
	globalManager.stageTransitions.WithLabelValues(collection, stage).Inc()
}

// RecordIdempotentDuplicate counts a rejected replay of an Idempotency-Key.
func RecordIdempotentDuplicate() {
	if !globalManager.enabled {
		return
	}
	globalManager.idempotentDuplicates.Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
