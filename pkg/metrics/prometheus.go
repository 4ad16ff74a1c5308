// Package metrics provides Prometheus metrics for the storyloom service.
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

// Manager manages all Prometheus metrics for the storyloom service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline metrics
	pipelineRuns         *prometheus.CounterVec
	pipelinePasses       *prometheus.CounterVec
	pipelinePassDuration *prometheus.HistogramVec
	evaluationScore      prometheus.Histogram
	revisionCycles       prometheus.Histogram
	revisionsApplied     prometheus.Counter
	revisionsSkipped     prometheus.Counter

	// Upstream AI metrics
	llmRequests      *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	transportRetries *prometheus.CounterVec
	imageRequests    *prometheus.CounterVec
	artifactsStored  *prometheus.CounterVec

	// Job metrics
	jobsSubmitted prometheus.Counter
	jobsDuplicate prometheus.Counter
	jobsActive    prometheus.Gauge
	jobsStored    prometheus.Gauge
	streamClients prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerBusyCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
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

// Configure replaces the global manager with one built from opts on a
// fresh registry. Call it once at startup, before anything is recorded.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// RefreshInterval is the gauge refresh cadence of the global manager.
func RefreshInterval() time.Duration { return globalManager.refreshInterval }

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "storyloom",
		subsystem:        "pipeline",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
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

// Enabled reports whether recorders on this manager are active.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is the cadence for gauge refresh loops.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string { return m.metricPrefix + n }

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

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.pipelineRuns = auto.NewCounterVec(m.counterOpts("runs_total",
		"Pipeline runs by outcome (succeeded, failed, cancelled, invalid)"), []string{"outcome"})
	m.pipelinePasses = auto.NewCounterVec(m.counterOpts("passes_total",
		"Pipeline passes by name and outcome"), []string{"pass", "outcome"})
	m.pipelinePassDuration = auto.NewHistogramVec(m.histogramOpts("pass_duration_milliseconds",
		"Duration of pipeline passes in milliseconds", m.histogramBuckets), []string{"pass"})
	m.evaluationScore = auto.NewHistogram(m.histogramOpts("evaluation_score",
		"Overall score reported by story evaluations",
		[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1}))
	m.revisionCycles = auto.NewHistogram(m.histogramOpts("revision_cycles",
		"Revision cycles performed per run", []float64{0, 1, 2, 3, 4, 5, 8}))
	m.revisionsApplied = auto.NewCounter(m.counterOpts("revisions_applied_total",
		"Sentence revisions applied to stories"))
	m.revisionsSkipped = auto.NewCounter(m.counterOpts("revisions_skipped_total",
		"Sentence revisions selected but not applied"))

	m.llmRequests = auto.NewCounterVec(m.counterOpts("llm_requests_total",
		"Chat completion requests by backend and outcome"), []string{"backend", "outcome"})
	m.llmLatency = auto.NewHistogramVec(m.histogramOpts("llm_latency_milliseconds",
		"Chat completion latency in milliseconds", m.histogramBuckets), []string{"backend"})
	m.transportRetries = auto.NewCounterVec(m.counterOpts("transport_retries_total",
		"Retried upstream HTTP attempts by reason"), []string{"reason"})
	m.imageRequests = auto.NewCounterVec(m.counterOpts("image_requests_total",
		"Text-to-image requests by outcome"), []string{"outcome"})
	m.artifactsStored = auto.NewCounterVec(m.counterOpts("artifacts_stored_total",
		"Illustrations written to the artifact store by backend"), []string{"backend"})

	m.jobsSubmitted = auto.NewCounter(m.counterOpts("jobs_submitted_total",
		"Story jobs accepted for processing"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total",
		"Story submissions answered from the idempotency index"))
	m.jobsActive = auto.NewGauge(m.gaugeOpts("jobs_active",
		"Story jobs currently running"))
	m.jobsStored = auto.NewGauge(m.gaugeOpts("jobs_stored",
		"Story jobs held by the repository"))
	m.streamClients = auto.NewGauge(m.gaugeOpts("stream_clients",
		"Connected websocket event stream clients"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}), []string{"endpoint", "method", "status_code"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of jobs in queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum capacity of the job queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Queue utilization as ratio of current size to capacity"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of enqueue operations"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of dequeue operations"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts("queue_processing_latency_milliseconds",
		"Queue enqueue latency in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers in the pool"))
	m.workerBusyCount = auto.NewGauge(m.gaugeOpts("worker_busy_count", "Number of workers running a job"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"End-to-end job processing latency in milliseconds", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Jobs that finished with an error"))

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Total number of errors by component"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Total number of errors by error type"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Total number of errors by HTTP endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds",
		"Latency of requests that resulted in errors",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Pipeline metrics.

// RecordPipelineRun counts a finished pipeline run by outcome.
func RecordPipelineRun(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.pipelineRuns.WithLabelValues(outcome).Inc()
}

// RecordPass records one pipeline pass.
func RecordPass(pass string, ok bool, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	globalManager.pipelinePasses.WithLabelValues(pass, outcome).Inc()
	globalManager.pipelinePassDuration.WithLabelValues(pass).Observe(latencyMs)
}

// RecordEvaluationScore observes an evaluation's overall score.
func RecordEvaluationScore(score float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.evaluationScore.Observe(score)
}

// RecordRevisionCycles observes the revision cycles of a finished run.
func RecordRevisionCycles(cycles int) {
	if !globalManager.enabled {
		return
	}
	globalManager.revisionCycles.Observe(float64(cycles))
}

// RecordRevisions counts applied and skipped sentence revisions.
func RecordRevisions(applied, skipped int) {
	if !globalManager.enabled {
		return
	}
	globalManager.revisionsApplied.Add(float64(applied))
	globalManager.revisionsSkipped.Add(float64(skipped))
}

// Upstream metrics.

// RecordLLMRequest records a chat completion call.
func RecordLLMRequest(backend, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.llmRequests.WithLabelValues(backend, outcome).Inc()
	globalManager.llmLatency.WithLabelValues(backend).Observe(latencyMs)
}

// RecordTransportRetry counts a retried upstream attempt.
func RecordTransportRetry(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.transportRetries.WithLabelValues(reason).Inc()
}

// RecordImageRequest counts a text-to-image call.
func RecordImageRequest(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.imageRequests.WithLabelValues(outcome).Inc()
}

// RecordArtifactStored counts an illustration write.
func RecordArtifactStored(backend string) {
	if !globalManager.enabled {
		return
	}
	globalManager.artifactsStored.WithLabelValues(backend).Inc()
}

// Job metrics.

// RecordJobSubmitted increments the accepted jobs counter.
func RecordJobSubmitted() {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsSubmitted.Inc()
}

// RecordJobDuplicate increments the duplicate submissions counter.
func RecordJobDuplicate() {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsDuplicate.Inc()
}

// UpdateJobsActive sets the running jobs gauge.
func UpdateJobsActive(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsActive.Set(float64(count))
}

// UpdateJobsStored sets the stored jobs gauge.
func UpdateJobsStored(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.jobsStored.Set(float64(count))
}

// UpdateStreamClients adjusts the websocket client gauge by delta.
func UpdateStreamClients(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.streamClients.Add(float64(delta))
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !globalManager.enabled {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerActiveCount sets the worker pool size gauge.
func UpdateWorkerActiveCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerBusyCount adjusts the busy worker gauge by delta.
func UpdateWorkerBusyCount(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerBusyCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records job processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !globalManager.enabled {
		return
	}
	globalManager.workerErrors.Inc()
}

// Error metrics.

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records error latency.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry for serving metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
