package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session engine metrics.
var (
	SessionPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_stack_pushes_total",
			Help: "Total number of states pushed onto the navigation stack",
		},
		[]string{"menu"},
	)

	SessionPops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_stack_pops_total",
			Help: "Total number of states popped off the navigation stack",
		},
		[]string{"directive"},
	)

	SessionStackDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_stack_depth",
			Help: "Current depth of the navigation stack",
		},
	)

	SessionHandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_handler_duration_seconds",
			Help:    "Duration of a single menu handler invocation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"menu"},
	)

	SessionCrashBackups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_crash_backups_total",
			Help: "Total number of crash-backup snapshots written before a risky operation",
		},
	)

	SessionResumes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_resumes_total",
			Help: "Total number of session resumes at startup, by outcome",
		},
		[]string{"outcome"}, // "clean", "recovered_from_backup", "fresh"
	)
)

// Registry store metrics.
var (
	RegistrySaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_saves_total",
			Help: "Total number of MediaRecord atomic writes",
		},
		[]string{"result"}, // "ok", "error"
	)

	RegistryLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_load_errors_total",
			Help: "Total number of MediaRecord load failures",
		},
		[]string{"reason"}, // "corrupt", "checksum_mismatch", "io"
	)

	RegistryQuarantined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_quarantined_records_total",
			Help: "Total number of records moved to quarantine during index repair",
		},
	)

	RegistryIndexRepairDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "registry_index_repair_duration_seconds",
			Help:    "Duration of a full index repair scan at startup",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	RegistryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_cache_hits_total",
			Help: "Total number of in-memory MediaRecord cache hits",
		},
	)

	RegistryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_cache_misses_total",
			Help: "Total number of in-memory MediaRecord cache misses",
		},
	)

	RegistryRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_records_total",
			Help: "Current number of MediaRecords tracked in the index",
		},
	)
)

// Worker pool metrics.
var (
	WorkerPoolTasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workerpool_tasks_submitted_total",
			Help: "Total number of tasks submitted to the worker pool",
		},
		[]string{"kind"},
	)

	WorkerPoolTasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workerpool_tasks_completed_total",
			Help: "Total number of worker pool tasks completed, by outcome",
		},
		[]string{"kind", "outcome"}, // "success", "error", "cancelled"
	)

	WorkerPoolActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workerpool_active_workers",
			Help: "Current number of busy worker goroutines",
		},
	)

	WorkerPoolQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workerpool_queue_depth",
			Help: "Current number of tasks waiting for a free worker",
		},
	)

	WorkerPoolTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workerpool_task_duration_seconds",
			Help:    "Duration of a worker pool task from submit to completion",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// Preview cache metrics.
var (
	PreviewCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_cache_hits_total",
			Help: "Total number of on-disk preview cache hits",
		},
		[]string{"kind"}, // "media", "episode"
	)

	PreviewCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_cache_misses_total",
			Help: "Total number of on-disk preview cache misses requiring a fetch",
		},
		[]string{"kind"},
	)

	PreviewFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_fetch_duration_seconds",
			Help:    "Duration of a preview asset fetch from the media API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	PreviewFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_fetch_errors_total",
			Help: "Total number of preview fetch failures",
		},
		[]string{"kind"},
	)
)

// Download queue metrics.
var (
	DownloadQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "download_queue_depth",
			Help: "Current number of episodes waiting in the download queue",
		},
	)

	DownloadsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_completed_total",
			Help: "Total number of episode downloads completed, by outcome",
		},
		[]string{"outcome"}, // "success", "error", "cancelled"
	)

	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "download_bytes_total",
			Help: "Total number of bytes written to disk across all downloads",
		},
	)
)

// External collaborator circuit breaker metrics, shared by the media API
// client and every anime provider client.
var (
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through a circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures seen by a circuit breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	ExternalRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_request_duration_seconds",
			Help:    "Duration of a request to an external collaborator (media API, provider)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collaborator"},
	)

	RateLimiterWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_waits_total",
			Help: "Total number of requests that had to wait for a rate limiter token",
		},
		[]string{"collaborator"},
	)
)

// System metrics.
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordSessionHandler records a single menu handler invocation.
func RecordSessionHandler(menu string, duration time.Duration) {
	SessionHandlerDuration.WithLabelValues(menu).Observe(duration.Seconds())
}

// RecordRegistrySave records the outcome of a MediaRecord atomic write.
func RecordRegistrySave(err error) {
	if err != nil {
		RegistrySaves.WithLabelValues("error").Inc()
		return
	}
	RegistrySaves.WithLabelValues("ok").Inc()
}

// RecordWorkerPoolTask records a completed worker pool task.
func RecordWorkerPoolTask(kind, outcome string, duration time.Duration) {
	WorkerPoolTasksCompleted.WithLabelValues(kind, outcome).Inc()
	WorkerPoolTaskDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordPreviewFetch records a preview cache miss that required a fetch.
func RecordPreviewFetch(kind string, duration time.Duration, err error) {
	if err != nil {
		PreviewFetchErrors.WithLabelValues(kind).Inc()
		return
	}
	PreviewFetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordDownloadCompleted records a finished download task outcome.
func RecordDownloadCompleted(outcome string, bytesWritten int64) {
	DownloadsCompleted.WithLabelValues(outcome).Inc()
	if bytesWritten > 0 {
		DownloadBytesTotal.Add(float64(bytesWritten))
	}
}

// RecordExternalRequest records the latency of a call to an external
// collaborator, regardless of the outcome the circuit breaker assigned it.
func RecordExternalRequest(collaborator string, duration time.Duration) {
	ExternalRequestDuration.WithLabelValues(collaborator).Observe(duration.Seconds())
}
