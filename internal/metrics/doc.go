/*
Package metrics provides Prometheus metrics collection for the session
engine, registry store, worker pool, preview cache, and download queue.

# Metrics endpoint

When METRICS_ADDR is configured, metrics are exposed in Prometheus text
format at /metrics on that address; otherwise no HTTP listener is started.

	curl http://localhost:9090/metrics

# Available metrics

Session engine:
  - session_stack_pushes_total / session_stack_pops_total (counter, labels: menu/directive)
  - session_stack_depth (gauge)
  - session_handler_duration_seconds (histogram, label: menu)
  - session_crash_backups_total (counter)
  - session_resumes_total (counter, label: outcome)

Registry store:
  - registry_saves_total (counter, label: result)
  - registry_load_errors_total (counter, label: reason)
  - registry_quarantined_records_total (counter)
  - registry_index_repair_duration_seconds (histogram)
  - registry_cache_hits_total / registry_cache_misses_total (counter)
  - registry_records_total (gauge)

Worker pool:
  - workerpool_tasks_submitted_total (counter, label: kind)
  - workerpool_tasks_completed_total (counter, labels: kind, outcome)
  - workerpool_active_workers / workerpool_queue_depth (gauge)
  - workerpool_task_duration_seconds (histogram, label: kind)

Preview cache:
  - preview_cache_hits_total / preview_cache_misses_total (counter, label: kind)
  - preview_fetch_duration_seconds (histogram, label: kind)
  - preview_fetch_errors_total (counter, label: kind)

Download queue:
  - download_queue_depth (gauge)
  - downloads_completed_total (counter, label: outcome)
  - download_bytes_total (counter)

External collaborators (media API, providers), shared circuit breaker
instrumentation:
  - circuit_breaker_state (gauge, label: name; 0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total (counter, labels: name, result)
  - circuit_breaker_consecutive_failures (gauge, label: name)
  - circuit_breaker_state_transitions_total (counter, labels: name, from_state, to_state)
  - external_request_duration_seconds (histogram, label: collaborator)
  - rate_limiter_waits_total (counter, label: collaborator)

# Usage

	metrics.RecordRegistrySave(err)
	metrics.RecordWorkerPoolTask("download", "success", elapsed)
	metrics.RecordPreviewFetch("episode", elapsed, err)

# Thread safety

All metric recording functions are safe for concurrent use; the Prometheus
client library synchronizes internally.
*/
package metrics
