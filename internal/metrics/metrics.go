package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskspace_examiner_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskspace_examiner_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	DBFoldersStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_db_folders_stored",
			Help: "Number of folder rows written by the last save",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskspace_examiner_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by scan root and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_filesystem_operation_errors_total",
			Help: "Filesystem operations that returned an error",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Scan metrics
var (
	ScanSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_scan_sessions_total",
			Help: "Scan sessions by root and outcome",
		},
		[]string{"root", "status"}, // "started", "completed", "cancelled", "failed"
	)

	ScanActivity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_scan_activity",
			Help: "Current scan activity per root (1 for the active state)",
		},
		[]string{"root", "activity"},
	)

	ScanPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_scan_passes_total",
			Help: "Top-level scan passes by kind",
		},
		[]string{"pass"}, // "structural", "new_only", "rescan"
	)

	ScanPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskspace_examiner_scan_pass_duration_seconds",
			Help:    "Duration of top-level scan passes",
			Buckets: []float64{0.01, 0.1, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"pass"},
	)

	ScanInterruptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_scan_interruptions_total",
			Help: "Tabulation passes that returned before completing the root",
		},
		[]string{"pass"},
	)

	ScanCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_scan_commits_total",
			Help: "Persistence commits made by scan sessions",
		},
		[]string{"kind"}, // "partial", "final"
	)

	ScanFilesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_scan_files_scanned_total",
			Help: "Files tabulated across all sessions",
		},
	)

	ScanFoldersScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_scan_folders_scanned_total",
			Help: "Folders finalized across all sessions",
		},
	)

	ScanCulledNodes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diskspace_examiner_scan_culled_nodes_total",
			Help: "Folders whose child detail was discarded",
		},
	)

	ScanLastDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_scan_last_duration_seconds",
			Help: "Duration of the last finished session per root",
		},
		[]string{"root"},
	)

	ScanLastTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_scan_last_timestamp",
			Help: "Unix time the last session per root finished",
		},
		[]string{"root"},
	)
)

// Aggregate metrics, refreshed by the Collector
var (
	RootSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_root_size_bytes",
			Help: "Allocated bytes under each scan root",
		},
		[]string{"root"},
	)

	RootFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_root_files",
			Help: "Files under each scan root",
		},
		[]string{"root"},
	)

	RootFolders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_root_folders",
			Help: "Folders under each scan root",
		},
		[]string{"root"},
	)

	SessionFilesScanned = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_session_files_scanned",
			Help: "Files tabulated by the current or last session per root",
		},
		[]string{"root"},
	)

	SessionFoldersScanned = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_session_folders_scanned",
			Help: "Folders finalized by the current or last session per root",
		},
		[]string{"root"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskspace_examiner_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// SetActivity marks activity as the only active state for root.
func SetActivity(root, activity string, all []string) {
	for _, a := range all {
		v := 0.0
		if a == activity {
			v = 1
		}
		ScanActivity.WithLabelValues(root, a).Set(v)
	}
}
