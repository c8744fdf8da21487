// Package metrics provides Prometheus instrumentation for diskspace-examiner.
//
// All metrics are registered with promauto on the default registry and are
// prefixed with "diskspace_examiner_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Database Metrics
//   - DBQueryTotal, DBQueryDuration: per operation
//   - DBSizeBytes: SQLite main, WAL and SHM file sizes
//   - DBFoldersStored: rows written by the last save
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver:
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemStaleErrors
//
// ## Scan Metrics
//   - ScanSessionsTotal: sessions by root and outcome
//   - ScanActivity: one-hot gauge of each root's current activity
//   - ScanPassesTotal, ScanPassDuration, ScanInterruptionsTotal
//   - ScanCommitsTotal: partial and final commits
//   - ScanFilesScanned, ScanFoldersScanned, ScanCulledNodes
//   - ScanLastDuration, ScanLastTimestamp
//
// ## Aggregates
//
// Refreshed by the Collector from a StatsProvider:
//   - RootSizeBytes, RootFiles, RootFolders
//   - SessionFilesScanned, SessionFoldersScanned
//
// # Usage
//
//	metrics.InitializeMetrics(rootLabels)
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	collector := metrics.NewCollector(supervisor, db, 30*time.Second)
//	collector.Start()
//	defer collector.Stop()
package metrics
