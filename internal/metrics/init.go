package metrics

import "slices"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(volumes []string) {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	// --- Filesystem metrics (per volume × operation) ---
	volumes = append(slices.Clone(volumes), "unknown")
	for _, vol := range volumes {
		for _, op := range []string{"stat", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	// --- Scan passes ---
	for _, pass := range []string{"structural", "new_only", "rescan"} {
		ScanPassesTotal.WithLabelValues(pass)
		ScanPassDuration.WithLabelValues(pass)
		ScanInterruptionsTotal.WithLabelValues(pass)
	}
	for _, kind := range []string{"partial", "final"} {
		ScanCommitsTotal.WithLabelValues(kind)
	}

	// --- DB query operations ---
	for _, op := range []string{"initialize_schema", "find", "load_tree", "save",
		"list_roots", "get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
