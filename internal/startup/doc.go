// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read from environment variables by [LoadConfig]:
//
//   - SCAN_ROOTS: Directories to scan, separated like PATH (required)
//   - DATABASE_DIR: Directory holding the SQLite database (default: /database)
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - RESCAN_INTERVAL: Time between scan cycles as Go duration, 0 disables (default: 6h)
//   - COMMIT_INTERVAL: Minimum time between partial commits during a scan (default: 2m)
//   - PROGRESS_INTERVAL: How often scan progress counters are published (default: 5s)
//   - DELTA_THRESHOLD: Size change that interrupts tabulation, e.g. "1 GiB" (default: 1 GiB)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// If CONFIG_FILE names a YAML file, the values it sets replace the ones from
// the environment:
//
//	roots:
//	  - /srv/data
//	  - /home
//	rescan_interval: 12h
//	delta_threshold: 512 MiB
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// [LogDatabaseInit], [LogSupervisorInit], [LogMemoryConfig], [LogHTTPRoutes],
// [LogServerStarted] and the shutdown helpers print the sectioned startup
// log shared by the server binary.
package startup
