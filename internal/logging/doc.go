// Package logging provides the leveled logger used by the scanner service,
// the HTTP layer, and the dse command.
//
// Levels, from most to least verbose:
//   - DEBUG: per-directory pass tracing, route tables, SQL timings
//   - INFO: session lifecycle, commits, configuration
//   - WARN: recoverable problems (unreadable config values, slow commits)
//   - ERROR: session faults and failed persistence writes
//   - FATAL: startup failures; the process exits
//
// The level comes from LOG_LEVEL (debug, info, warn, error), or DEBUG=true
// as a shortcut for debug. Output goes to stderr unless SetOutput is called.
package logging
