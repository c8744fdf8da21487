package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "WALK_WORKERS"

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count. Use 0 for no limit.
//
// Can be overridden with the WALK_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForWalk returns worker count for directory walks, which mostly wait on
// metadata reads (2 per CPU).
func ForWalk(limit int) int {
	return Count(2.0, limit)
}
