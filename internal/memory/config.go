package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"diskspace-examiner/internal/logging"

	"github.com/dustin/go-humanize"
)

const (
	// DefaultMemoryRatio is the share of the container limit given to the Go
	// heap. The rest covers goroutine stacks, SQLite page cache and the
	// kernel's directory buffers.
	DefaultMemoryRatio = 0.85

	sourceGOMEMLIMIT  = "GOMEMLIMIT"
	sourceMemoryLimit = "MEMORY_LIMIT"
	sourceNone        = "none"
)

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	// Configured indicates whether a Go memory limit is in effect
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT", or "none"
	Source string

	// ContainerLimit is the container memory limit in bytes (0 if not set)
	ContainerLimit int64

	// GoMemLimit is the Go memory limit in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the memory ratio used (0 if not applicable)
	Ratio float64
}

// ConfigureFromEnv sets the Go memory limit from the container limit.
// Call it early in main, before the first scan loads a tree.
//
// Environment variables:
//   - GOMEMLIMIT: takes precedence; the runtime has already applied it
//   - MEMORY_LIMIT: container memory limit, in bytes or as "2 GiB"
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the Go heap (default: 0.85)
func ConfigureFromEnv() ConfigResult {
	result := ConfigResult{Source: sourceNone}

	if goMemLimitEnv := os.Getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = sourceGOMEMLIMIT
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	memLimitStr := os.Getenv("MEMORY_LIMIT")
	if memLimitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return result
	}

	memLimit, err := parseLimit(memLimitStr)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_LIMIT %q: %v", memLimitStr, err)
		return result
	}

	ratio := parseRatio(os.Getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result = ConfigResult{
		Configured:     true,
		Source:         sourceMemoryLimit,
		ContainerLimit: memLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		humanize.IBytes(uint64(goMemLimit)), ratio*100, humanize.IBytes(uint64(memLimit)))
	return result
}

// parseLimit accepts a plain byte count, as the Kubernetes downward API
// provides it, or a human-readable size.
func parseLimit(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > math.MaxInt64 {
		return 0, strconv.ErrRange
	}
	return int64(n), nil
}

func parseRatio(s string) float64 {
	if s == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", s, err, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1.0 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", s, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}
