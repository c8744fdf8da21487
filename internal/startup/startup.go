package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/memory"
	"diskspace-examiner/internal/scanner"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Roots           []string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool
	RescanInterval  time.Duration
	Scan            scanner.Config

	// ConfigFile is the YAML file that was overlaid, if any.
	ConfigFile string

	// Derived paths
	DatabasePath string
}

// DatabaseFile is the name of the SQLite file inside DatabaseDir.
const DatabaseFile = "diskspace.db"

// LoadConfig loads and validates configuration from environment variables,
// then overlays the YAML file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := configFromEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.overlayFile(path); err != nil {
			return nil, err
		}
		config.ConfigFile = path
	}

	config.log()

	if len(config.Roots) == 0 {
		return nil, fmt.Errorf("no scan roots configured (set SCAN_ROOTS or roots in CONFIG_FILE)")
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	for i, root := range config.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve scan root %q: %w", root, err)
		}
		config.Roots[i] = abs
		if err := checkRoot(abs); err != nil {
			logging.Warn("  Scan root issue: %v", err)
		} else {
			logging.Info("  [OK] Scan root: %s", abs)
		}
	}

	var err error
	config.DatabaseDir, err = filepath.Abs(config.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", config.DatabaseDir)
	config.DatabasePath = filepath.Join(config.DatabaseDir, DatabaseFile)

	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:        ENABLED (required)")
	logging.Info("    Periodic rescan: %s", enabledString(config.RescanInterval > 0))
	logging.Info("    Metrics:         %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func configFromEnv() *Config {
	defaults := scanner.DefaultConfig()
	config := &Config{
		Roots:           splitRoots(getEnv("SCAN_ROOTS", "")),
		DatabaseDir:     getEnv("DATABASE_DIR", "/database"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		RescanInterval:  getEnvDuration("RESCAN_INTERVAL", 6*time.Hour),
		Scan: scanner.Config{
			DeltaThreshold:   getEnvBytes("DELTA_THRESHOLD", defaults.DeltaThreshold),
			CommitInterval:   getEnvDuration("COMMIT_INTERVAL", defaults.CommitInterval),
			ProgressInterval: getEnvDuration("PROGRESS_INTERVAL", defaults.ProgressInterval),
		},
	}
	return config
}

func (c *Config) log() {
	logging.Info("  SCAN_ROOTS:          %s", strings.Join(c.Roots, string(os.PathListSeparator)))
	logging.Info("  DATABASE_DIR:        %s", c.DatabaseDir)
	logging.Info("  PORT:                %s", c.Port)
	logging.Info("  METRICS_PORT:        %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", c.MetricsEnabled)
	logging.Info("  RESCAN_INTERVAL:     %v", c.RescanInterval)
	logging.Info("  COMMIT_INTERVAL:     %v", c.Scan.CommitInterval)
	logging.Info("  PROGRESS_INTERVAL:   %v", c.Scan.ProgressInterval)
	logging.Info("  DELTA_THRESHOLD:     %s", humanize.IBytes(uint64(c.Scan.DeltaThreshold)))
	logging.Info("  LOG_HEALTH_CHECKS:   %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	if c.ConfigFile != "" {
		logging.Info("  CONFIG_FILE:         %s", c.ConfigFile)
	}
}

// splitRoots splits a path list such as SCAN_ROOTS.
func splitRoots(value string) []string {
	return cleanRoots(filepath.SplitList(value))
}

// cleanRoots cleans paths and drops empty and duplicate entries.
func cleanRoots(paths []string) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, r := range paths {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		r = filepath.Clean(r)
		if seen[r] {
			continue
		}
		seen[r] = true
		roots = append(roots, r)
	}
	return roots
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogSupervisorInit logs scan supervisor initialization
func LogSupervisorInit(roots []string, interval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SCAN SUPERVISOR INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Roots:           %d", len(roots))
	for _, r := range roots {
		logging.Info("    %s", r)
	}
	if interval > 0 {
		logging.Info("  Rescan interval: %v", interval)
	} else {
		logging.Info("  Rescan interval: DISABLED (manual rescans only)")
	}
	logging.Info("  Starting supervisor...")
}

// LogSupervisorStarted logs successful supervisor start
func LogSupervisorStarted() {
	logging.Info("  [OK] Supervisor started")
}

// LogMemoryConfig logs the memory limit chosen at startup
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !result.Configured {
		logging.Info("  Memory limit:    not configured (set MEMORY_LIMIT or GOMEMLIMIT)")
		return
	}

	logging.Info("  Source:          %s", result.Source)
	logging.Info("  Go memory limit: %s", humanize.IBytes(uint64(result.GoMemLimit)))
	if result.ContainerLimit > 0 {
		logging.Info("  Container limit: %s", humanize.IBytes(uint64(result.ContainerLimit)))
		logging.Info("  Heap ratio:      %.0f%%", result.Ratio*100)
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   ___  _     __                              
  / _ \(_)__ / /__ ___ ___  ___ ________ 
 / // / (_-</  '_/(_-</ _ \/ _ '/ __/ -_)
/____/_/___/_/\_\/___/ .__/\_,_/\__/\__/ 
                    /_/  E X A M I N E R
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkRoot verifies that a scan root is an existing directory. Roots are
// never created; a missing root is scanned as empty.
func checkRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", path)
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			fileCount, dirCount := 0, 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBytes(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parseBytes(value)
	if err != nil {
		logging.Warn("Invalid byte size for %s: %q, using default: %s", key, value, humanize.IBytes(uint64(defaultValue)))
		return defaultValue
	}
	return parsed
}

// parseBytes accepts sizes such as "1 GiB", "500MB" or "1048576".
func parseBytes(value string) (int64, error) {
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("byte size %q out of range", value)
	}
	return int64(n), nil
}
