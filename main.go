package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/filesystem"
	"diskspace-examiner/internal/handlers"
	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/memory"
	"diskspace-examiner/internal/metrics"
	"diskspace-examiner/internal/middleware"
	"diskspace-examiner/internal/scanner"
	"diskspace-examiner/internal/startup"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const (
	metricsCollectInterval = 15 * time.Second
	shutdownTimeout        = 30 * time.Second
)

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Filesystem access and its metrics are labelled by scan root
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(volumeLabels(config.Roots)))
	if config.MetricsEnabled {
		filesystem.SetObserver(metrics.NewFilesystemObserver())
		metrics.InitializeMetrics(config.Roots)
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	}

	startup.LogSupervisorInit(config.Roots, config.RescanInterval)
	sup := scanner.NewSupervisor(db, filesystem.NewOSSource(), config.Roots, config.RescanInterval, config.Scan)

	collector := metrics.NewCollector(sup, db, metricsCollectInterval)
	collector.Start()
	defer collector.Stop()

	h := handlers.New(sup, db)
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		ErrorLog:    log.New(logging.Writer(), "[HTTP] ", log.LstdFlags),
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", h.MetricsHandler()).Methods("GET")
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsRouter,
			ReadTimeout: 15 * time.Second,
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return sup.Run(ctx)
	})
	startup.LogSupervisorStarted()

	g.Go(func() error {
		return serve(srv)
	})
	if metricsSrv != nil {
		g.Go(func() error {
			return serve(metricsSrv)
		})
	}

	g.Go(func() error {
		select {
		case sig := <-sigChan:
			startup.LogShutdownInitiated(sig.String())
		case <-ctx.Done():
			startup.LogShutdownInitiated("error")
		}
		shutdown(sup, srv, metricsSrv)
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server error: %v", err)
		os.Exit(1)
	}
	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	r.Use(middleware.Logger(loggingConfig))
	if config.MetricsEnabled {
		r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}
	r.Use(middleware.Compression(middleware.DefaultCompressionConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scans", h.GetScans).Methods("GET")
	api.HandleFunc("/rescan", h.TriggerRescan).Methods("POST")
	api.HandleFunc("/tree", h.GetTree).Methods("GET")
	api.HandleFunc("/largest", h.GetLargest).Methods("GET")
	api.HandleFunc("/roots", h.GetStoredRoots).Methods("GET")

	return r
}

// volumeLabels labels each scan root with its own path.
func volumeLabels(roots []string) map[string]string {
	labels := make(map[string]string, len(roots))
	for _, root := range roots {
		labels[root] = root
	}
	return labels
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func shutdown(sup *scanner.Supervisor, servers ...*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping scan supervisor")
	sup.Stop()
	startup.LogShutdownStepComplete("Scan supervisor stopped")

	for _, srv := range servers {
		if srv == nil {
			continue
		}
		startup.LogShutdownStep("Shutting down HTTP server on " + srv.Addr)
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
			continue
		}
		startup.LogShutdownStepComplete("HTTP server on " + srv.Addr + " stopped")
	}
}
