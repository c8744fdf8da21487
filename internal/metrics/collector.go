package metrics

import (
	"time"

	"diskspace-examiner/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() []RootStats
}

// RootStats is the point-in-time state of one scan root.
type RootStats struct {
	Root           string
	Size           int64
	Files          int64
	Folders        int64
	FilesScanned   int64
	FoldersScanned int64
}

// DBSizer reports database file sizes.
type DBSizer interface {
	UpdateDBMetrics()
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbSizer       DBSizer
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbSizer may be nil.
func NewCollector(provider StatsProvider, dbSizer DBSizer, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbSizer:       dbSizer,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.dbSizer != nil {
		c.dbSizer.UpdateDBMetrics()
	}
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()
	for _, s := range stats {
		RootSizeBytes.WithLabelValues(s.Root).Set(float64(s.Size))
		RootFiles.WithLabelValues(s.Root).Set(float64(s.Files))
		RootFolders.WithLabelValues(s.Root).Set(float64(s.Folders))
		SessionFilesScanned.WithLabelValues(s.Root).Set(float64(s.FilesScanned))
		SessionFoldersScanned.WithLabelValues(s.Root).Set(float64(s.FoldersScanned))
	}

	logging.Debug("Metrics collected for %d roots", len(stats))
}
