package scanner

import "time"

// Config tunes a scan session. Zero fields take the DefaultConfig value.
type Config struct {
	// DeltaThreshold is the absolute size change after which a tabulation
	// pass returns early so the tree is published in smaller steps.
	DeltaThreshold int64
	// CommitInterval is the minimum time between partial commits.
	CommitInterval time.Duration
	// ProgressInterval is how often file counts are published.
	ProgressInterval time.Duration
}

// DefaultConfig returns 1 GiB, 2 minutes and 5 seconds.
func DefaultConfig() Config {
	return Config{
		DeltaThreshold:   1 << 30,
		CommitInterval:   2 * time.Minute,
		ProgressInterval: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DeltaThreshold <= 0 {
		c.DeltaThreshold = d.DeltaThreshold
	}
	if c.CommitInterval <= 0 {
		c.CommitInterval = d.CommitInterval
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = d.ProgressInterval
	}
	return c
}
