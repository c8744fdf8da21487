package startup

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of Config. Unset fields leave the value from
// the environment in place.
type fileConfig struct {
	Roots            []string `yaml:"roots"`
	DatabaseDir      string   `yaml:"database_dir"`
	Port             string   `yaml:"port"`
	MetricsPort      string   `yaml:"metrics_port"`
	MetricsEnabled   *bool    `yaml:"metrics_enabled"`
	LogHealthChecks  *bool    `yaml:"log_health_checks"`
	RescanInterval   string   `yaml:"rescan_interval"`
	CommitInterval   string   `yaml:"commit_interval"`
	ProgressInterval string   `yaml:"progress_interval"`
	DeltaThreshold   string   `yaml:"delta_threshold"`
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return c.apply(fc)
}

func (c *Config) apply(fc fileConfig) error {
	if len(fc.Roots) > 0 {
		c.Roots = cleanRoots(fc.Roots)
	}
	if fc.DatabaseDir != "" {
		c.DatabaseDir = fc.DatabaseDir
	}
	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.MetricsPort != "" {
		c.MetricsPort = fc.MetricsPort
	}
	if fc.MetricsEnabled != nil {
		c.MetricsEnabled = *fc.MetricsEnabled
	}
	if fc.LogHealthChecks != nil {
		c.LogHealthChecks = *fc.LogHealthChecks
	}

	for _, d := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"rescan_interval", fc.RescanInterval, &c.RescanInterval},
		{"commit_interval", fc.CommitInterval, &c.Scan.CommitInterval},
		{"progress_interval", fc.ProgressInterval, &c.Scan.ProgressInterval},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid %s %q in config file", d.name, d.value)
		}
		*d.dst = parsed
	}

	if fc.DeltaThreshold != "" {
		n, err := parseBytes(fc.DeltaThreshold)
		if err != nil {
			return fmt.Errorf("invalid delta_threshold in config file: %w", err)
		}
		c.Scan.DeltaThreshold = n
	}
	return nil
}
