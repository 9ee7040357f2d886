// Package config holds the editor core's settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a TOML or YAML file, and INKWELL_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete configuration.
type Config struct {
	Files   FilesConfig   `toml:"files" yaml:"files" json:"files"`
	Search  SearchConfig  `toml:"search" yaml:"search" json:"search"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics" json:"metrics"`
}

// FilesConfig configures loading and saving.
type FilesConfig struct {
	// MmapThreshold is the size in bytes above which files are
	// memory-mapped and word wrap is disabled.
	MmapThreshold int64 `toml:"mmap_threshold" yaml:"mmap_threshold" json:"mmap_threshold"`
	// WatchExternal enables external change detection for open files.
	WatchExternal bool `toml:"watch_external" yaml:"watch_external" json:"watch_external"`
}

// SearchConfig configures find and replace.
type SearchConfig struct {
	DebounceMS           int `toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
	BulkReplaceThreshold int `toml:"bulk_replace_threshold" yaml:"bulk_replace_threshold" json:"bulk_replace_threshold"`
	CancelCheckBytes     int `toml:"cancel_check_bytes" yaml:"cancel_check_bytes" json:"cancel_check_bytes"`
	CacheSize            int `toml:"cache_size" yaml:"cache_size" json:"cache_size"`
	CacheTTLSeconds      int `toml:"cache_ttl_seconds" yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level" json:"level"`
}

// MetricsConfig configures latency tracking.
type MetricsConfig struct {
	// StallMS is the latency above which an operation counts as a stall.
	StallMS    int `toml:"stall_ms" yaml:"stall_ms" json:"stall_ms"`
	MaxSamples int `toml:"max_samples" yaml:"max_samples" json:"max_samples"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Files: FilesConfig{
			MmapThreshold: 1 << 20,
			WatchExternal: true,
		},
		Search: SearchConfig{
			DebounceMS:           300,
			BulkReplaceThreshold: 1000,
			CancelCheckBytes:     64 << 10,
			CacheSize:            16,
			CacheTTLSeconds:      60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			StallMS:    200,
			MaxSamples: 500,
		},
	}
}

// DebounceDelay returns the search-as-you-type quiet interval.
func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// CacheTTL returns how long a cached match index stays valid.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLSeconds) * time.Second
}

// StallThreshold returns the latency above which an operation is a stall.
func (c *Config) StallThreshold() time.Duration {
	return time.Duration(c.Metrics.StallMS) * time.Millisecond
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	checks := []struct {
		path string
		ok   bool
	}{
		{"files.mmap_threshold", c.Files.MmapThreshold > 0},
		{"search.debounce_ms", c.Search.DebounceMS > 0},
		{"search.bulk_replace_threshold", c.Search.BulkReplaceThreshold > 0},
		{"search.cancel_check_bytes", c.Search.CancelCheckBytes > 0},
		{"search.cache_size", c.Search.CacheSize >= 0},
		{"search.cache_ttl_seconds", c.Search.CacheTTLSeconds >= 0},
		{"metrics.stall_ms", c.Metrics.StallMS > 0},
		{"metrics.max_samples", c.Metrics.MaxSamples > 0},
	}
	for _, check := range checks {
		if !check.ok {
			return &ValidationError{Path: check.path, Message: "must be positive"}
		}
	}

	level := strings.ToLower(c.Logging.Level)
	for _, l := range validLevels {
		if level == l {
			return nil
		}
	}
	return &ValidationError{
		Path:    "logging.level",
		Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(validLevels, ", "), c.Logging.Level),
	}
}
