package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INKWELL_"

// envSetting maps one environment variable onto a setting.
type envSetting struct {
	name string
	set  func(c *Config, value string) error
}

func intSetting(target func(*Config) *int) func(*Config, string) error {
	return func(c *Config, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target(c) = n
		return nil
	}
}

// envSettings returns the supported overrides.
func envSettings() []envSetting {
	return []envSetting{
		{"FILES_MMAP_THRESHOLD", func(c *Config, v string) error {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return err
			}
			c.Files.MmapThreshold = n
			return nil
		}},
		{"FILES_WATCH_EXTERNAL", func(c *Config, v string) error {
			b, err := parseBool(v)
			if err != nil {
				return err
			}
			c.Files.WatchExternal = b
			return nil
		}},
		{"SEARCH_DEBOUNCE_MS", intSetting(func(c *Config) *int { return &c.Search.DebounceMS })},
		{"SEARCH_BULK_REPLACE_THRESHOLD", intSetting(func(c *Config) *int { return &c.Search.BulkReplaceThreshold })},
		{"SEARCH_CANCEL_CHECK_BYTES", intSetting(func(c *Config) *int { return &c.Search.CancelCheckBytes })},
		{"SEARCH_CACHE_SIZE", intSetting(func(c *Config) *int { return &c.Search.CacheSize })},
		{"SEARCH_CACHE_TTL_SECONDS", intSetting(func(c *Config) *int { return &c.Search.CacheTTLSeconds })},
		{"LOG_LEVEL", func(c *Config, v string) error {
			c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
			return nil
		}},
		{"METRICS_STALL_MS", intSetting(func(c *Config) *int { return &c.Metrics.StallMS })},
		{"METRICS_MAX_SAMPLES", intSetting(func(c *Config) *int { return &c.Metrics.MaxSamples })},
	}
}

// ApplyEnv applies INKWELL_* environment overrides to c.
// Empty values are treated as unset.
func (c *Config) ApplyEnv() error {
	for _, s := range envSettings() {
		name := EnvPrefix + s.name
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if err := s.set(c, value); err != nil {
			return fmt.Errorf("environment %s=%q: %w", name, value, err)
		}
	}
	return nil
}

// parseBool accepts true/yes/on/1 and false/no/off/0.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
