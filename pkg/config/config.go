// Package config loads the optional YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional configuration file. Command-line flags remain the
// primary interface; file values apply only where the corresponding flag is
// left at its default. Quirks always extend the built-in quirk table.
type Config struct {
	Interval   int    `yaml:"interval"` // polling interval, seconds
	Persistent bool   `yaml:"persistent"`
	NoAvatar   bool   `yaml:"no_avatar"`
	CacheDir   string `yaml:"cache_dir"`

	Quirks []Quirk `yaml:"quirks"`
}

// Quirk is one extra rendering override for a specific notification server,
// merged after the built-in table.
type Quirk struct {
	Name              string `yaml:"name"`
	Vendor            string `yaml:"vendor"`
	Version           string `yaml:"version"` // empty matches any version
	Newline           string `yaml:"newline"`
	DisableHyperlinks bool   `yaml:"disable_hyperlinks"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for i, q := range cfg.Quirks {
		if q.Name == "" || q.Vendor == "" {
			return nil, fmt.Errorf("quirk %d: name and vendor are required", i)
		}
	}
	return &cfg, nil
}
