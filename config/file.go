package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and overlays every key it sets onto cfg.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate checks the fields that cannot be repaired later at parse time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dest) == "" {
		return fmt.Errorf("dest is required")
	}
	if len(c.ExpectedExts) == 0 {
		return fmt.Errorf("expected_exts must list at least one extension")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.S3Prefix != "" && c.S3Bucket == "" {
		return fmt.Errorf("s3_prefix requires s3_bucket")
	}
	return nil
}
