package config

import (
	"fmt"
	"strings"
)

// Validate rejects configurations that cannot drive a run.
func (c *Config) Validate() error {
	if c.Encoder.IntroSeconds <= 0 {
		return fmt.Errorf("encoder.intro_seconds must be positive, got %d", c.Encoder.IntroSeconds)
	}
	if c.Encoder.SegmentSeconds <= 0 {
		return fmt.Errorf("encoder.segment_seconds must be positive, got %d", c.Encoder.SegmentSeconds)
	}
	if strings.ContainsAny(c.Paths.TempDirName, `/\`) {
		return fmt.Errorf("paths.temp_dir_name must be a bare directory name, got %q", c.Paths.TempDirName)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Prompt.TimeoutSeconds < 0 {
		return fmt.Errorf("prompt.timeout_seconds must not be negative, got %d", c.Prompt.TimeoutSeconds)
	}
	return nil
}
