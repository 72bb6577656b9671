package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Directory-convention names checked under the working directory when no
// explicit override is configured.
const (
	conventionInputDir  = "INPUT"
	conventionOutputDir = "OUTPUT"
	conventionLogDir    = "LOGS"
)

// normalize expands every path field and resolves the INPUT/OUTPUT/LOGS
// convention against the working directory.
func (c *Config) normalize() error {
	workDir := strings.TrimSpace(c.Paths.WorkDir)
	if workDir == "" {
		workDir = "."
	}
	expanded, err := expandPath(workDir)
	if err != nil {
		return err
	}
	c.Paths.WorkDir = expanded

	c.Paths.InputDir, err = c.resolveConvention(c.Paths.InputDir, conventionInputDir)
	if err != nil {
		return err
	}
	c.Paths.OutputDir, err = c.resolveConvention(c.Paths.OutputDir, conventionOutputDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir, err = c.resolveConvention(c.Paths.LogDir, conventionLogDir)
	if err != nil {
		return err
	}

	if strings.TrimSpace(c.Paths.TempDirName) == "" {
		c.Paths.TempDirName = defaultTempDirName
	}

	for _, field := range []*string{&c.Intro.Image, &c.Audio.Background, &c.Journal.Path} {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	return nil
}

// resolveConvention picks the explicit override when present, then the
// conventional subdirectory when it exists on disk, then the working
// directory itself.
func (c *Config) resolveConvention(override, convention string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return expandPath(override)
	}
	candidate := filepath.Join(c.Paths.WorkDir, convention)
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate, nil
	}
	return c.Paths.WorkDir, nil
}
