package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. InputDir, OutputDir, and LogDir
// default to the INPUT/OUTPUT/LOGS convention under WorkDir when those
// directories exist, otherwise to WorkDir itself.
type Paths struct {
	WorkDir     string `toml:"work_dir"`
	InputDir    string `toml:"input_dir"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
	TempDirName string `toml:"temp_dir_name"`
}

// Encoder contains configuration for the external ffmpeg/ffprobe tools.
type Encoder struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	UseGPU         bool   `toml:"use_gpu"`
	IntroSeconds   int    `toml:"intro_seconds"`
	SegmentSeconds int    `toml:"segment_seconds"`
}

// Cache controls segment-cache reuse. When disabled every production attempt
// rebuilds its artifact and no fingerprint sidecars are written.
type Cache struct {
	Enabled bool `toml:"enabled"`
}

// Intro contains the optional explicit intro image override.
type Intro struct {
	Image string `toml:"image"`
}

// Audio contains audio-segment rendering options.
type Audio struct {
	// Background overrides the background image search for every audio slot.
	Background string `toml:"background"`
	// Caption is drawn over audio-only segments.
	Caption string `toml:"caption"`
}

// Journal contains run-journal persistence settings.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Prompt contains interactive countdown settings.
type Prompt struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Config encapsulates all configuration values for montage.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Encoder Encoder `toml:"encoder"`
	Cache   Cache   `toml:"cache"`
	Intro   Intro   `toml:"intro"`
	Audio   Audio   `toml:"audio"`
	Journal Journal `toml:"journal"`
	Logging Logging `toml:"logging"`
	Prompt  Prompt  `toml:"prompt"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/montage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("montage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.TempDir(), c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TempDir returns the directory holding slot artifacts, sidecars, and the
// concatenation manifest.
func (c *Config) TempDir() string {
	return filepath.Join(c.Paths.WorkDir, c.Paths.TempDirName)
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if b := strings.TrimSpace(c.Encoder.FFmpeg); b != "" {
		return b
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if b := strings.TrimSpace(c.Encoder.FFprobe); b != "" {
		return b
	}
	return "ffprobe"
}

// JournalPath returns the run-journal database location.
func (c *Config) JournalPath() string {
	if p := strings.TrimSpace(c.Journal.Path); p != "" {
		return p
	}
	return filepath.Join(c.Paths.LogDir, "journal.db")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
