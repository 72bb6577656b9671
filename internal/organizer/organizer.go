// Package organizer converts a flat project directory into the
// INPUT/OUTPUT/LOGS layout: media sources move into INPUT, previously
// merged outputs into OUTPUT, and log or journal files into LOGS. The temp
// directory and its artifacts stay where they are.
package organizer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"montage/internal/logging"
	"montage/internal/plan"
)

// Layout directory names created under the project directory.
const (
	InputDirName  = "INPUT"
	OutputDirName = "OUTPUT"
	LogDirName    = "LOGS"
)

var finalOutputPattern = regexp.MustCompile(`-(MERGED|[MR]\d+(_\d+)?(,\d+(_\d+)?)*)-\d{8}_\d{6}\.mp4$`)

// Report summarizes one organize pass.
type Report struct {
	MovedInputs  int
	MovedOutputs int
	MovedLogs    int
}

// Organize creates the three-way layout under dir and sorts existing files
// into it. Files already inside the layout directories are untouched, and a
// name collision fails the move rather than overwriting.
func Organize(dir string, tempDirName string, logger *slog.Logger) (Report, error) {
	logger = logging.NewComponentLogger(logger, "organizer")
	var report Report

	for _, name := range []string{InputDirName, OutputDirName, LogDirName} {
		if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
			return report, fmt.Errorf("create %s: %w", name, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("read project directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		target := classify(name, tempDirName)
		if target == "" {
			continue
		}

		from := filepath.Join(dir, name)
		to := filepath.Join(dir, target, name)
		if _, err := os.Stat(to); err == nil {
			return report, fmt.Errorf("organize: %s already exists in %s", name, target)
		}
		if err := os.Rename(from, to); err != nil {
			return report, fmt.Errorf("organize: move %s: %w", name, err)
		}
		logger.Info("moved file",
			logging.String(logging.FieldSource, name),
			logging.String("destination", target),
		)
		switch target {
		case InputDirName:
			report.MovedInputs++
		case OutputDirName:
			report.MovedOutputs++
		case LogDirName:
			report.MovedLogs++
		}
	}

	return report, nil
}

// classify names the layout directory a file belongs in, or "" to leave it
// alone.
func classify(name, tempDirName string) string {
	switch {
	case finalOutputPattern.MatchString(name):
		return OutputDirName
	case strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".db") ||
		strings.HasSuffix(name, ".db-wal") || strings.HasSuffix(name, ".db-shm"):
		return LogDirName
	case name == tempDirName || name == plan.ManifestName:
		return ""
	case plan.Excluded(name):
		return ""
	}

	ext := strings.ToLower(filepath.Ext(name))
	if plan.MediaExtension(ext) || ext == ".png" {
		return InputDirName
	}
	return ""
}
