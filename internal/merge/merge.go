// Package merge joins produced slot artifacts into a final output file via
// ffmpeg's concat demuxer. The join is lossless stream copy; when the
// container rejects that, one re-encoding join is attempted before the merge
// is declared failed.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"montage/internal/encoding"
	"montage/internal/logging"
	"montage/internal/plan"
)

// CommandRunner executes an ffmpeg argument vector. Satisfied by
// encoding.Runner.
type CommandRunner interface {
	Run(ctx context.Context, args []string) error
}

// outputNameLimit caps the sanitized directory-name prefix of a final
// output file.
const outputNameLimit = 35

const timestampLayout = "20060102_150405"

var nameSanitizer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// Missing reports which of the given slots have no artifact file in the
// temp directory. Zero-byte artifacts count as missing.
func Missing(tempDir string, slots []plan.Slot) []plan.Slot {
	var missing []plan.Slot
	for _, slot := range slots {
		info, err := os.Stat(filepath.Join(tempDir, slot.ArtifactName()))
		if err != nil || info.Size() == 0 {
			missing = append(missing, slot)
		}
	}
	return missing
}

// WriteManifest writes the concat demuxer manifest into the temp directory,
// listing artifacts in ascending slot order regardless of the order slots
// were selected in. It returns the manifest path.
func WriteManifest(tempDir string, slots []plan.Slot) (string, error) {
	ordered := make([]plan.Slot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var b strings.Builder
	for _, slot := range ordered {
		fmt.Fprintf(&b, "file '%s'\n", slot.ArtifactName())
	}

	path := filepath.Join(tempDir, plan.ManifestName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write concat manifest: %w", err)
	}
	return path, nil
}

// OutputFileName names a final output: the project directory name with
// filesystem-hostile characters replaced and truncated, the selection tag
// (or MERGED for a full join), and a timestamp.
func OutputFileName(dirName, tag string, now time.Time) string {
	sanitized := nameSanitizer.Replace(dirName)
	if len(sanitized) > outputNameLimit {
		sanitized = sanitized[:outputNameLimit]
	}
	if tag == "" {
		tag = "MERGED"
	}
	return fmt.Sprintf("%s-%s-%s.mp4", sanitized, tag, now.Format(timestampLayout))
}

// Merger drives the concat joins.
type Merger struct {
	runner CommandRunner
	logger *slog.Logger
}

func New(runner CommandRunner, logger *slog.Logger) *Merger {
	return &Merger{runner: runner, logger: logging.NewComponentLogger(logger, "merge")}
}

// Merge writes the manifest for the selected slots and joins their
// artifacts into outputPath. All selected artifacts must already exist;
// call Missing first. The returned flag reports whether the re-encoding
// fallback produced the output.
func (m *Merger) Merge(ctx context.Context, tempDir string, slots []plan.Slot, outputPath string) (bool, error) {
	if len(slots) == 0 {
		return false, fmt.Errorf("merge: no slots selected")
	}
	if missing := Missing(tempDir, slots); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, slot := range missing {
			names[i] = slot.ArtifactName()
		}
		return false, fmt.Errorf("merge: missing artifacts: %s", strings.Join(names, ", "))
	}

	manifest, err := WriteManifest(tempDir, slots)
	if err != nil {
		return false, err
	}

	m.logger.Info("joining segments",
		logging.Int("segments", len(slots)),
		logging.String("output", filepath.Base(outputPath)),
	)
	if err := m.runner.Run(ctx, encoding.ConcatArgs(manifest, outputPath)); err != nil {
		encoding.RemovePartial(outputPath)
		m.logger.Warn("stream-copy join rejected, re-encoding",
			logging.String(logging.FieldReason, err.Error()),
		)
		if err := m.runner.Run(ctx, encoding.ConcatReencodeArgs(manifest, outputPath)); err != nil {
			encoding.RemovePartial(outputPath)
			return false, fmt.Errorf("merge: re-encoding join failed: %w", err)
		}
		return true, nil
	}
	return false, nil
}
