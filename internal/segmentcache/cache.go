package segmentcache

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"montage/internal/config"
	"montage/internal/logging"
	"montage/internal/media/ffprobe"
)

// durationTolerance absorbs encoder rounding when comparing the measured
// artifact duration against the expectation.
const durationTolerance = 0.5

// Inspector probes a media file. Satisfied by ffprobe.Client.
type Inspector interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Cache validates and persists fingerprint sidecars next to artifacts. A nil
// Cache, or one constructed with caching disabled, reports every artifact as
// invalid and persists nothing.
type Cache struct {
	enabled bool
	probe   Inspector
	logger  *slog.Logger
}

// New builds a cache bound to the run configuration.
func New(cfg *config.Config, probe Inspector, logger *slog.Logger) *Cache {
	enabled := cfg != nil && cfg.Cache.Enabled
	return &Cache{
		enabled: enabled,
		probe:   probe,
		logger:  logging.NewComponentLogger(logger, "cache"),
	}
}

// Enabled reports whether cache reuse is active.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// IsValid reports whether the artifact at artifactPath is valid proof of
// prior work for the current production attempt. Checks run in order and
// short-circuit on the first failure; every rejection logs its reason.
func (c *Cache) IsValid(ctx context.Context, artifactPath, sourcePath string, current Fingerprint) bool {
	if !c.Enabled() {
		return false
	}

	info, err := os.Stat(artifactPath)
	if err != nil || info.Size() == 0 {
		return false
	}

	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}
	if !info.ModTime().After(sourceInfo.ModTime()) {
		c.invalid(artifactPath, "source file is newer than artifact")
		return false
	}

	stored, err := readFingerprint(SidecarPath(artifactPath))
	if err != nil {
		c.invalid(artifactPath, "no readable parameter signature")
		return false
	}
	if stored.Schema != SchemaVersion {
		c.invalid(artifactPath, "fingerprint schema version mismatch")
		return false
	}

	if reason, ok := keyParamsMatch(stored.Expected, current.Expected); !ok {
		c.invalid(artifactPath, reason+" parameter changed")
		return false
	}

	if reason, ok := c.probeMatches(ctx, artifactPath, current.Expected); !ok {
		c.invalid(artifactPath, reason)
		return false
	}

	c.logger.Info("using cached artifact",
		logging.String(logging.FieldArtifact, filepath.Base(artifactPath)),
	)
	return true
}

// Save persists the fingerprint sidecar after a successful production.
func (c *Cache) Save(artifactPath string, fp Fingerprint) error {
	if !c.Enabled() {
		return nil
	}
	return writeFingerprint(SidecarPath(artifactPath), fp)
}

// RemoveSidecar deletes the fingerprint paired with an artifact, ignoring
// absence.
func (c *Cache) RemoveSidecar(artifactPath string) {
	_ = os.Remove(SidecarPath(artifactPath))
}

func (c *Cache) invalid(artifactPath, reason string) {
	c.logger.Info("cache invalid",
		logging.String(logging.FieldArtifact, filepath.Base(artifactPath)),
		logging.String(logging.FieldReason, reason),
	)
}

// keyParamsMatch compares the fixed key-parameter set that must match
// exactly between the stored and freshly computed fingerprints.
func keyParamsMatch(stored, current Expected) (string, bool) {
	switch {
	case stored.VideoCodec != current.VideoCodec:
		return "video_codec", false
	case stored.AudioCodec != current.AudioCodec:
		return "audio_codec", false
	case stored.Resolution != current.Resolution:
		return "resolution", false
	case stored.Duration != current.Duration:
		return "duration", false
	case stored.PixelFormat != current.PixelFormat:
		return "pixel_format", false
	case stored.SampleRate != current.SampleRate:
		return "sample_rate", false
	}
	return "", true
}

// probeMatches verifies the artifact's actually measured properties against
// the current expectations. A probe failure is conservative for every field
// except duration: if stream-level facts were expected but cannot be
// confirmed the cache is invalid, while an unconfirmable duration is let
// through.
func (c *Cache) probeMatches(ctx context.Context, artifactPath string, expected Expected) (string, bool) {
	if c.probe == nil {
		return "no prober configured", false
	}

	needsVideo := expected.Resolution != "" || expected.VideoCodec != "" || expected.PixelFormat != ""
	needsAudio := expected.AudioCodec != "" || expected.SampleRate != ""

	result, err := c.probe.Inspect(ctx, artifactPath)
	if err != nil {
		if needsVideo || needsAudio {
			return "artifact probe failed", false
		}
		return "", true
	}

	video := result.FirstVideo()
	if expected.Resolution != "" {
		if video == nil {
			return "expected video stream not found", false
		}
		if video.Resolution() != expected.Resolution {
			return "resolution mismatch", false
		}
	}
	if expected.VideoCodec != "" {
		if video == nil {
			return "expected video stream not found", false
		}
		if NormalizeCodecName(video.CodecName) != NormalizeCodecName(expected.VideoCodec) {
			return "video codec mismatch", false
		}
	}
	if expected.PixelFormat != "" {
		if video == nil {
			return "expected video stream not found", false
		}
		if video.PixFmt != expected.PixelFormat {
			return "pixel format mismatch", false
		}
	}

	audio := result.FirstAudio()
	if expected.AudioCodec != "" {
		if audio == nil {
			return "expected audio stream not found", false
		}
		if NormalizeCodecName(audio.CodecName) != NormalizeCodecName(expected.AudioCodec) {
			return "audio codec mismatch", false
		}
	}
	if expected.SampleRate != "" {
		if audio == nil {
			return "expected audio stream not found", false
		}
		if strings.TrimSpace(audio.SampleRate) != expected.SampleRate {
			return "sample rate mismatch", false
		}
	}

	if expected.Duration > 0 {
		if actual := result.DurationSeconds(); actual > 0 {
			if math.Abs(actual-expected.Duration) > durationTolerance {
				return "duration mismatch", false
			}
		}
		// An unreadable duration cannot confirm a problem; let it pass.
	}

	return "", true
}

// Entry summarizes one cached artifact for status listings.
type Entry struct {
	Artifact   string
	SizeBytes  int64
	Modified   time.Time
	HasSidecar bool
}

// List reports the artifacts currently present in the temp directory in
// slot order.
func List(tempDir string) ([]Entry, error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "slot_") || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		_, sidecarErr := os.Stat(SidecarPath(filepath.Join(tempDir, entry.Name())))
		out = append(out, Entry{
			Artifact:   entry.Name(),
			SizeBytes:  info.Size(),
			Modified:   info.ModTime(),
			HasSidecar: sidecarErr == nil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Artifact < out[j].Artifact })
	return out, nil
}

// Clear removes every artifact, sidecar, and the concat manifest from the
// temp directory. It returns the number of files removed.
func Clear(tempDir string) (int, error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		isArtifact := strings.HasPrefix(name, "slot_") && (strings.HasSuffix(name, ".mp4") || strings.HasSuffix(name, sidecarExt))
		if !isArtifact && name != "filelist.txt" {
			continue
		}
		if err := os.Remove(filepath.Join(tempDir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
