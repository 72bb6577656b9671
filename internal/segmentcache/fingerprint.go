package segmentcache

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"montage/internal/encoding"
)

// SchemaVersion guards the sidecar layout. Sidecars written by an older
// schema are treated as cache misses, never as errors.
const SchemaVersion = 1

// sidecarExt replaces the artifact's extension to name its sidecar.
const sidecarExt = ".cache"

var scalePattern = regexp.MustCompile(`scale=(\d+):(\d+)`)

// Expected is the subset of transform parameters that affect observable
// output. Key-parameter comparison and artifact probing both run against it.
type Expected struct {
	VideoCodec   string  `json:"video_codec,omitempty"`
	CRF          string  `json:"crf,omitempty"`
	PixelFormat  string  `json:"pixel_format,omitempty"`
	VideoProfile string  `json:"video_profile,omitempty"`
	Preset       string  `json:"preset,omitempty"`
	VideoFilter  string  `json:"video_filter,omitempty"`
	Resolution   string  `json:"resolution,omitempty"`
	AudioCodec   string  `json:"audio_codec,omitempty"`
	SampleRate   string  `json:"sample_rate,omitempty"`
	AudioBitrate string  `json:"audio_bitrate,omitempty"`
	AudioFilter  string  `json:"audio_filter,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
}

// Fingerprint is the persisted sidecar record paired with one artifact.
type Fingerprint struct {
	Schema     int      `json:"schema"`
	Command    string   `json:"command"`
	Expected   Expected `json:"expected"`
	Created    string   `json:"created"`
	SourceFile string   `json:"source_file"`
	FileType   string   `json:"file_type"`
}

// NewFingerprint derives the fingerprint for one production attempt directly
// from the structured transform spec. sourceDuration is the probed duration
// of the source file; the expected duration is the smaller of the requested
// crop and the source's actual length, so a 15 s crop of a 9 s clip records
// 9 s.
func NewFingerprint(ts encoding.TransformSpec, artifactPath string, sourceDuration float64, now time.Time) Fingerprint {
	duration := float64(ts.DurationSeconds)
	if sourceDuration > 0 && sourceDuration < duration {
		duration = sourceDuration
	}

	sampleRate := ""
	if ts.SampleRate > 0 {
		sampleRate = strconv.Itoa(ts.SampleRate)
	}

	expected := Expected{
		VideoCodec:   ts.VideoCodec,
		CRF:          ts.CRF,
		PixelFormat:  ts.PixelFormat,
		VideoProfile: ts.Profile,
		Preset:       ts.Preset,
		VideoFilter:  ts.VideoFilter,
		Resolution:   resolutionFromFilter(ts.VideoFilter),
		AudioCodec:   ts.AudioCodec,
		SampleRate:   sampleRate,
		AudioBitrate: ts.AudioBitrate,
		AudioFilter:  ts.AudioFilter,
		Duration:     duration,
	}

	return Fingerprint{
		Schema:     SchemaVersion,
		Command:    "ffmpeg " + strings.Join(ts.Args(artifactPath), " "),
		Expected:   expected,
		Created:    now.Format("2006-01-02 15:04:05"),
		SourceFile: ts.Source,
		FileType:   ts.Kind,
	}
}

// resolutionFromFilter recovers the target resolution from a scale=W:H token
// in the filter graph. Filters without an explicit scale (the solid-black
// audio background) record no resolution expectation.
func resolutionFromFilter(filter string) string {
	match := scalePattern.FindStringSubmatch(filter)
	if match == nil {
		return ""
	}
	return fmt.Sprintf("%sx%s", match[1], match[2])
}

// SidecarPath names the fingerprint sidecar for an artifact by swapping the
// extension.
func SidecarPath(artifactPath string) string {
	if idx := strings.LastIndex(artifactPath, "."); idx > strings.LastIndexAny(artifactPath, `/\`) {
		return artifactPath[:idx] + sidecarExt
	}
	return artifactPath + sidecarExt
}

func readFingerprint(path string) (Fingerprint, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Fingerprint{}, err
	}
	var fp Fingerprint
	if err := json.Unmarshal(payload, &fp); err != nil {
		return Fingerprint{}, fmt.Errorf("parse fingerprint: %w", err)
	}
	return fp, nil
}

func writeFingerprint(path string, fp Fingerprint) error {
	payload, err := json.MarshalIndent(fp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fingerprint: %w", err)
	}
	return os.WriteFile(path, payload, 0o644)
}
