package segmentcache

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"montage/internal/encoding"
)

func TestNormalizeCodecName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"libx264", "h264"},
		{"h264_nvenc", "h264"},
		{"h264_qsv", "h264"},
		{"H264_NVENC", "h264"},
		{"libx265", "hevc"},
		{"hevc_nvenc", "hevc"},
		{"aac", "aac"},
		{"libfdk_aac", "aac"},
		{"unknown_codec", "unknown_codec"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCodecName(tc.in); got != tc.want {
			t.Errorf("NormalizeCodecName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewFingerprintVideo(t *testing.T) {
	ts := encoding.NewVideoSpec("/in/clip.mp4", 15, false)
	fp := NewFingerprint(ts, "/tmp/work/slot_2.mp4", 60, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC))

	if fp.Schema != SchemaVersion {
		t.Fatalf("Schema = %d, want %d", fp.Schema, SchemaVersion)
	}
	if fp.FileType != "VIDEO" {
		t.Errorf("FileType = %q", fp.FileType)
	}
	if fp.SourceFile != "/in/clip.mp4" {
		t.Errorf("SourceFile = %q", fp.SourceFile)
	}
	if !strings.HasPrefix(fp.Command, "ffmpeg ") {
		t.Errorf("Command = %q, want ffmpeg prefix", fp.Command)
	}
	if fp.Expected.Resolution != "1920x1080" {
		t.Errorf("Resolution = %q", fp.Expected.Resolution)
	}
	if fp.Expected.VideoCodec != "libx264" {
		t.Errorf("VideoCodec = %q", fp.Expected.VideoCodec)
	}
	if fp.Expected.SampleRate != "48000" {
		t.Errorf("SampleRate = %q", fp.Expected.SampleRate)
	}
	if fp.Expected.Duration != 15 {
		t.Errorf("Duration = %v, want 15", fp.Expected.Duration)
	}
}

func TestNewFingerprintCropsDurationToSource(t *testing.T) {
	ts := encoding.NewVideoSpec("/in/short.mp4", 15, false)
	fp := NewFingerprint(ts, "/tmp/work/slot_3.mp4", 9.2, time.Now())
	if fp.Expected.Duration != 9.2 {
		t.Fatalf("Duration = %v, want 9.2", fp.Expected.Duration)
	}

	// Unknown source duration keeps the requested crop.
	fp = NewFingerprint(ts, "/tmp/work/slot_3.mp4", 0, time.Now())
	if fp.Expected.Duration != 15 {
		t.Fatalf("Duration = %v, want 15", fp.Expected.Duration)
	}
}

func TestNewFingerprintBlackBackgroundHasNoResolution(t *testing.T) {
	ts := encoding.NewAudioSpec("/in/song.wav", "", "Audio only submission", 15, false)
	fp := NewFingerprint(ts, "/tmp/work/slot_4.mp4", 120, time.Now())
	if fp.Expected.Resolution != "" {
		t.Fatalf("Resolution = %q, want empty for drawtext-only filter", fp.Expected.Resolution)
	}

	// A real background image goes through scale and records one.
	ts = encoding.NewAudioSpec("/in/song.wav", "/in/song.png", "Audio only submission", 15, false)
	fp = NewFingerprint(ts, "/tmp/work/slot_4.mp4", 120, time.Now())
	if fp.Expected.Resolution != "1920x1080" {
		t.Fatalf("Resolution = %q", fp.Expected.Resolution)
	}
}

func TestSidecarPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/tmp/work/slot_0.mp4", "/tmp/work/slot_0.cache"},
		{"slot_12.mp4", "slot_12.cache"},
		{"/tmp/no.ext/artifact", "/tmp/no.ext/artifact.cache"},
	}
	for _, tc := range cases {
		if got := SidecarPath(tc.in); got != tc.want {
			t.Errorf("SidecarPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFingerprintRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slot_0.cache")

	ts := encoding.NewIntroSpec("/in/intro_pic.png", 3, true)
	fp := NewFingerprint(ts, filepath.Join(dir, "slot_0.mp4"), 0, time.Now())
	if err := writeFingerprint(path, fp); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readFingerprint(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != fp {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, fp)
	}
	if got.Expected.VideoCodec != "h264_nvenc" {
		t.Errorf("VideoCodec = %q", got.Expected.VideoCodec)
	}
}
