package producer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"montage/internal/config"
	"montage/internal/logging"
	"montage/internal/media/ffprobe"
	"montage/internal/plan"
	"montage/internal/segmentcache"
)

// fakeRunner mimics ffmpeg: it writes the output file named by the final
// argument and can be told to fail when the argv references a given input.
type fakeRunner struct {
	calls      [][]string
	failOnArg  string
	failAlways bool
}

func (f *fakeRunner) Run(ctx context.Context, args []string) error {
	f.calls = append(f.calls, args)
	if f.failAlways {
		return errors.New("encoder failed")
	}
	if f.failOnArg != "" {
		for _, arg := range args {
			if arg == f.failOnArg {
				return errors.New("encoder failed on input")
			}
		}
	}
	return os.WriteFile(args[len(args)-1], []byte("encoded"), 0o644)
}

// fakeProbe answers artifact probes with the standard profile and source
// probes with a long duration.
type fakeProbe struct{}

func (fakeProbe) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	if strings.HasPrefix(filepath.Base(path), "slot_") {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{
				{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080, PixFmt: "yuv420p", RFrameRate: "30/1"},
				{CodecType: "audio", CodecName: "aac", SampleRate: "48000", Channels: 2},
			},
			Format: ffprobe.Format{Duration: "15.0"},
		}, nil
	}
	return ffprobe.Result{Format: ffprobe.Format{Duration: "60.0"}}, nil
}

func newTestProducer(t *testing.T, runner CommandRunner) (*Producer, string) {
	t.Helper()
	cfg := config.Default()
	probe := fakeProbe{}
	cache := segmentcache.New(&cfg, probe, logging.NewNop())
	tempDir := t.TempDir()
	return New(&cfg, cache, runner, probe, logging.NewNop()), tempDir
}

func videoSlot(t *testing.T, dir string) plan.Slot {
	t.Helper()
	path := filepath.Join(dir, "Interview - Ann.mp4")
	if err := os.WriteFile(path, []byte("raw"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	return plan.Slot{Index: 2, Name: filepath.Base(path), Path: path, Role: plan.RoleVideo}
}

func TestProduceEncodesAndCaches(t *testing.T) {
	runner := &fakeRunner{}
	p, tempDir := newTestProducer(t, runner)
	slot := videoSlot(t, t.TempDir())

	res, err := p.Produce(context.Background(), slot, tempDir)
	if err != nil {
		t.Fatalf("first produce: %v", err)
	}
	if res.Cached {
		t.Fatal("first produce reported a cache hit")
	}
	if res.Artifact != filepath.Join(tempDir, "slot_1.mp4") {
		t.Fatalf("artifact = %q", res.Artifact)
	}
	if _, err := os.Stat(res.Artifact); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if _, err := os.Stat(segmentcache.SidecarPath(res.Artifact)); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}

	// An unchanged source re-produces without touching the encoder.
	res, err = p.Produce(context.Background(), slot, tempDir)
	if err != nil {
		t.Fatalf("second produce: %v", err)
	}
	if !res.Cached {
		t.Fatal("second produce should reuse the cached artifact")
	}
	if len(runner.calls) != 1 {
		t.Fatalf("encoder ran %d times, want 1", len(runner.calls))
	}
}

func TestProduceLogsStreamSummaryOnCacheHit(t *testing.T) {
	runner := &fakeRunner{}
	cfg := config.Default()
	probe := fakeProbe{}
	cache := segmentcache.New(&cfg, probe, logging.NewNop())
	tempDir := t.TempDir()
	slot := videoSlot(t, t.TempDir())

	p := New(&cfg, cache, runner, probe, logging.NewNop())
	if _, err := p.Produce(context.Background(), slot, tempDir); err != nil {
		t.Fatalf("first produce: %v", err)
	}

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	p = New(&cfg, cache, runner, probe, logger)
	res, err := p.Produce(context.Background(), slot, tempDir)
	if err != nil {
		t.Fatalf("second produce: %v", err)
	}
	if !res.Cached {
		t.Fatal("second produce should reuse the cached artifact")
	}

	// The diagnostic summary accompanies reused segments too.
	out := buf.String()
	for _, want := range []string{"video: h264 1920x1080", "audio: aac 48000Hz 2ch"} {
		if !strings.Contains(out, want) {
			t.Fatalf("cache-hit output missing %q:\n%s", want, out)
		}
	}
}

func TestProduceReencodesWhenSourceChanges(t *testing.T) {
	runner := &fakeRunner{}
	p, tempDir := newTestProducer(t, runner)
	slot := videoSlot(t, t.TempDir())

	if _, err := p.Produce(context.Background(), slot, tempDir); err != nil {
		t.Fatal(err)
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(slot.Path, future, future); err != nil {
		t.Fatal(err)
	}
	res, err := p.Produce(context.Background(), slot, tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Fatal("edited source must force a re-encode")
	}
	if len(runner.calls) != 2 {
		t.Fatalf("encoder ran %d times, want 2", len(runner.calls))
	}
}

func TestProduceFailureLeavesNothingBehind(t *testing.T) {
	runner := &fakeRunner{failAlways: true}
	p, tempDir := newTestProducer(t, runner)
	slot := videoSlot(t, t.TempDir())

	if _, err := p.Produce(context.Background(), slot, tempDir); err == nil {
		t.Fatal("expected produce error")
	}
	artifact := filepath.Join(tempDir, "slot_1.mp4")
	if _, err := os.Stat(artifact); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("failed produce left a partial artifact")
	}
	if _, err := os.Stat(segmentcache.SidecarPath(artifact)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("failed produce left a sidecar")
	}
}

func TestProduceAudioBlackFallback(t *testing.T) {
	srcDir := t.TempDir()
	source := filepath.Join(srcDir, "Song - Bea.wav")
	background := filepath.Join(srcDir, "Song - Bea.png")
	for _, path := range []string{source, background} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(source, old, old); err != nil {
		t.Fatal(err)
	}
	slot := plan.Slot{Index: 3, Name: filepath.Base(source), Path: source, Role: plan.RoleAudio}

	runner := &fakeRunner{failOnArg: background}
	p, tempDir := newTestProducer(t, runner)

	res, err := p.Produce(context.Background(), slot, tempDir)
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if !res.BlackFallback {
		t.Fatal("expected solid-black fallback")
	}
	if len(runner.calls) != 2 {
		t.Fatalf("encoder ran %d times, want background attempt plus black retry", len(runner.calls))
	}
	if _, err := os.Stat(res.Artifact); err != nil {
		t.Fatalf("artifact missing after fallback: %v", err)
	}

	// The stored fingerprint describes the black render while a fresh
	// attempt fingerprints the real background, so the next run misses
	// and walks the fallback again rather than silently reusing the
	// wrong-looking artifact.
	res, err = p.Produce(context.Background(), slot, tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Fatal("background fingerprint must not match the black render")
	}
	if !res.BlackFallback {
		t.Fatal("expected the fallback to repeat")
	}
	if len(runner.calls) != 4 {
		t.Fatalf("encoder ran %d times, want 4", len(runner.calls))
	}
}

func TestProduceAudioDirectBlack(t *testing.T) {
	srcDir := t.TempDir()
	source := filepath.Join(srcDir, "Song - Cal.mp3")
	if err := os.WriteFile(source, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	slot := plan.Slot{Index: 1, Name: filepath.Base(source), Path: source, Role: plan.RoleAudio}

	runner := &fakeRunner{}
	p, tempDir := newTestProducer(t, runner)

	res, err := p.Produce(context.Background(), slot, tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if res.BlackFallback {
		t.Fatal("direct black render is not a fallback")
	}
	if len(runner.calls) != 1 {
		t.Fatalf("encoder ran %d times, want 1", len(runner.calls))
	}
	var sawLavfi bool
	for _, arg := range runner.calls[0] {
		if strings.HasPrefix(arg, "color=black:") {
			sawLavfi = true
		}
	}
	if !sawLavfi {
		t.Fatal("expected a synthetic black video input")
	}
}
