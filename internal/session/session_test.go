package session

import (
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
	"montage/internal/merge"
	"montage/internal/producer"
	"montage/internal/segmentcache"
)

type fakeRunner struct {
	calls     [][]string
	failOnArg string
}

func (f *fakeRunner) Run(ctx context.Context, args []string) error {
	f.calls = append(f.calls, args)
	if f.failOnArg != "" {
		for _, arg := range args {
			if strings.Contains(arg, f.failOnArg) {
				return errors.New("encoder failed")
			}
		}
	}
	return os.WriteFile(args[len(args)-1], []byte("out"), 0o644)
}

func (f *fakeRunner) concatCalls() int {
	n := 0
	for _, call := range f.calls {
		for _, arg := range call {
			if arg == "concat" {
				n++
				break
			}
		}
	}
	return n
}

type fakeProbe struct{}

func (fakeProbe) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	if base := filepath.Base(path); strings.HasPrefix(base, "slot_") {
		duration := "15.0"
		if base == "slot_0.mp4" {
			// The intro artifact runs the short fixed length.
			duration = "3.0"
		}
		return ffprobe.Result{
			Streams: []ffprobe.Stream{
				{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080, PixFmt: "yuv420p"},
				{CodecType: "audio", CodecName: "aac", SampleRate: "48000", Channels: 2},
			},
			Format: ffprobe.Format{Duration: duration},
		}, nil
	}
	return ffprobe.Result{Format: ffprobe.Format{Duration: "60.0"}}, nil
}

func newTestController(t *testing.T) (*Controller, *fakeRunner, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	old := time.Now().Add(-time.Hour)
	for _, name := range []string{"intro_pic.png", "Clip - Ann.mp4", "Song - Bea.wav"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("src"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Paths.WorkDir = dir
	cfg.Paths.InputDir = dir
	cfg.Paths.OutputDir = dir
	cfg.Paths.LogDir = dir
	if err := os.MkdirAll(cfg.TempDir(), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	probe := fakeProbe{}
	cache := segmentcache.New(&cfg, probe, logging.NewNop())
	prod := producer.New(&cfg, cache, runner, probe, logging.NewNop())
	merger := merge.New(runner, logging.NewNop())
	return NewController(&cfg, prod, merger, nil, logging.NewNop()), runner, &cfg
}

func TestProcessAllEndToEnd(t *testing.T) {
	c, runner, cfg := newTestController(t)
	p, err := c.BuildPlan()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Slots) != 3 {
		t.Fatalf("plan has %d slots, want intro+video+audio", len(p.Slots))
	}

	output, err := c.ProcessAll(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Base(output)
	if !strings.Contains(base, "-MERGED-") {
		t.Fatalf("output name = %q", base)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatal("final output missing")
	}
	// Three productions plus one stream-copy join.
	if len(runner.calls) != 4 || runner.concatCalls() != 1 {
		t.Fatalf("runner calls = %d (concat %d)", len(runner.calls), runner.concatCalls())
	}

	// A second full run reuses every artifact and only joins.
	runner.calls = nil
	if _, err := c.ProcessAll(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if len(runner.calls) != 1 || runner.concatCalls() != 1 {
		t.Fatalf("second run calls = %d (concat %d), want join only", len(runner.calls), runner.concatCalls())
	}

	if _, err := os.Stat(filepath.Join(cfg.TempDir(), "slot_0.mp4")); err != nil {
		t.Fatal("artifacts must survive the merge")
	}
}

func TestRerenderForcesRebuildAndSkipsMerge(t *testing.T) {
	c, runner, cfg := newTestController(t)
	p, err := c.BuildPlan()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ProcessAll(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	runner.calls = nil
	if err := c.Rerender(context.Background(), p, "2"); err != nil {
		t.Fatal(err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("rerender ran %d commands, want exactly the slot encode", len(runner.calls))
	}
	if runner.concatCalls() != 0 {
		t.Fatal("rerender must not merge")
	}
	if _, err := os.Stat(filepath.Join(cfg.TempDir(), "slot_1.mp4")); err != nil {
		t.Fatal("rebuilt artifact missing")
	}
}

func TestRerenderToleratesPerSlotFailure(t *testing.T) {
	c, runner, cfg := newTestController(t)
	p, err := c.BuildPlan()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ProcessAll(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	// Slot 2 is the video clip; its re-encode will fail, the audio slot's
	// must still run.
	runner.failOnArg = "Clip - Ann.mp4"
	runner.calls = nil
	err = c.Rerender(context.Background(), p, "2-3")
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if len(runner.calls) != 2 {
		t.Fatalf("rerender ran %d commands, want both slots attempted", len(runner.calls))
	}
	if _, statErr := os.Stat(filepath.Join(cfg.TempDir(), "slot_2.mp4")); statErr != nil {
		t.Fatal("surviving slot was not rebuilt")
	}
	if _, statErr := os.Stat(filepath.Join(cfg.TempDir(), "slot_1.mp4")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("failed slot left an artifact behind")
	}
}

func TestMergeRangeProducesMissingFirst(t *testing.T) {
	c, runner, cfg := newTestController(t)
	p, err := c.BuildPlan()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ProcessAll(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	// Drop slot 2's artifact; a subset merge must regenerate it.
	if err := os.Remove(filepath.Join(cfg.TempDir(), "slot_1.mp4")); err != nil {
		t.Fatal(err)
	}
	runner.calls = nil
	output, err := c.MergeRange(context.Background(), p, "2,1")
	if err != nil {
		t.Fatal(err)
	}
	// The tag mirrors the entry order term-by-term; the merge itself
	// still runs in ascending slot order.
	if !strings.Contains(filepath.Base(output), "-M2,1-") {
		t.Fatalf("output name = %q, want M2,1 tag", filepath.Base(output))
	}
	if len(runner.calls) != 2 || runner.concatCalls() != 1 {
		t.Fatalf("calls = %d (concat %d), want one production plus join", len(runner.calls), runner.concatCalls())
	}
}

func TestMergeRangeRejectsEmptySelection(t *testing.T) {
	c, _, _ := newTestController(t)
	p, err := c.BuildPlan()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.MergeRange(context.Background(), p, "banana"); err == nil {
		t.Fatal("expected empty-selection error")
	}
}

func TestClearCacheRemovesArtifacts(t *testing.T) {
	c, _, cfg := newTestController(t)
	p, err := c.BuildPlan()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ProcessAll(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	removed, err := c.ClearCache()
	if err != nil {
		t.Fatal(err)
	}
	if removed == 0 {
		t.Fatal("nothing removed")
	}
	entries, err := segmentcache.List(cfg.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("%d artifacts survive the clear", len(entries))
	}
}

func TestAcquireLockRefusesSecondHolder(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "temp_")
	lock, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	if _, err := AcquireLock(tempDir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire: %v, want ErrLocked", err)
	}

	lock.Release()
	relock, err := AcquireLock(tempDir)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	relock.Release()
}
