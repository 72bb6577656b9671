package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"montage/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("work", dir); !result.Passed {
		t.Fatalf("writable dir failed: %s", result.Detail)
	}

	if result := CheckDirectoryAccess("work", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("missing dir passed")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("work", file)
	if result.Passed || !strings.Contains(result.Detail, "not a directory") {
		t.Fatalf("plain file: %+v", result)
	}
}

func TestRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.FFmpeg = "/opt/ffmpeg/bin/ffmpeg"

	reqs := Requirements(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("got %d requirements", len(reqs))
	}
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg command = %q", reqs[0].Command)
	}
	if reqs[1].Command != "ffprobe" {
		t.Errorf("ffprobe default = %q", reqs[1].Command)
	}
	for _, req := range reqs {
		if req.Optional {
			t.Errorf("%s marked optional", req.Name)
		}
	}
}
