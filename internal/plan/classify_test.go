package plan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSortKeyExtraction(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Interview - John Doe.mp4", "john doe"},
		{"novalidpattern.mp4", "novalidpattern.mp4"},
		{"Title - .mp4", "title - .mp4"},
		{"A - B - Carol.mov", "carol"},
		{"UPPER - MiXeD Case.MP4", "mixed case"},
	}
	for _, tc := range cases {
		if got := SortKey(tc.name); got != tc.want {
			t.Errorf("SortKey(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExcluded(t *testing.T) {
	excluded := []string{
		"slot_0.mp4",
		"slot_12.mp4",
		"Party-MERGED-20240315_143045.mp4",
		"Party-M1_5-20240315_143045.mp4",
		"Party-R3-20240315_143045.mp4",
		"Party-M1,3_5,8_12-20240315_143045.mp4",
		".DS_Store",
		"~lockfile.mov",
		"filelist.txt",
		"helper.py",
		"deploy.ps1",
	}
	for _, name := range excluded {
		if !Excluded(name) {
			t.Errorf("Excluded(%q) = false, want true", name)
		}
	}

	included := []string{
		"Interview - John Doe.mp4",
		"slot_x.mp4",
		"notes.txt",
		"intro_pic.png",
	}
	for _, name := range included {
		if Excluded(name) {
			t.Errorf("Excluded(%q) = true, want false", name)
		}
	}
}

func TestCategorizeSortsAndBuckets(t *testing.T) {
	c := Categorize([]string{
		"B - Zed.mp4",
		"A - Amy.mov",
		"C - Mid.mp3",
		"intro.png",
		"readme.txt",
	})
	if !reflect.DeepEqual(c.Video, []string{"A - Amy.mov", "B - Zed.mp4"}) {
		t.Fatalf("video = %v", c.Video)
	}
	if !reflect.DeepEqual(c.Audio, []string{"C - Mid.mp3"}) {
		t.Fatalf("audio = %v", c.Audio)
	}
	if !reflect.DeepEqual(c.Intro, []string{"intro.png"}) {
		t.Fatalf("intro = %v", c.Intro)
	}
	if !reflect.DeepEqual(c.Ignored, []string{"readme.txt"}) {
		t.Fatalf("ignored = %v", c.Ignored)
	}
}

func TestDiscoverDeterminism(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"B - Zed.mp4", "A - Amy.mov", "C - Mid.mp3", "intro.png", "slot_0.mp4", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	first, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Discover(dir)
		if err != nil {
			t.Fatalf("discover: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("discovery not deterministic: %v vs %v", first, again)
		}
	}
	if len(first.Video) != 2 || len(first.Audio) != 1 || len(first.Intro) != 1 {
		t.Fatalf("unexpected classification: %+v", first)
	}
}

func TestSelectIntroSinglePNG(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "title.png")

	path, ok := SelectIntro(dir, []string{"title.png"}, "")
	if !ok || path != filepath.Join(dir, "title.png") {
		t.Fatalf("path=%q ok=%v", path, ok)
	}
}

func TestSelectIntroMultiplePNGsRequiresReservedName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.png")
	writeFile(t, dir, "two.png")

	if _, ok := SelectIntro(dir, []string{"one.png", "two.png"}, ""); ok {
		t.Fatal("multiple PNGs without reserved name must yield no intro")
	}

	writeFile(t, dir, "Intro_Pic.png")
	path, ok := SelectIntro(dir, []string{"one.png", "two.png", "Intro_Pic.png"}, "")
	if !ok || filepath.Base(path) != "Intro_Pic.png" {
		t.Fatalf("path=%q ok=%v", path, ok)
	}
}

func TestSelectIntroOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.png")
	writeFile(t, dir, "special.png")

	path, ok := SelectIntro(dir, []string{"one.png"}, "special.png")
	if !ok || filepath.Base(path) != "special.png" {
		t.Fatalf("override should win: path=%q ok=%v", path, ok)
	}

	// Missing override falls back to the normal search.
	path, ok = SelectIntro(dir, []string{"one.png"}, "missing.png")
	if !ok || filepath.Base(path) != "one.png" {
		t.Fatalf("fallback failed: path=%q ok=%v", path, ok)
	}
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
