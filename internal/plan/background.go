package plan

import (
	"os"
	"path/filepath"
	"strings"
)

// audioBackgroundBase is the reserved generic background image base name.
const audioBackgroundBase = "audio_background"

// FindAudioBackground resolves the background image for an audio slot:
// explicit override, then a PNG sharing the source's base name, then the
// reserved generic background, each matched case-insensitively. An empty
// path means render on a solid black background.
func FindAudioBackground(dir, sourceName, override string) (path string, description string) {
	if override != "" {
		candidate := override
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(dir, candidate)
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, "custom background (" + filepath.Base(candidate) + ")"
		}
	}

	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	if match := findPNGByBase(dir, base); match != "" {
		return filepath.Join(dir, match), "same-name PNG (" + match + ")"
	}
	if match := findPNGByBase(dir, audioBackgroundBase); match != "" {
		return filepath.Join(dir, match), "generic background (" + match + ")"
	}
	return "", "black background"
}

func findPNGByBase(dir, base string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), base) {
			return name
		}
	}
	return ""
}
