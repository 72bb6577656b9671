package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {}, ".3gp": {}, ".ts": {}, ".mts": {}, ".vob": {},
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".m4a": {}, ".wav": {}, ".flac": {}, ".aac": {}, ".ogg": {},
	".wma": {}, ".opus": {}, ".mp2": {},
}

var scriptExtensions = map[string]struct{}{
	".py": {}, ".ps1": {}, ".sh": {},
}

// ManifestName is the fixed concatenation manifest filename.
const ManifestName = "filelist.txt"

// introReservedBase is the base name that designates the intro image when
// several PNGs are present.
const introReservedBase = "intro_pic"

var (
	artifactPattern = regexp.MustCompile(`^slot_\d+\.mp4$`)
	mergedPattern   = regexp.MustCompile(`-MERGED-.*\.mp4$`)
	rangeTagPattern = regexp.MustCompile(`-[MR]\d+(_\d+)?(,\d+(_\d+)?)*-.*\.mp4$`)
)

var lowerCaser = cases.Lower(language.Und)

// Categorized is the classification report for one directory snapshot.
// Video and Audio are sorted by SortKey; Intro lists every PNG seen.
type Categorized struct {
	Video   []string
	Audio   []string
	Intro   []string
	Ignored []string
}

// Excluded reports whether a filename must not be considered at all:
// our own artifacts, previous final outputs (plain or range-tagged),
// dotfiles and editor droppings, the concat manifest, and scripts.
func Excluded(name string) bool {
	if artifactPattern.MatchString(name) {
		return true
	}
	if mergedPattern.MatchString(name) || rangeTagPattern.MatchString(name) {
		return true
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return true
	}
	if name == ManifestName {
		return true
	}
	if _, ok := scriptExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return true
	}
	return false
}

// MediaExtension reports whether ext (lowercased, dot included) is a
// recognized video or audio extension.
func MediaExtension(ext string) bool {
	return hasKey(videoExtensions, ext) || hasKey(audioExtensions, ext)
}

// SortKey derives the sort key from the filename convention: the text after
// the last " - " up to the final extension dot, lowercased. Filenames without
// the pattern (or with an empty captured name) sort by their lowercased full
// name.
func SortKey(name string) string {
	ext := filepath.Ext(name)
	if idx := strings.LastIndex(name, " - "); idx >= 0 && ext != "" {
		start := idx + len(" - ")
		end := len(name) - len(ext)
		if start < end {
			return lowerCaser.String(name[start:end])
		}
	}
	return lowerCaser.String(name)
}

// Categorize splits filenames into video, audio, intro candidates, and
// ignored, sorting video and audio by SortKey.
func Categorize(names []string) Categorized {
	var c Categorized
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case ext == ".png":
			c.Intro = append(c.Intro, name)
		case hasKey(videoExtensions, ext):
			c.Video = append(c.Video, name)
		case hasKey(audioExtensions, ext):
			c.Audio = append(c.Audio, name)
		default:
			c.Ignored = append(c.Ignored, name)
		}
	}
	sortByKey(c.Video)
	sortByKey(c.Audio)
	return c
}

// Discover lists dir, applies the exclusion predicate, and categorizes the
// remainder.
func Discover(dir string) (Categorized, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Categorized{}, fmt.Errorf("scan directory %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if Excluded(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return Categorize(names), nil
}

// SelectIntro resolves which PNG (if any) becomes the intro slot. An explicit
// override wins when it exists on disk; otherwise a single PNG is used as-is,
// and among several PNGs only the reserved base name qualifies. Multiple
// PNGs without the reserved name mean no intro at all.
func SelectIntro(dir string, pngs []string, override string) (string, bool) {
	if override != "" {
		candidate := override
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(dir, candidate)
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	switch {
	case len(pngs) == 0:
		return "", false
	case len(pngs) == 1:
		return filepath.Join(dir, pngs[0]), true
	default:
		for _, name := range pngs {
			base := strings.TrimSuffix(name, filepath.Ext(name))
			if strings.EqualFold(base, introReservedBase) {
				return filepath.Join(dir, name), true
			}
		}
		return "", false
	}
}

func sortByKey(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return SortKey(names[i]) < SortKey(names[j])
	})
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
