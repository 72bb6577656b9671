package segmentcache

import "strings"

// codecAliases maps encoder identifiers to the canonical codec name ffprobe
// reports, so switching encoder backends (CPU libx264 vs. hardware nvenc/qsv)
// does not spuriously invalidate cached artifacts.
var codecAliases = map[string]string{
	"libx264":    "h264",
	"h264_nvenc": "h264",
	"h264_qsv":   "h264",
	"libx265":    "hevc",
	"hevc_nvenc": "hevc",
	"hevc_qsv":   "hevc",

	"libfdk_aac": "aac",
	"aac":        "aac",
	"libmp3lame": "mp3",
	"mp3":        "mp3",
	"libopus":    "opus",
	"opus":       "opus",
}

// NormalizeCodecName maps an encoder or metadata codec identifier to its
// canonical name for comparison.
func NormalizeCodecName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := codecAliases[lowered]; ok {
		return canonical
	}
	return lowered
}
