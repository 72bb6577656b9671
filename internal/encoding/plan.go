package encoding

import (
	"fmt"
	"strconv"
	"strings"
)

// TransformSpec describes one standardization pass over a source file. It is
// built from a slot's role plus the fixed standards and carries everything
// needed to construct the ffmpeg argument vector and the cache fingerprint.
type TransformSpec struct {
	Kind   string // INTRO, VIDEO, or AUDIO
	Source string

	// LoopImage, when set, is looped as the picture track (intro image or
	// audio background). SyntheticVideo is a lavfi source used instead when
	// no real image is available.
	LoopImage      string
	SyntheticVideo string
	// SilentAudio injects an anullsrc stereo track (intro segments).
	SilentAudio bool
	// Shortest stops the encode when the shortest input ends.
	Shortest bool

	VideoCodec   string
	GPU          bool
	Width        int
	Height       int
	FPS          int
	PixelFormat  string
	Profile      string
	CRF          string
	Preset       string
	AudioCodec   string
	SampleRate   int
	AudioBitrate string

	// DurationSeconds is the requested crop length.
	DurationSeconds int

	VideoFilter string
	AudioFilter string
}

// NewIntroSpec turns a still image into a fixed-length video with a silent
// stereo track.
func NewIntroSpec(source string, duration int, gpu bool) TransformSpec {
	ts := baseSpec("INTRO", source, duration, gpu)
	ts.LoopImage = source
	ts.SilentAudio = true
	ts.Shortest = true
	ts.VideoFilter = StandardVideoFilter()
	return ts
}

// NewVideoSpec standardizes a video clip's picture and audio.
func NewVideoSpec(source string, duration int, gpu bool) TransformSpec {
	ts := baseSpec("VIDEO", source, duration, gpu)
	ts.VideoFilter = StandardVideoFilter()
	ts.AudioFilter = StandardAudioFilter()
	return ts
}

// NewAudioSpec renders an audio clip over a background image (or a solid
// black frame when background is empty) with a static caption.
func NewAudioSpec(source, background, caption string, duration int, gpu bool) TransformSpec {
	ts := baseSpec("AUDIO", source, duration, gpu)
	ts.Shortest = true
	ts.AudioFilter = StandardAudioFilter()
	drawtext := fmt.Sprintf("drawtext=fontsize=36:fontcolor=white:x=10:y=h-th-10:text=%s", escapeDrawText(caption))
	if background != "" {
		ts.LoopImage = background
		ts.VideoFilter = fmt.Sprintf("scale=%d:%d,%s", StandardWidth, StandardHeight, drawtext)
	} else {
		ts.SyntheticVideo = fmt.Sprintf("color=black:size=%dx%d:rate=%d", StandardWidth, StandardHeight, StandardFPS)
		ts.VideoFilter = drawtext
	}
	return ts
}

func baseSpec(kind, source string, duration int, gpu bool) TransformSpec {
	codec := CPUVideoCodec
	if gpu {
		codec = GPUVideoCodec
	}
	return TransformSpec{
		Kind:            kind,
		Source:          source,
		VideoCodec:      codec,
		GPU:             gpu,
		Width:           StandardWidth,
		Height:          StandardHeight,
		FPS:             StandardFPS,
		PixelFormat:     StandardPixelFormat,
		Profile:         StandardProfile,
		CRF:             StandardCRF,
		Preset:          StandardPreset,
		AudioCodec:      AudioCodec,
		SampleRate:      StandardSampleRate,
		AudioBitrate:    StandardAudioBitrate,
		DurationSeconds: duration,
	}
}

// Resolution renders the target dimensions as "WxH".
func (ts TransformSpec) Resolution() string {
	return fmt.Sprintf("%dx%d", ts.Width, ts.Height)
}

// Args builds the complete ffmpeg argument vector (excluding the binary
// name) writing to outputPath.
func (ts TransformSpec) Args(outputPath string) []string {
	args := []string{"-y"}

	switch {
	case ts.LoopImage != "":
		args = append(args, "-loop", "1", "-i", ts.LoopImage)
	case ts.SyntheticVideo != "":
		args = append(args, "-f", "lavfi", "-i", ts.SyntheticVideo)
	}
	if ts.Kind != "INTRO" && (ts.LoopImage != "" || ts.SyntheticVideo != "") {
		// The real source rides as the second input next to the picture.
		args = append(args, "-i", ts.Source)
	}
	if ts.LoopImage == "" && ts.SyntheticVideo == "" {
		args = append(args, "-i", ts.Source)
	}
	if ts.SilentAudio {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", ts.SampleRate))
	}

	if ts.VideoFilter != "" {
		args = append(args, "-vf", ts.VideoFilter)
	}
	if ts.AudioFilter != "" {
		args = append(args, "-af", ts.AudioFilter)
	}
	if ts.Shortest {
		args = append(args, "-shortest")
	}

	if ts.GPU {
		args = append(args, "-c:v", ts.VideoCodec, "-preset", "fast", "-rc:v", "vbr", "-cq:v", ts.CRF, "-b:v", "0")
	} else {
		args = append(args, "-c:v", ts.VideoCodec, "-preset", ts.Preset, "-crf", ts.CRF)
	}
	args = append(args,
		"-pix_fmt", ts.PixelFormat, "-profile:v", ts.Profile,
		"-colorspace", "bt709", "-color_primaries", "bt709", "-color_trc", "bt709", "-color_range", "tv",
		"-c:a", ts.AudioCodec, "-ar", strconv.Itoa(ts.SampleRate), "-b:a", ts.AudioBitrate,
		"-t", strconv.Itoa(ts.DurationSeconds),
		outputPath,
	)
	return args
}

// ConcatArgs builds the lossless stream-copy join over a concat manifest.
func ConcatArgs(manifestPath, outputPath string) []string {
	return []string{"-y", "-f", "concat", "-safe", "0", "-i", manifestPath, "-c", "copy", outputPath}
}

// ConcatReencodeArgs builds the re-encoding join fallback used when the
// stream-copy join is rejected.
func ConcatReencodeArgs(manifestPath, outputPath string) []string {
	return []string{
		"-y", "-f", "concat", "-safe", "0", "-i", manifestPath,
		"-c:v", CPUVideoCodec, "-preset", StandardPreset, "-crf", StandardCRF,
		"-c:a", AudioCodec, "-b:a", StandardAudioBitrate,
		outputPath,
	}
}

// escapeDrawText escapes characters the drawtext filter parser treats as
// delimiters.
func escapeDrawText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		":", `\:`,
		"'", `\'`,
	)
	return replacer.Replace(text)
}
