package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Duration      string `json:"duration"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	PixFmt        string `json:"pix_fmt"`
	RFrameRate    string `json:"r_frame_rate"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return parse(output)
}

func parse(payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Client binds Inspect to a configured binary so consumers can take a small
// inspection dependency.
type Client struct {
	Binary string
}

func (c Client) Inspect(ctx context.Context, path string) (Result, error) {
	return Inspect(ctx, c.Binary, path)
}

// FirstVideo returns the first video stream, or nil when none exists.
func (r Result) FirstVideo() *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, "video") {
			return &r.Streams[i]
		}
	}
	return nil
}

// FirstAudio returns the first audio stream, or nil when none exists.
func (r Result) FirstAudio() *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, "audio") {
			return &r.Streams[i]
		}
	}
	return nil
}

// DurationSeconds returns the container duration in seconds, or 0 when
// unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// Resolution renders the stream dimensions as "WxH".
func (s Stream) Resolution() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// FPS converts the r_frame_rate fraction into frames per second, or 0 when
// the fraction is missing or malformed.
func (s Stream) FPS() float64 {
	parts := strings.SplitN(strings.TrimSpace(s.RFrameRate), "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

// VideoSummary renders the one-line diagnostic for a produced artifact's
// video stream.
func (r Result) VideoSummary() string {
	v := r.FirstVideo()
	if v == nil {
		return ""
	}
	fps := "unknown fps"
	if value := v.FPS(); value > 0 {
		fps = fmt.Sprintf("%.1ffps", value)
	}
	return fmt.Sprintf("video: %s %s %s %s", v.CodecName, v.Resolution(), fps, v.PixFmt)
}

// AudioSummary renders the one-line diagnostic for a produced artifact's
// audio stream.
func (r Result) AudioSummary() string {
	a := r.FirstAudio()
	if a == nil {
		return ""
	}
	layout := ""
	if a.ChannelLayout != "" && a.ChannelLayout != "stereo" {
		layout = " (" + a.ChannelLayout + ")"
	}
	return fmt.Sprintf("audio: %s %sHz %dch%s", a.CodecName, a.SampleRate, a.Channels, layout)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return 0
}
