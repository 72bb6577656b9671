package encoding

import "fmt"

// Standard processing constants. Every segment is normalized to this profile
// so the final join can run without re-encoding. Changing any value here
// invalidates existing cache entries through the fingerprint comparison.
const (
	StandardWidth        = 1920
	StandardHeight       = 1080
	StandardFPS          = 30
	StandardPixelFormat  = "yuv420p"
	StandardProfile      = "high"
	StandardCRF          = "23"
	StandardPreset       = "medium"
	StandardSampleRate   = 48000
	StandardAudioBitrate = "128k"

	CPUVideoCodec = "libx264"
	GPUVideoCodec = "h264_nvenc"
	AudioCodec    = "aac"

	// EBU R128 normalization targets.
	loudnessTarget = "-16"
	loudnessPeak   = "-1.5"
	loudnessRange  = "11"
)

// StandardVideoFilter scales into 1920x1080 preserving aspect ratio,
// letterboxing or pillarboxing as needed, and forces 30 fps.
func StandardVideoFilter() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d",
		StandardWidth, StandardHeight, StandardWidth, StandardHeight, StandardFPS)
}

// StandardAudioFilter resamples to 48 kHz, forces a stereo layout, and
// applies EBU R128 loudness normalization.
func StandardAudioFilter() string {
	return fmt.Sprintf("aresample=%d,aformat=channel_layouts=stereo,loudnorm=I=%s:TP=%s:LRA=%s",
		StandardSampleRate, loudnessTarget, loudnessPeak, loudnessRange)
}

// StandardResolution renders the target dimensions as "WxH".
func StandardResolution() string {
	return fmt.Sprintf("%dx%d", StandardWidth, StandardHeight)
}
