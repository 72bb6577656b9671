package config

const (
	defaultTempDirName    = "temp_"
	defaultIntroSeconds   = 3
	defaultSegmentSeconds = 15
	defaultAudioCaption   = "Audio only submission"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultPromptTimeout  = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:     ".",
			TempDirName: defaultTempDirName,
		},
		Encoder: Encoder{
			IntroSeconds:   defaultIntroSeconds,
			SegmentSeconds: defaultSegmentSeconds,
		},
		Cache: Cache{
			Enabled: true,
		},
		Audio: Audio{
			Caption: defaultAudioCaption,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Prompt: Prompt{
			TimeoutSeconds: defaultPromptTimeout,
		},
	}
}
