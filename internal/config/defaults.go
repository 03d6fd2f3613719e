package config

const (
	defaultStateDir       = "~/.local/share/clipfeed"
	defaultLogDir         = "~/.local/share/clipfeed/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultSampleFPS      = 20
	defaultFrameSize      = 224
	defaultSampleRate     = 16000
	defaultNominalSamples = 16331
	defaultClipExtension  = ".mp4"
	defaultDecodeTimeout  = 30
	defaultBatchSize      = 48
	defaultPrefetchDepth  = 6
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Decode: Decode{
			SampleFPS:      defaultSampleFPS,
			FrameSize:      defaultFrameSize,
			SampleRate:     defaultSampleRate,
			NominalSamples: defaultNominalSamples,
			ClipExtension:  defaultClipExtension,
			TimeoutSeconds: defaultDecodeTimeout,
		},
		Batch: Batch{
			Size:     defaultBatchSize,
			Workers:  0,
			Prefetch: defaultPrefetchDepth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
