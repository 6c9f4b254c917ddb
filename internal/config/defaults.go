package config

const (
	defaultDownloadDir  = "downloads"
	defaultReportsDir   = "reports"
	defaultSequencesDir = "sequences"
	defaultLogDir       = "~/.local/share/reframe/logs"

	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com"
	defaultGeminiModel          = "gemini-2.5-pro"
	defaultGeminiTemperature    = 0.1
	defaultGeminiTimeoutSeconds = 600
	defaultGeminiInlineLimitMiB = 18

	defaultFetchBinary  = "yt-dlp"
	defaultFFmpegBinary = "ffmpeg"
	defaultMaxHeight    = 1080

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir:  defaultDownloadDir,
			ReportsDir:   defaultReportsDir,
			SequencesDir: defaultSequencesDir,
			LogDir:       defaultLogDir,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			Temperature:    defaultGeminiTemperature,
			TimeoutSeconds: defaultGeminiTimeoutSeconds,
			InlineLimitMiB: defaultGeminiInlineLimitMiB,
		},
		Fetch: Fetch{
			Binary:       defaultFetchBinary,
			FFmpegBinary: defaultFFmpegBinary,
			MaxHeight:    defaultMaxHeight,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
