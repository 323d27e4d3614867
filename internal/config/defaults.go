package config

const (
	defaultWorkDir      = "~/.local/share/montage/work"
	defaultHistoryDB    = "~/.local/share/montage/history.db"
	defaultFFmpeg       = "ffmpeg"
	defaultFFprobe      = "ffprobe"
	defaultGraceSeconds = 5
	defaultWidth        = 1280
	defaultHeight       = 720
	defaultFPS          = 25.0
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			HistoryDB: defaultHistoryDB,
		},
		Tools: Tools{
			FFmpeg:       defaultFFmpeg,
			FFprobe:      defaultFFprobe,
			GraceSeconds: defaultGraceSeconds,
		},
		Render: Render{
			Width:  defaultWidth,
			Height: defaultHeight,
			FPS:    defaultFPS,
		},
		Audio: Audio{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
