package config

const (
	defaultStateDir        = "~/.local/share/reelsmith"
	defaultAssetsDir       = "~/.local/share/reelsmith/assets"
	defaultLogDir          = "~/.local/share/reelsmith/logs"
	defaultAPIBind         = "127.0.0.1:7519"
	defaultSocketPath      = "~/.local/share/reelsmith/reelsmithd.sock"
	defaultGenAIBaseURL    = "https://openrouter.ai/api/v1"
	defaultGenAIModel      = "google/gemini-3-flash-preview"
	defaultGenAIImageModel = "google/gemini-3-flash-image"
	defaultGenAIReferer    = "https://github.com/reelsmith/reelsmith"
	defaultGenAITitle      = "Reelsmith"
	defaultGenAITimeout    = 60
	// Conservative spacing against a roughly one-call-per-minute quota.
	defaultCooldownSeconds = 65
	defaultSheetLogTimeout = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			AssetsDir:  defaultAssetsDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
			SocketPath: defaultSocketPath,
		},
		GenAI: GenAI{
			BaseURL:        defaultGenAIBaseURL,
			Model:          defaultGenAIModel,
			ImageModel:     defaultGenAIImageModel,
			Referer:        defaultGenAIReferer,
			Title:          defaultGenAITitle,
			TimeoutSeconds: defaultGenAITimeout,
		},
		Serializer: Serializer{
			CooldownSeconds: defaultCooldownSeconds,
		},
		SheetLog: SheetLog{
			RequestTimeout: defaultSheetLogTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
