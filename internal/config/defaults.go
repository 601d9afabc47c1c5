package config

const (
	defaultConfigPath        = "~/.config/podcaster/config.toml"
	defaultCacheDir          = "~/.local/share/podcaster/cache"
	defaultLogDir            = "~/.local/share/podcaster/logs"
	defaultHistoryPath       = "~/.local/share/podcaster/history.db"
	defaultTelegramBaseURL   = "https://api.telegram.org"
	defaultTelegramTimeout   = 600
	defaultTelegramRate      = 1.0
	defaultBitrate           = 80
	defaultSampleRate        = 32000
	defaultChannels          = 1
	defaultConvert           = ConvertAuto
	defaultOrder             = OrderAuto
	defaultRetryInterval     = 3
	defaultSizeLimitMiB      = 49
	defaultCacheDelimiter    = ","
	defaultCacheQuote        = "\""
	defaultCacheEscape       = "\\"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLinkType          = LinkPlaylist
	tokenEnv                 = "PODCASTER_TELEGRAM_TOKEN"
	defaultCacheFileSuffix   = ".csv"
	defaultUnnamedTaskPrefix = "task"
)

// Traversal orders.
const (
	OrderNewestFirst = "newest_first"
	OrderOldestFirst = "oldest_first"
	OrderAuto        = "auto"
)

// Convert policies.
const (
	ConvertAlways = "always"
	ConvertNever  = "never"
	ConvertAuto   = "auto"
)

// Link types.
const (
	LinkPlaylist = "playlist"
	LinkTrack    = "track"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Telegram: Telegram{
			APIBaseURL:     defaultTelegramBaseURL,
			RequestTimeout: defaultTelegramTimeout,
			RatePerSecond:  defaultTelegramRate,
		},
		Encoding: Encoding{
			Bitrate:    defaultBitrate,
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
			Convert:    defaultConvert,
		},
		Upload: Upload{
			Order:         defaultOrder,
			RetryInterval: defaultRetryInterval,
			SizeLimitMiB:  defaultSizeLimitMiB,
		},
		Cache: Cache{
			Delimiter: defaultCacheDelimiter,
			Quote:     defaultCacheQuote,
			Escape:    defaultCacheEscape,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
