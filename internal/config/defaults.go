package config

const (
	defaultDataDir         = "~/.local/share/streamwatch/data"
	defaultLogDir          = "~/.local/share/streamwatch/logs"
	defaultSourceBaseURL   = "https://kworb.net"
	defaultArtistID        = "1Xyo4u8uXC1ZmMpatF05PJ"
	defaultArtistName      = "The Weeknd"
	defaultUserAgent       = "streamwatch/1.0 (streaming stats dashboard)"
	defaultRequestTimeout  = 30
	defaultMaxRetries      = 3
	defaultThrottleMillis  = 1000
	defaultDateOffsetDays  = 1
	defaultSpotifyBaseURL  = "https://api.spotify.com/v1"
	defaultSpotifyAccounts = "https://accounts.spotify.com"
	defaultSpotifyMarket   = "US"
	defaultSpotifyTimeout  = 15
	defaultHistoryKeep     = 3
	defaultSongCapStep     = 100_000_000
	defaultAlbumCapStep    = 1_000_000_000
	defaultRefreshInterval = 600
	defaultJitterSeconds   = 15
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Source: Source{
			BaseURL:                defaultSourceBaseURL,
			ArtistID:               defaultArtistID,
			ArtistName:             defaultArtistName,
			UserAgent:              defaultUserAgent,
			RequestTimeout:         defaultRequestTimeout,
			MaxRetries:             defaultMaxRetries,
			ThrottleMillis:         defaultThrottleMillis,
			BusinessDateOffsetDays: defaultDateOffsetDays,
		},
		Spotify: Spotify{
			Market:         defaultSpotifyMarket,
			BaseURL:        defaultSpotifyBaseURL,
			AccountsURL:    defaultSpotifyAccounts,
			RequestTimeout: defaultSpotifyTimeout,
		},
		History: History{
			Keep: defaultHistoryKeep,
		},
		Caps: Caps{
			SongStep:  defaultSongCapStep,
			AlbumStep: defaultAlbumCapStep,
		},
		Workflow: Workflow{
			RefreshInterval: defaultRefreshInterval,
			JitterSeconds:   defaultJitterSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
