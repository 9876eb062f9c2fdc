package testsupport

import (
	"path/filepath"
	"testing"

	"streamwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Source.ThrottleMillis = 0
	cfg.Source.MaxRetries = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithKeep overrides the history retention window.
func WithKeep(keep int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.Keep = keep
	}
}

// WithCapSteps overrides the milestone step sizes.
func WithCapSteps(song, album int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Caps.SongStep = song
		cfg.Caps.AlbumStep = album
	}
}

// WithSourceBaseURL points the scraper at a test server.
func WithSourceBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Source.BaseURL = url
	}
}

// WithSpotifyCredentials enables enrichment against a test server.
func WithSpotifyCredentials(id, secret, baseURL, accountsURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Spotify.ClientID = id
		cfg.Spotify.ClientSecret = secret
		cfg.Spotify.BaseURL = baseURL
		cfg.Spotify.AccountsURL = accountsURL
	}
}
