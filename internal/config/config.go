package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Source contains configuration for the kworb.net ranking pages.
type Source struct {
	BaseURL        string `toml:"base_url"`
	ArtistID       string `toml:"artist_id"`
	ArtistName     string `toml:"artist_name"`
	UserAgent      string `toml:"user_agent"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxRetries     int    `toml:"max_retries"`
	ThrottleMillis int    `toml:"throttle_millis"`

	// BusinessDateOffsetDays is subtracted from the UTC calendar day of the
	// source's "Last updated" timestamp to obtain the date the data actually
	// reflects. kworb publishes one calendar day ahead of the data.
	BusinessDateOffsetDays int `toml:"business_date_offset_days"`
}

// Spotify contains configuration for the Spotify Web API used for cover
// enrichment. Credentials may also be supplied via SPOTIFY_CLIENT_ID and
// SPOTIFY_CLIENT_SECRET environment variables or a .env file next to the
// config file.
type Spotify struct {
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	Market         string `toml:"market"`
	BaseURL        string `toml:"base_url"`
	AccountsURL    string `toml:"accounts_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// History contains configuration for the rolling snapshot window.
type History struct {
	Keep int `toml:"keep"`
}

// Caps contains milestone step sizes per entity class.
type Caps struct {
	SongStep  int64 `toml:"song_step"`
	AlbumStep int64 `toml:"album_step"`
}

// Workflow contains refresh loop timing.
type Workflow struct {
	RefreshInterval int `toml:"refresh_interval"`
	JitterSeconds   int `toml:"jitter_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Identity contains configuration for the identity normalizer.
type Identity struct {
	// OverridesPath points at a user-authored JSON table of curated
	// title-to-album mappings and exclusions.
	OverridesPath string `toml:"overrides_path"`
}

// Config encapsulates all configuration values for streamwatch.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Source   Source   `toml:"source"`
	Spotify  Spotify  `toml:"spotify"`
	History  History  `toml:"history"`
	Caps     Caps     `toml:"caps"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
	Identity Identity `toml:"identity"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/streamwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and Spotify credentials overlaid from
// the environment.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streamwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize(configDir string) error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if strings.TrimSpace(c.Identity.OverridesPath) != "" {
		if c.Identity.OverridesPath, err = expandPath(c.Identity.OverridesPath); err != nil {
			return err
		}
	}

	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	c.Spotify.BaseURL = strings.TrimRight(strings.TrimSpace(c.Spotify.BaseURL), "/")
	c.Spotify.AccountsURL = strings.TrimRight(strings.TrimSpace(c.Spotify.AccountsURL), "/")

	c.overlayEnv(configDir)
	return nil
}

// overlayEnv fills Spotify credentials from the environment when the config
// file leaves them blank. A .env file next to the config file is honored to
// keep secrets out of the TOML.
func (c *Config) overlayEnv(configDir string) {
	if configDir != "" {
		_ = godotenv.Load(filepath.Join(configDir, ".env"))
	}
	if c.Spotify.ClientID == "" {
		c.Spotify.ClientID = strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID"))
	}
	if c.Spotify.ClientSecret == "" {
		c.Spotify.ClientSecret = strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_SECRET"))
	}
	if market := strings.TrimSpace(os.Getenv("SPOTIFY_MARKET")); market != "" {
		c.Spotify.Market = market
	}
}

// SpotifyEnabled reports whether cover enrichment can run.
func (c *Config) SpotifyEnabled() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Join(c.Paths.DataDir, "history", "songs"),
		filepath.Join(c.Paths.DataDir, "history", "albums"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SongsURL returns the kworb ranking page URL for the configured artist's songs.
func (c *Config) SongsURL() string {
	return fmt.Sprintf("%s/spotify/artist/%s_songs.html", c.Source.BaseURL, c.Source.ArtistID)
}

// AlbumsURL returns the kworb ranking page URL for the configured artist's albums.
func (c *Config) AlbumsURL() string {
	return fmt.Sprintf("%s/spotify/artist/%s_albums.html", c.Source.BaseURL, c.Source.ArtistID)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
