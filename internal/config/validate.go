package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateCaps(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		return errors.New("source.base_url must be set")
	}
	if strings.TrimSpace(c.Source.ArtistID) == "" {
		return errors.New("source.artist_id must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"source.request_timeout": c.Source.RequestTimeout,
		"source.max_retries":     c.Source.MaxRetries,
	}); err != nil {
		return err
	}
	if c.Source.ThrottleMillis < 0 {
		return errors.New("source.throttle_millis must not be negative")
	}
	if c.Source.BusinessDateOffsetDays < 0 {
		return errors.New("source.business_date_offset_days must not be negative")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Keep < 2 {
		return errors.New("history.keep must be at least 2 (current day plus one prior day)")
	}
	return nil
}

func (c *Config) validateCaps() error {
	if c.Caps.SongStep <= 0 {
		return errors.New("caps.song_step must be positive")
	}
	if c.Caps.AlbumStep <= 0 {
		return errors.New("caps.album_step must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.RefreshInterval <= 0 {
		return errors.New("workflow.refresh_interval must be positive")
	}
	if c.Workflow.JitterSeconds < 0 {
		return errors.New("workflow.jitter_seconds must not be negative")
	}
	if c.Workflow.JitterSeconds*2 >= c.Workflow.RefreshInterval {
		return errors.New("workflow.jitter_seconds must be well below workflow.refresh_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
