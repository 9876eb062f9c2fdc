// Package kworb fetches and parses the per-artist streaming tables published
// by kworb.net. The pages are plain HTML: a sortable table of entity rows
// plus, on the songs page, a small aggregate table with lead/feat totals.
package kworb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"streamwatch/internal/config"
	"streamwatch/internal/logging"
	"streamwatch/internal/services"
)

// Client fetches artist pages with retry, backoff, and a polite throttle
// between consecutive requests.
type Client struct {
	http     *resty.Client
	cfg      *config.Config
	logger   *slog.Logger
	throttle time.Duration
	lastReq  time.Time
}

// NewClient builds a client from source configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := resty.New().
		SetTimeout(time.Duration(cfg.Source.RequestTimeout) * time.Second).
		SetRetryCount(cfg.Source.MaxRetries).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		SetHeader("User-Agent", cfg.Source.UserAgent)

	return &Client{
		http:     httpClient,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "kworb")),
		throttle: time.Duration(cfg.Source.ThrottleMillis) * time.Millisecond,
	}
}

// FetchSongs retrieves the raw songs page HTML.
func (c *Client) FetchSongs(ctx context.Context) (string, error) {
	return c.fetch(ctx, c.cfg.SongsURL())
}

// FetchAlbums retrieves the raw albums page HTML.
func (c *Client) FetchAlbums(ctx context.Context) (string, error) {
	return c.fetch(ctx, c.cfg.AlbumsURL())
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	c.waitThrottle(ctx)

	c.logger.Debug("fetching source page", logging.String("url", url))
	resp, err := c.http.R().SetContext(ctx).Get(url)
	c.lastReq = time.Now()
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "kworb", "fetch",
			fmt.Sprintf("request %s", url), err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", services.Wrap(services.ErrNotFound, "kworb", "fetch",
			fmt.Sprintf("page %s does not exist", url), nil)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "kworb", "fetch",
			fmt.Sprintf("unexpected status %d for %s", resp.StatusCode(), url), nil)
	}
	return string(resp.Body()), nil
}

// waitThrottle spaces requests at least the configured throttle apart.
func (c *Client) waitThrottle(ctx context.Context) {
	if c.throttle <= 0 || c.lastReq.IsZero() {
		return
	}
	remaining := c.throttle - time.Since(c.lastReq)
	if remaining <= 0 {
		return
	}
	select {
	case <-time.After(remaining):
	case <-ctx.Done():
	}
}
