// Package spotify resolves cover art and canonical album names through the
// Spotify Web API using the client-credentials flow. Enrichment is strictly
// best-effort: every failure here degrades a view field to null, never a
// cycle.
package spotify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"streamwatch/internal/config"
	"streamwatch/internal/logging"
	"streamwatch/internal/services"
)

// AlbumMatch is one candidate album returned by a search.
type AlbumMatch struct {
	AlbumID   string
	AlbumName string
	CoverURL  string
}

// Client talks to the Spotify Web API, caching the access token until it
// expires.
type Client struct {
	http   *resty.Client
	cfg    *config.Config
	logger *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// tokenLeeway renews the token slightly early so in-flight requests never
// race its expiry.
const tokenLeeway = 30 * time.Second

// NewClient builds an API client from configuration. Credentials are not
// checked here; the first request surfaces auth problems.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := resty.New().
		SetTimeout(time.Duration(cfg.Spotify.RequestTimeout) * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(time.Minute).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err == nil && resp.StatusCode() == http.StatusTooManyRequests
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if secs, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil && secs > 0 {
				return time.Duration(secs) * time.Second, nil
			}
			return time.Second, nil
		})

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "spotify")),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp.Add(-tokenLeeway)) {
		return c.token, nil
	}

	var tr tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.Spotify.ClientID, c.cfg.Spotify.ClientSecret).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody("grant_type=client_credentials").
		SetResult(&tr).
		Post(c.cfg.Spotify.AccountsURL + "/api/token")
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "spotify", "token", "request access token", err)
	}
	if resp.StatusCode() != http.StatusOK || tr.AccessToken == "" {
		return "", services.Wrap(services.ErrConfiguration, "spotify", "token",
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode()), nil)
	}

	c.token = tr.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	c.logger.Debug("access token refreshed")
	return c.token, nil
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			Album apiAlbum `json:"album"`
		} `json:"items"`
	} `json:"tracks"`
	Albums struct {
		Items []apiAlbum `json:"items"`
	} `json:"albums"`
}

type apiAlbum struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

func (a apiAlbum) match() AlbumMatch {
	m := AlbumMatch{AlbumID: a.ID, AlbumName: a.Name}
	if len(a.Images) > 0 {
		m.CoverURL = a.Images[0].URL
	}
	return m
}

// SearchTrackAlbum searches tracks by title, scoped to an artist when one is
// given, and returns the candidate albums in result order.
func (c *Client) SearchTrackAlbum(ctx context.Context, title, artist string) ([]AlbumMatch, error) {
	query := title
	if artist != "" {
		query = fmt.Sprintf("track:%s artist:%s", title, artist)
	}
	var sr searchResponse
	if err := c.search(ctx, query, "track", &sr); err != nil {
		return nil, err
	}
	matches := make([]AlbumMatch, 0, len(sr.Tracks.Items))
	for _, item := range sr.Tracks.Items {
		matches = append(matches, item.Album.match())
	}
	return matches, nil
}

// SearchAlbum searches albums by name, scoped to an artist when one is given.
func (c *Client) SearchAlbum(ctx context.Context, name, artist string) ([]AlbumMatch, error) {
	query := name
	if artist != "" {
		query = fmt.Sprintf("album:%s artist:%s", name, artist)
	}
	var sr searchResponse
	if err := c.search(ctx, query, "album", &sr); err != nil {
		return nil, err
	}
	matches := make([]AlbumMatch, 0, len(sr.Albums.Items))
	for _, item := range sr.Albums.Items {
		matches = append(matches, item.match())
	}
	return matches, nil
}

func (c *Client) search(ctx context.Context, query, kind string, out *searchResponse) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":      query,
			"type":   kind,
			"market": c.cfg.Spotify.Market,
			"limit":  "5",
		}).
		SetResult(out).
		Get(c.cfg.Spotify.BaseURL + "/v1/search")
	if err != nil {
		return services.Wrap(services.ErrTransient, "spotify", "search",
			fmt.Sprintf("search %s %q", kind, query), err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		// Token may have been revoked; drop it so the next call re-auths.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return services.Wrap(services.ErrTransient, "spotify", "search", "access token rejected", nil)
	}
	if resp.StatusCode() != http.StatusOK {
		return services.Wrap(services.ErrTransient, "spotify", "search",
			fmt.Sprintf("search returned status %d", resp.StatusCode()), nil)
	}
	return nil
}
