package spotify

import (
	"context"
	"log/slog"
	"time"

	"streamwatch/internal/covercache"
	"streamwatch/internal/identity"
	"streamwatch/internal/logging"
	"streamwatch/internal/services"
)

// Searcher is the API surface the resolver needs; satisfied by *Client and by
// test doubles.
type Searcher interface {
	SearchTrackAlbum(ctx context.Context, title, artist string) ([]AlbumMatch, error)
	SearchAlbum(ctx context.Context, name, artist string) ([]AlbumMatch, error)
}

// Resolver picks the best album and cover for an entity. Precedence: a
// curated canonical-album mapping wins over search; blacklisted albums are
// never used as song cover sources; feat titles search unscoped because the
// track belongs to another artist's catalog.
type Resolver struct {
	searcher  Searcher
	overrides *identity.Overrides
	artist    string
	logger    *slog.Logger
}

// NewResolver builds a resolver. overrides may be nil.
func NewResolver(searcher Searcher, overrides *identity.Overrides, artistName string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		searcher:  searcher,
		overrides: overrides,
		artist:    artistName,
		logger:    logger.With(logging.String(logging.FieldComponent, "resolver")),
	}
}

// ResolveSong finds cover metadata for a song title. A lookup with no usable
// candidate returns ErrNotFound; transport failures pass through. Either way
// the caller treats the entity as unenriched.
func (r *Resolver) ResolveSong(ctx context.Context, title string, role identity.Role) (covercache.CoverInfo, error) {
	if canonical, ok := r.overrides.CanonicalAlbum(title); ok {
		matches, err := r.searcher.SearchAlbum(ctx, canonical, r.artist)
		if err != nil {
			return covercache.CoverInfo{}, err
		}
		if info, ok := r.firstUsable(matches); ok {
			return info, nil
		}
		r.logger.Warn("curated album not found in search, falling back",
			logging.String("title", title),
			logging.String("album", canonical))
	}

	artistScope := r.artist
	if role == identity.RoleFeat {
		artistScope = ""
	}
	matches, err := r.searcher.SearchTrackAlbum(ctx, title, artistScope)
	if err != nil {
		return covercache.CoverInfo{}, err
	}
	if info, ok := r.firstUsable(matches); ok {
		return info, nil
	}
	return covercache.CoverInfo{}, services.Wrap(services.ErrNotFound, "resolver", "resolve-song",
		"no usable album candidate for "+title, nil)
}

// ResolveAlbum finds cover metadata for an album by name.
func (r *Resolver) ResolveAlbum(ctx context.Context, name string) (covercache.CoverInfo, error) {
	matches, err := r.searcher.SearchAlbum(ctx, name, r.artist)
	if err != nil {
		return covercache.CoverInfo{}, err
	}
	for _, m := range matches {
		if m.CoverURL == "" {
			continue
		}
		return coverInfo(m), nil
	}
	return covercache.CoverInfo{}, services.Wrap(services.ErrNotFound, "resolver", "resolve-album",
		"no usable cover candidate for "+name, nil)
}

// firstUsable returns the first candidate carrying a cover whose album is not
// blacklisted.
func (r *Resolver) firstUsable(matches []AlbumMatch) (covercache.CoverInfo, bool) {
	for _, m := range matches {
		if m.CoverURL == "" {
			continue
		}
		if r.overrides.AlbumBlacklisted(m.AlbumName) {
			continue
		}
		return coverInfo(m), true
	}
	return covercache.CoverInfo{}, false
}

func coverInfo(m AlbumMatch) covercache.CoverInfo {
	return covercache.CoverInfo{
		CoverURL:       m.CoverURL,
		AlbumName:      m.AlbumName,
		SpotifyAlbumID: m.AlbumID,
		ResolvedAt:     time.Now().UTC(),
	}
}
