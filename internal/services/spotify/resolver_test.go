package spotify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"streamwatch/internal/identity"
	"streamwatch/internal/logging"
	"streamwatch/internal/services"
)

type fakeSearcher struct {
	trackResults map[string][]AlbumMatch
	albumResults map[string][]AlbumMatch
	trackQueries []string
	albumQueries []string
	err          error
}

func (f *fakeSearcher) SearchTrackAlbum(_ context.Context, title, artist string) ([]AlbumMatch, error) {
	f.trackQueries = append(f.trackQueries, title+"|"+artist)
	if f.err != nil {
		return nil, f.err
	}
	return f.trackResults[title], nil
}

func (f *fakeSearcher) SearchAlbum(_ context.Context, name, artist string) ([]AlbumMatch, error) {
	f.albumQueries = append(f.albumQueries, name+"|"+artist)
	if f.err != nil {
		return nil, f.err
	}
	return f.albumResults[name], nil
}

func overridesFromJSON(t *testing.T, content string) *identity.Overrides {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return identity.NewOverrides(path, logging.NewNop())
}

func TestResolveSongScopedByRole(t *testing.T) {
	searcher := &fakeSearcher{trackResults: map[string][]AlbumMatch{
		"Blinding Lights": {{AlbumID: "1", AlbumName: "After Hours", CoverURL: "u"}},
	}}
	r := NewResolver(searcher, nil, "The Weeknd", logging.NewNop())

	info, err := r.ResolveSong(context.Background(), "Blinding Lights", identity.RoleLead)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.AlbumName != "After Hours" || info.CoverURL != "u" {
		t.Fatalf("info = %+v", info)
	}
	if searcher.trackQueries[0] != "Blinding Lights|The Weeknd" {
		t.Fatalf("lead title must search scoped to artist: %q", searcher.trackQueries[0])
	}

	searcher.trackResults["Love Me Harder"] = []AlbumMatch{{AlbumName: "My Everything", CoverURL: "u2"}}
	if _, err := r.ResolveSong(context.Background(), "Love Me Harder", identity.RoleFeat); err != nil {
		t.Fatal(err)
	}
	if searcher.trackQueries[1] != "Love Me Harder|" {
		t.Fatalf("feat title must search unscoped: %q", searcher.trackQueries[1])
	}
}

func TestResolveSongCanonicalAlbumWins(t *testing.T) {
	overrides := overridesFromJSON(t, `{"albums": {"Where You Belong": "Fifty Shades Of Grey"}}`)
	searcher := &fakeSearcher{
		albumResults: map[string][]AlbumMatch{
			"Fifty Shades Of Grey": {{AlbumID: "9", AlbumName: "Fifty Shades Of Grey", CoverURL: "soundtrack"}},
		},
		trackResults: map[string][]AlbumMatch{
			"Where You Belong": {{AlbumName: "Wrong Compilation", CoverURL: "wrong"}},
		},
	}
	r := NewResolver(searcher, overrides, "The Weeknd", logging.NewNop())

	info, err := r.ResolveSong(context.Background(), "Where You Belong", identity.RoleLead)
	if err != nil {
		t.Fatal(err)
	}
	if info.CoverURL != "soundtrack" {
		t.Fatalf("curated album must win over track search: %+v", info)
	}
	if len(searcher.trackQueries) != 0 {
		t.Fatalf("track search must not run when curation resolves: %v", searcher.trackQueries)
	}
}

func TestResolveSongSkipsBlacklistedAlbums(t *testing.T) {
	overrides := overridesFromJSON(t, `{"album_blacklist": ["The Highlights"]}`)
	searcher := &fakeSearcher{trackResults: map[string][]AlbumMatch{
		"Blinding Lights": {
			{AlbumName: "The Highlights", CoverURL: "compilation"},
			{AlbumName: "After Hours", CoverURL: "studio"},
		},
	}}
	r := NewResolver(searcher, overrides, "The Weeknd", logging.NewNop())

	info, err := r.ResolveSong(context.Background(), "Blinding Lights", identity.RoleLead)
	if err != nil {
		t.Fatal(err)
	}
	if info.AlbumName != "After Hours" {
		t.Fatalf("blacklisted album used as cover source: %+v", info)
	}
}

func TestResolveSongNoCandidateIsNotFound(t *testing.T) {
	r := NewResolver(&fakeSearcher{}, nil, "The Weeknd", logging.NewNop())
	_, err := r.ResolveSong(context.Background(), "Unreleased Demo", identity.RoleLead)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestResolveSongTransportErrorPassesThrough(t *testing.T) {
	boom := services.Wrap(services.ErrTransient, "spotify", "search", "socket closed", nil)
	r := NewResolver(&fakeSearcher{err: boom}, nil, "The Weeknd", logging.NewNop())
	_, err := r.ResolveSong(context.Background(), "Blinding Lights", identity.RoleLead)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("want transient error, got %v", err)
	}
}

func TestResolveAlbum(t *testing.T) {
	searcher := &fakeSearcher{albumResults: map[string][]AlbumMatch{
		"After Hours": {
			{AlbumID: "noimg", AlbumName: "After Hours (Karaoke)"},
			{AlbumID: "4y", AlbumName: "After Hours", CoverURL: "u"},
		},
	}}
	r := NewResolver(searcher, nil, "The Weeknd", logging.NewNop())

	info, err := r.ResolveAlbum(context.Background(), "After Hours")
	if err != nil {
		t.Fatal(err)
	}
	if info.SpotifyAlbumID != "4y" || info.CoverURL != "u" {
		t.Fatalf("info = %+v", info)
	}
}
