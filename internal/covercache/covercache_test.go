package covercache

import (
	"context"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cover cache: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	in := CoverInfo{
		CoverURL:       "https://i.scdn.co/image/ab67616d.jpg",
		AlbumName:      "After Hours",
		SpotifyAlbumID: "4yP0hdKOZPNshxUOjY0cZj",
		ResolvedAt:     time.Date(2025, 10, 6, 4, 30, 0, 0, time.UTC),
	}
	if err := store.Put(ctx, "songs", "kworb:blinding lights@after hours", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, "songs", "kworb:blinding lights@after hours")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.CoverURL != in.CoverURL || got.AlbumName != in.AlbumName || got.SpotifyAlbumID != in.SpotifyAlbumID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.ResolvedAt.Equal(in.ResolvedAt) {
		t.Fatalf("resolved_at = %s, want %s", got.ResolvedAt, in.ResolvedAt)
	}
}

func TestGetMissing(t *testing.T) {
	store := openStore(t)
	_, ok, err := store.Get(context.Background(), "songs", "kworb:absent@unknown")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatal("missing entry reported as present")
	}
}

func TestClassesKeyedIndependently(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	// A title track gives the song and the album the same id; the entries
	// must not shadow one another.
	const id = "kworb:after hours@unknown"
	song := CoverInfo{CoverURL: "https://img/track.jpg", SpotifyAlbumID: "trackalbum"}
	if err := store.Put(ctx, "songs", id, song); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := store.Get(ctx, "albums", id); err != nil || ok {
		t.Fatalf("album slot filled by song entry: ok=%v err=%v", ok, err)
	}

	album := CoverInfo{CoverURL: "https://img/album.jpg", SpotifyAlbumID: "realalbum"}
	if err := store.Put(ctx, "albums", id, album); err != nil {
		t.Fatal(err)
	}

	gotSong, ok, err := store.Get(ctx, "songs", id)
	if err != nil || !ok || gotSong.SpotifyAlbumID != "trackalbum" {
		t.Fatalf("song entry = %+v, ok=%v err=%v", gotSong, ok, err)
	}
	gotAlbum, ok, err := store.Get(ctx, "albums", id)
	if err != nil || !ok || gotAlbum.SpotifyAlbumID != "realalbum" {
		t.Fatalf("album entry = %+v, ok=%v err=%v", gotAlbum, ok, err)
	}
}

func TestPutUpserts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "songs", "id", CoverInfo{CoverURL: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(ctx, "songs", "id", CoverInfo{CoverURL: "new", AlbumName: "Dawn FM"}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Get(ctx, "songs", "id")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.CoverURL != "new" || got.AlbumName != "Dawn FM" {
		t.Fatalf("upsert did not replace: %+v", got)
	}
}

func TestAsCoverMap(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entries := map[string]CoverInfo{
		"a": {CoverURL: "u1", AlbumName: "n1"},
		"b": {CoverURL: "u2"},
		"c": {AlbumName: "n3"},
	}
	for id, info := range entries {
		if err := store.Put(ctx, "songs", id, info); err != nil {
			t.Fatal(err)
		}
	}
	// An album entry under a shared id stays out of the songs map.
	if err := store.Put(ctx, "albums", "a", CoverInfo{CoverURL: "album-u"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.AsCoverMap(ctx, "songs")
	if err != nil {
		t.Fatalf("cover map: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("cover map size %d, want %d", len(got), len(entries))
	}
	for id, want := range entries {
		have, ok := got[id]
		if !ok || have.CoverURL != want.CoverURL || have.AlbumName != want.AlbumName {
			t.Fatalf("entry %q = %+v, want %+v", id, have, want)
		}
	}
}

func TestReopenPreservesEntries(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Put(ctx, "songs", "id", CoverInfo{CoverURL: "u"}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()

	_, ok, err := second.Get(ctx, "songs", "id")
	if err != nil || !ok {
		t.Fatalf("entry lost across reopen: ok=%v err=%v", ok, err)
	}
}
