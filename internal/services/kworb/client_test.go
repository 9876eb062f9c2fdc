package kworb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamwatch/internal/services"
	"streamwatch/internal/testsupport"
)

func TestClientFetchSongs(t *testing.T) {
	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(songsPage))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSourceBaseURL(srv.URL))
	client := NewClient(cfg, nil)

	page, err := client.FetchSongs(context.Background())
	if err != nil {
		t.Fatalf("fetch songs: %v", err)
	}
	if want := "/spotify/artist/" + cfg.Source.ArtistID + "_songs.html"; gotPath != want {
		t.Fatalf("request path = %q, want %q", gotPath, want)
	}
	if gotAgent != cfg.Source.UserAgent {
		t.Fatalf("user agent = %q, want %q", gotAgent, cfg.Source.UserAgent)
	}
	if _, err := ParseEntityTable(page); err != nil {
		t.Fatalf("fetched page does not parse: %v", err)
	}
}

func TestClientFetchMissingPageIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSourceBaseURL(srv.URL))
	client := NewClient(cfg, nil)

	if _, err := client.FetchAlbums(context.Background()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing page error = %v, want not-found", err)
	}
}

func TestClientServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSourceBaseURL(srv.URL))
	client := NewClient(cfg, nil)

	if _, err := client.FetchSongs(context.Background()); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("server error = %v, want transient", err)
	}
}
