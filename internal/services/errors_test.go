package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	underlying := errors.New("connection refused")
	err := Wrap(ErrTransient, "kworb", "fetch songs", "", underlying)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient tag: %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("expected underlying error preserved: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "spotify", "search", "no results", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("nil marker should default to transient: %v", err)
	}
}

func TestWrapDetailComposition(t *testing.T) {
	err := Wrap(ErrParse, "kworb", "parse table", "sortable table missing", nil)
	want := "parse error: kworb: parse table: sortable table missing"
	if err.Error() != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", err.Error(), want)
	}
}
