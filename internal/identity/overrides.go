package identity

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Overrides loads a user-authored policy table for identity and enrichment
// decisions: explicit title-to-album mappings for titles whose album cannot be
// derived from search (soundtracks, original mixtape editions), albums that
// must never be used as cover sources, and titles excluded from views
// entirely. The table is content tuning, kept in data rather than code.
type Overrides struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	loaded time.Time
	data   overridesFile
}

type overridesFile struct {
	// Albums maps a raw display title to its canonical album name.
	Albums map[string]string `json:"albums"`
	// AlbumBlacklist lists albums never used as a cover source for songs.
	AlbumBlacklist []string `json:"album_blacklist"`
	// Remove lists display titles excluded from generated views.
	Remove []string `json:"remove"`
}

// NewOverrides constructs an override table backed by the provided JSON file.
// Returns nil for an empty path; all methods are nil-safe.
func NewOverrides(path string, logger *slog.Logger) *Overrides {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Overrides{path: trimmed, logger: logger}
}

// CanonicalAlbum returns the curated album for a title, when one exists.
func (o *Overrides) CanonicalAlbum(title string) (string, bool) {
	if o == nil {
		return "", false
	}
	if err := o.ensureLoaded(); err != nil {
		o.logger.Warn("override table unreadable", slog.String("path", o.path), slog.Any("error", err))
		return "", false
	}
	key := Normalize(title)

	o.mu.RLock()
	defer o.mu.RUnlock()
	for raw, album := range o.data.Albums {
		if Normalize(raw) == key {
			return album, true
		}
	}
	return "", false
}

// AlbumBlacklisted reports whether an album must not be used as a cover source.
func (o *Overrides) AlbumBlacklisted(album string) bool {
	if o == nil {
		return false
	}
	if err := o.ensureLoaded(); err != nil {
		return false
	}
	key := Normalize(album)

	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, entry := range o.data.AlbumBlacklist {
		if Normalize(entry) == key {
			return true
		}
	}
	return false
}

// Excluded reports whether a title is removed from generated views.
func (o *Overrides) Excluded(title string) bool {
	if o == nil {
		return false
	}
	if err := o.ensureLoaded(); err != nil {
		return false
	}
	key := Normalize(title)

	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, entry := range o.data.Remove {
		if Normalize(entry) == key {
			return true
		}
	}
	return false
}

// ensureLoaded reloads the table when the backing file's mtime changed, so
// edits are picked up without a restart.
func (o *Overrides) ensureLoaded() error {
	info, err := os.Stat(o.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	o.mu.RLock()
	current := !o.loaded.IsZero() && o.loaded.Equal(info.ModTime())
	o.mu.RUnlock()
	if current {
		return nil
	}

	data, err := os.ReadFile(o.path)
	if err != nil {
		return err
	}

	var parsed overridesFile
	if len(data) > 0 {
		if err := json.Unmarshal(data, &parsed); err != nil {
			return err
		}
	}

	o.mu.Lock()
	o.data = parsed
	o.loaded = info.ModTime()
	o.mu.Unlock()

	o.logger.Info("loaded identity overrides",
		slog.String("path", o.path),
		slog.Int("albums", len(parsed.Albums)),
		slog.Int("removed", len(parsed.Remove)))
	return nil
}
