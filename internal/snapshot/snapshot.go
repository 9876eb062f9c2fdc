// Package snapshot defines the persisted daily snapshot model and its
// on-disk history store. A snapshot is the normalized list of entities for
// one entity class on one business date, written as a flat JSON array under
// data/history/<class>/<date>.json. The store keeps a bounded rolling window
// of dated files per class.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"streamwatch/internal/fileutil"
	"streamwatch/internal/services"
)

// Class selects which entity list a snapshot covers.
type Class string

const (
	ClassSongs  Class = "songs"
	ClassAlbums Class = "albums"
)

// Classes lists every entity class in processing order.
var Classes = []Class{ClassSongs, ClassAlbums}

// Entity is one normalized row of a snapshot. The same shape serves both
// classes; album rows leave Album and Role empty.
type Entity struct {
	ID              string `json:"id"`
	Rank            int    `json:"rank"`
	Title           string `json:"title"`
	Album           string `json:"album,omitempty"`
	Role            string `json:"role,omitempty"`
	StreamsTotal    int64  `json:"streams_total"`
	StreamsDaily    int64  `json:"streams_daily"`
	LastUpdateKworb string `json:"last_update_kworb"`
	SpotifyDataDate string `json:"spotify_data_date"`
}

var dateFilePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.json$`)

// Store reads and writes dated snapshot files beneath a history root.
type Store struct {
	root string
}

// NewStore creates a store rooted at historyRoot (normally data/history).
func NewStore(historyRoot string) *Store {
	return &Store{root: historyRoot}
}

func (s *Store) classDir(class Class) string {
	return filepath.Join(s.root, string(class))
}

// Path returns the file a snapshot for the given class and date lives at.
func (s *Store) Path(class Class, date string) string {
	return filepath.Join(s.classDir(class), date+".json")
}

// Save writes a snapshot atomically, creating the class directory as needed.
// Saving the same date twice replaces the file in full. The date must be a
// well-formed ISO business date; anything else would produce a file ListDates
// can never see again.
func (s *Store) Save(class Class, date string, entities []Entity) error {
	if !ValidDate(date) {
		return services.Wrap(services.ErrConfiguration, "snapshot", "save",
			fmt.Sprintf("malformed business date %q", date), nil)
	}
	if err := os.MkdirAll(s.classDir(class), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "snapshot", "save", "create history directory", err)
	}
	if entities == nil {
		entities = []Entity{}
	}
	if err := fileutil.WriteJSONAtomic(s.Path(class, date), entities); err != nil {
		return services.Wrap(services.ErrTransient, "snapshot", "save",
			fmt.Sprintf("write %s snapshot for %s", class, date), err)
	}
	return nil
}

// Load reads the snapshot for a date. A missing file is not an error: the
// caller treats it as "no snapshot yet" and gets (nil, nil). A file that
// exists but cannot be decoded is reported so a damaged slot is never
// silently treated as empty.
func (s *Store) Load(class Class, date string) ([]Entity, error) {
	var entities []Entity
	if err := fileutil.ReadJSON(s.Path(class, date), &entities); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrParse, "snapshot", "load",
			fmt.Sprintf("decode %s snapshot for %s", class, date), err)
	}
	return entities, nil
}

// ListDates returns the business dates that have a snapshot for the class,
// newest first. Files that do not match the <date>.json naming are ignored.
func (s *Store) ListDates(class Class) ([]string, error) {
	entries, err := os.ReadDir(s.classDir(class))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransient, "snapshot", "list", "read history directory", err)
	}
	dates := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if m := dateFilePattern.FindStringSubmatch(entry.Name()); m != nil {
			dates = append(dates, m[1])
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// LatestDate returns the newest snapshot date for the class, or "" when the
// class has no history yet.
func (s *Store) LatestDate(class Class) (string, error) {
	dates, err := s.ListDates(class)
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", nil
	}
	return dates[0], nil
}

// Prune deletes snapshots beyond the newest keep dates and returns the dates
// removed. keep <= 0 removes nothing.
func (s *Store) Prune(class Class, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	dates, err := s.ListDates(class)
	if err != nil {
		return nil, err
	}
	if len(dates) <= keep {
		return nil, nil
	}
	removed := make([]string, 0, len(dates)-keep)
	for _, date := range dates[keep:] {
		if err := os.Remove(s.Path(class, date)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, services.Wrap(services.ErrTransient, "snapshot", "prune",
				fmt.Sprintf("remove expired %s snapshot %s", class, date), err)
		}
		removed = append(removed, date)
	}
	return removed, nil
}

// ValidDate reports whether a string is a well-formed ISO business date.
func ValidDate(date string) bool {
	return dateFilePattern.MatchString(strings.TrimSpace(date) + ".json")
}
