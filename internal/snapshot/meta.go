package snapshot

import (
	"errors"
	"os"
	"path/filepath"

	"streamwatch/internal/fileutil"
	"streamwatch/internal/services"
)

// SyncStatus records the outcome of the most recent pipeline cycle.
type SyncStatus string

const (
	SyncOK    SyncStatus = "ok"
	SyncError SyncStatus = "error"
)

// RoleStats carries the aggregate lead/feat stream totals the source
// publishes alongside the song table.
type RoleStats struct {
	LeadTotal int64 `json:"lead_total"`
	LeadDaily int64 `json:"lead_daily"`
	FeatTotal int64 `json:"feat_total"`
	FeatDaily int64 `json:"feat_daily"`
}

// History summarizes the dated snapshots currently on disk.
type History struct {
	LatestDate          string   `json:"latest_date"`
	AvailableDates      []string `json:"available_dates"`
	AvailableDatesAlbum []string `json:"available_dates_albums"`
}

// Meta is the small process-state document written beside the views after
// every cycle. Consumers read it to display freshness and health without
// touching the snapshot history.
type Meta struct {
	KworbLastUpdateUTC string     `json:"kworb_last_update_utc"`
	SpotifyDataDate    string     `json:"spotify_data_date"`
	KworbDay           string     `json:"kworb_day"`
	LastSyncLocalISO   string     `json:"last_sync_local_iso"`
	LastSyncStatus     SyncStatus `json:"last_sync_status"`
	LastError          string     `json:"last_error,omitempty"`
	CoversRevision     string     `json:"covers_revision"`
	SongsRoleStats     *RoleStats `json:"songs_role_stats,omitempty"`
	History            History    `json:"history"`
}

// MetaStore persists the meta document at <dataDir>/meta.json.
type MetaStore struct {
	path string
}

// NewMetaStore creates a store for the meta document under dataDir.
func NewMetaStore(dataDir string) *MetaStore {
	return &MetaStore{path: filepath.Join(dataDir, "meta.json")}
}

// Path returns the location of the meta document.
func (m *MetaStore) Path() string { return m.path }

// Load reads the current meta document. Absent means first run: (nil, nil).
func (m *MetaStore) Load() (*Meta, error) {
	var meta Meta
	if err := fileutil.ReadJSON(m.path, &meta); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrParse, "snapshot", "meta", "decode meta document", err)
	}
	return &meta, nil
}

// Save writes the meta document atomically.
func (m *MetaStore) Save(meta *Meta) error {
	if err := fileutil.WriteJSONAtomic(m.path, meta); err != nil {
		return services.Wrap(services.ErrTransient, "snapshot", "meta", "write meta document", err)
	}
	return nil
}
