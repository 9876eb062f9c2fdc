// Package covercache persists resolved cover metadata in SQLite so
// enrichment survives restarts and a title is looked up against the Spotify
// API at most once. Entries are keyed by (entity class, entity id): a song
// and an album can share an id when the album's title track charts, and the
// two resolve to different Spotify records. The pipeline consults the cache
// before issuing any network lookup.
package covercache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes; a mismatched database is
// refused rather than migrated, since the cache can always be rebuilt.
const schemaVersion = 1

// ErrSchemaMismatch indicates the cache database was written by a different
// schema version.
var ErrSchemaMismatch = errors.New("cover cache schema version mismatch")

// CoverInfo is the resolved metadata for one entity.
type CoverInfo struct {
	CoverURL       string
	AlbumName      string
	SpotifyAlbumID string
	ResolvedAt     time.Time
}

// Store is the SQLite-backed cover cache.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open connects to (or creates) the cache database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "covers.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Put upserts the resolved metadata for one entity of a class.
func (s *Store) Put(ctx context.Context, class, entityID string, info CoverInfo) error {
	ctx = ensureContext(ctx)
	resolvedAt := info.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now().UTC()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO covers (entity_class, entity_id, cover_url, album_name, spotify_album_id, resolved_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(entity_class, entity_id) DO UPDATE SET
                 cover_url = excluded.cover_url,
                 album_name = excluded.album_name,
                 spotify_album_id = excluded.spotify_album_id,
                 resolved_at = excluded.resolved_at`,
			class, entityID, info.CoverURL, info.AlbumName, info.SpotifyAlbumID,
			resolvedAt.Format(time.RFC3339Nano))
		return err
	})
}

// Get returns the cached metadata for one entity of a class, reporting
// whether an entry exists.
func (s *Store) Get(ctx context.Context, class, entityID string) (CoverInfo, bool, error) {
	ctx = ensureContext(ctx)
	var (
		info CoverInfo
		raw  string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT cover_url, album_name, spotify_album_id, resolved_at FROM covers WHERE entity_class = ? AND entity_id = ?",
		class, entityID,
	).Scan(&info.CoverURL, &info.AlbumName, &info.SpotifyAlbumID, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return CoverInfo{}, false, nil
	}
	if err != nil {
		return CoverInfo{}, false, fmt.Errorf("read cover entry: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
		info.ResolvedAt = ts
	}
	return info, true, nil
}

// AsCoverMap loads one class's cached entries keyed by entity id, the shape
// the view generator consumes.
func (s *Store) AsCoverMap(ctx context.Context, class string) (map[string]CoverInfo, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT entity_id, cover_url, album_name, spotify_album_id, resolved_at FROM covers WHERE entity_class = ?",
		class)
	if err != nil {
		return nil, fmt.Errorf("list cover entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]CoverInfo)
	for rows.Next() {
		var (
			id   string
			info CoverInfo
			raw  string
		)
		if err := rows.Scan(&id, &info.CoverURL, &info.AlbumName, &info.SpotifyAlbumID, &raw); err != nil {
			return nil, fmt.Errorf("scan cover entry: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			info.ResolvedAt = ts
		}
		out[id] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cover entries: %w", err)
	}
	return out, nil
}
