// Package pipeline executes the refresh cycle: scrape, normalize, rotate,
// enrich, and regenerate the view documents. One cycle is one unit of work;
// the daemon schedules cycles but knows nothing about their contents.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"streamwatch/internal/config"
	"streamwatch/internal/covercache"
	"streamwatch/internal/fileutil"
	"streamwatch/internal/identity"
	"streamwatch/internal/logging"
	"streamwatch/internal/rotation"
	"streamwatch/internal/services/kworb"
	"streamwatch/internal/snapshot"
	"streamwatch/internal/sourcetime"
	"streamwatch/internal/views"
)

// Fetcher retrieves raw source pages; satisfied by *kworb.Client.
type Fetcher interface {
	FetchSongs(ctx context.Context) (string, error)
	FetchAlbums(ctx context.Context) (string, error)
}

// CoverResolver resolves cover metadata; satisfied by *spotify.Resolver. A
// nil resolver disables enrichment.
type CoverResolver interface {
	ResolveSong(ctx context.Context, title string, role identity.Role) (covercache.CoverInfo, error)
	ResolveAlbum(ctx context.Context, name string) (covercache.CoverInfo, error)
}

// Deps carries the external collaborators of a Runner.
type Deps struct {
	Fetcher   Fetcher
	Covers    *covercache.Store
	Resolver  CoverResolver
	Overrides *identity.Overrides
}

// Runner executes refresh cycles against the on-disk state.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Deps

	store  *snapshot.Store
	meta   *snapshot.MetaStore
	engine *rotation.Engine

	// now is swappable in tests; cycles otherwise never read the clock
	// except for fallback timestamps and sync bookkeeping.
	now func() time.Time
}

// NewRunner wires a runner over the configured data directory.
func NewRunner(cfg *config.Config, logger *slog.Logger, deps Deps) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	store := snapshot.NewStore(filepath.Join(cfg.Paths.DataDir, "history"))
	return &Runner{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		store:  store,
		meta:   snapshot.NewMetaStore(cfg.Paths.DataDir),
		engine: rotation.NewEngine(store, cfg.History.Keep, logger),
		now:    time.Now,
	}
}

// classState is the per-class outcome of the rotate step, carried into view
// generation.
type classState struct {
	current  []snapshot.Entity
	previous []snapshot.Entity
	dateJ    string
	datePrev string
}

// RunCycle performs one full refresh. Scrape and storage failures fail the
// cycle and are recorded in the meta document; enrichment failures only
// degrade individual view fields.
func (r *Runner) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()[:8]
	log := r.logger.With(logging.String(logging.FieldCycleID, cycleID))
	log.Info("cycle started")

	if err := r.runCycle(ctx, log); err != nil {
		log.Error("cycle failed", logging.Error(err))
		r.recordFailure(log, err)
		return err
	}
	log.Info("cycle completed")
	return nil
}

func (r *Runner) runCycle(ctx context.Context, log *slog.Logger) error {
	songsPage, err := r.deps.Fetcher.FetchSongs(ctx)
	if err != nil {
		return err
	}
	albumsPage, err := r.deps.Fetcher.FetchAlbums(ctx)
	if err != nil {
		return err
	}

	songRows, err := kworb.ParseEntityTable(songsPage)
	if err != nil {
		return err
	}
	albumRows, err := kworb.ParseEntityTable(albumsPage)
	if err != nil {
		return err
	}
	roleStats := kworb.ParseRoleStats(songsPage)

	instant, ok := sourcetime.ExtractLastUpdated(songsPage)
	if !ok {
		instant = r.now().UTC()
		log.Warn("source page carries no update timestamp, using current time",
			logging.String("fallback", instant.Format(time.RFC3339)))
	}
	businessDate := sourcetime.BusinessDate(instant, r.cfg.Source.BusinessDateOffsetDays)
	instantISO := instant.UTC().Format(time.RFC3339)
	log = log.With(logging.String(logging.FieldBusinessDate, businessDate))

	built := map[snapshot.Class][]snapshot.Entity{
		snapshot.ClassSongs: buildEntities(songRows, snapshot.ClassSongs,
			r.cfg.Source.ArtistName, instantISO, businessDate, r.deps.Overrides),
		snapshot.ClassAlbums: buildEntities(albumRows, snapshot.ClassAlbums,
			r.cfg.Source.ArtistName, instantISO, businessDate, r.deps.Overrides),
	}

	states := make(map[snapshot.Class]*classState, len(snapshot.Classes))
	for _, class := range snapshot.Classes {
		state, err := r.rotateClass(class, businessDate, built[class])
		if err != nil {
			return err
		}
		states[class] = state
	}

	covers := r.enrich(ctx, states, log)

	songViews := views.Generate(states[snapshot.ClassSongs].current,
		states[snapshot.ClassSongs].previous, r.cfg.Caps.SongStep,
		states[snapshot.ClassSongs].dateJ, states[snapshot.ClassSongs].datePrev,
		covers[snapshot.ClassSongs])
	albumViews := views.Generate(states[snapshot.ClassAlbums].current,
		states[snapshot.ClassAlbums].previous, r.cfg.Caps.AlbumStep,
		states[snapshot.ClassAlbums].dateJ, states[snapshot.ClassAlbums].datePrev,
		covers[snapshot.ClassAlbums])
	revision := views.ComputeRevision(songViews, albumViews)

	if err := fileutil.WriteJSONAtomic(filepath.Join(r.cfg.Paths.DataDir, "songs.json"), songViews); err != nil {
		return err
	}
	if err := fileutil.WriteJSONAtomic(filepath.Join(r.cfg.Paths.DataDir, "albums.json"), albumViews); err != nil {
		return err
	}

	return r.writeMeta(instant, states, roleStats, revision)
}

// rotateClass loads the snapshots view generation will read, then applies
// the rotation decision. Reads come first so a same-day overwrite never
// consumes its own output as history.
func (r *Runner) rotateClass(class snapshot.Class, date string, built []snapshot.Entity) (*classState, error) {
	dates, err := r.store.ListDates(class)
	if err != nil {
		return nil, err
	}
	latest := ""
	if len(dates) > 0 {
		latest = dates[0]
	}

	state := &classState{current: built, dateJ: date}
	switch rotation.Decide(latest, date) {
	case rotation.Rotate:
		state.datePrev = latest
	case rotation.SameDay:
		if len(dates) > 1 {
			state.datePrev = dates[1]
		}
	case rotation.Skip:
		// Stale page: regenerate views from stored history instead.
		state.dateJ = latest
		if current, loadErr := r.store.Load(class, latest); loadErr == nil {
			state.current = current
		} else {
			return nil, loadErr
		}
		if len(dates) > 1 {
			state.datePrev = dates[1]
		}
	}

	if state.datePrev != "" {
		previous, err := r.store.Load(class, state.datePrev)
		if err != nil {
			return nil, err
		}
		state.previous = previous
	}

	if _, err := r.engine.Apply(class, date, built); err != nil {
		return nil, err
	}
	return state, nil
}

// enrich resolves cover metadata for every current entity, cache first.
// Cache keys carry the entity class: a song and an album sharing an id (a
// title track) resolve independently. The returned maps always reflect the
// whole cache so previously resolved entities stay enriched even when this
// cycle's lookups fail.
func (r *Runner) enrich(ctx context.Context, states map[snapshot.Class]*classState, log *slog.Logger) map[snapshot.Class]map[string]covercache.CoverInfo {
	if r.deps.Covers == nil {
		return nil
	}

	if r.deps.Resolver != nil {
		for _, class := range snapshot.Classes {
			for _, entity := range states[class].current {
				if ctx.Err() != nil {
					break
				}
				if _, cached, err := r.deps.Covers.Get(ctx, string(class), entity.ID); err != nil || cached {
					continue
				}

				var (
					info covercache.CoverInfo
					err  error
				)
				if class == snapshot.ClassSongs {
					info, err = r.deps.Resolver.ResolveSong(ctx, entity.Title, identity.Role(entity.Role))
				} else {
					info, err = r.deps.Resolver.ResolveAlbum(ctx, entity.Title)
				}
				if err != nil {
					log.Warn("cover resolution failed",
						logging.String(logging.FieldEntityClass, string(class)),
						logging.String("entity_id", entity.ID),
						logging.Error(err))
					continue
				}
				if err := r.deps.Covers.Put(ctx, string(class), entity.ID, info); err != nil {
					log.Warn("cover cache write failed",
						logging.String("entity_id", entity.ID),
						logging.Error(err))
				}
			}
		}
	}

	covers := make(map[snapshot.Class]map[string]covercache.CoverInfo, len(snapshot.Classes))
	for _, class := range snapshot.Classes {
		classCovers, err := r.deps.Covers.AsCoverMap(ctx, string(class))
		if err != nil {
			log.Warn("cover cache unreadable, views will carry null covers",
				logging.String(logging.FieldEntityClass, string(class)),
				logging.Error(err))
			continue
		}
		covers[class] = classCovers
	}
	return covers
}

func (r *Runner) writeMeta(instant time.Time, states map[snapshot.Class]*classState, roleStats *snapshot.RoleStats, revision string) error {
	songDates, err := r.store.ListDates(snapshot.ClassSongs)
	if err != nil {
		return err
	}
	albumDates, err := r.store.ListDates(snapshot.ClassAlbums)
	if err != nil {
		return err
	}
	latest := ""
	if len(songDates) > 0 {
		latest = songDates[0]
	}

	meta := &snapshot.Meta{
		KworbLastUpdateUTC: instant.UTC().Format(time.RFC3339),
		SpotifyDataDate:    states[snapshot.ClassSongs].dateJ,
		KworbDay:           instant.UTC().Format("2006-01-02"),
		LastSyncLocalISO:   r.now().Format(time.RFC3339),
		LastSyncStatus:     snapshot.SyncOK,
		CoversRevision:     revision,
		SongsRoleStats:     roleStats,
		History: snapshot.History{
			LatestDate:          latest,
			AvailableDates:      songDates,
			AvailableDatesAlbum: albumDates,
		},
	}
	return r.meta.Save(meta)
}

// recordFailure stamps the failure on the meta document, preserving the
// fields of the last successful cycle so consumers keep their freshness info.
func (r *Runner) recordFailure(log *slog.Logger, cause error) {
	meta, err := r.meta.Load()
	if err != nil || meta == nil {
		meta = &snapshot.Meta{}
	}
	meta.LastSyncLocalISO = r.now().Format(time.RFC3339)
	meta.LastSyncStatus = snapshot.SyncError
	meta.LastError = cause.Error()
	if err := r.meta.Save(meta); err != nil {
		log.Error("failed to record cycle failure", logging.Error(err))
	}
}
