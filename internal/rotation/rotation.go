// Package rotation decides whether an incoming snapshot advances the rolling
// history window. The comparison is purely lexicographic over ISO dates, so
// the decision never depends on wall-clock time and a replayed older page can
// never roll the window backwards.
package rotation

import (
	"log/slog"

	"streamwatch/internal/logging"
	"streamwatch/internal/snapshot"
)

// Decision is the outcome of comparing an incoming business date against the
// newest date already in history.
type Decision int

const (
	// Rotate means the incoming date opens a new slot and the retention
	// window advances.
	Rotate Decision = iota
	// SameDay means the incoming date equals the newest slot; its snapshot
	// replaces that slot in full.
	SameDay
	// Skip means the incoming date is older than the newest slot and is
	// discarded without touching history.
	Skip
)

func (d Decision) String() string {
	switch d {
	case Rotate:
		return "rotate"
	case SameDay:
		return "same-day"
	default:
		return "skip"
	}
}

// Decide compares the incoming business date against the latest stored date.
// An empty latest means first run and always rotates. ISO dates compare
// correctly as strings.
func Decide(latest, incoming string) Decision {
	switch {
	case latest == "" || incoming > latest:
		return Rotate
	case incoming == latest:
		return SameDay
	default:
		return Skip
	}
}

// Engine applies rotation decisions against a snapshot store with a fixed
// retention window.
type Engine struct {
	store  *snapshot.Store
	keep   int
	logger *slog.Logger
}

// NewEngine creates an engine persisting to store and retaining keep dated
// snapshots per class.
func NewEngine(store *snapshot.Store, keep int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{store: store, keep: keep, logger: logger}
}

// Apply decides and executes the rotation for one class. On Rotate it saves
// the snapshot and prunes slots beyond the retention window; on SameDay it
// overwrites the newest slot; on Skip it writes nothing. The decision taken
// is returned either way.
func (e *Engine) Apply(class snapshot.Class, date string, entities []snapshot.Entity) (Decision, error) {
	latest, err := e.store.LatestDate(class)
	if err != nil {
		return Skip, err
	}

	decision := Decide(latest, date)
	log := e.logger.With(
		logging.String(logging.FieldEntityClass, string(class)),
		logging.String(logging.FieldBusinessDate, date))

	switch decision {
	case Skip:
		log.Warn("stale source date, keeping existing history",
			logging.String("latest_date", latest))
		return Skip, nil
	case SameDay:
		log.Info("same-day refresh, replacing newest snapshot")
	case Rotate:
		log.Info("rotating history window", logging.String("previous_latest", latest))
	}

	if err := e.store.Save(class, date, entities); err != nil {
		return decision, err
	}
	if decision == Rotate {
		removed, err := e.store.Prune(class, e.keep)
		if err != nil {
			return decision, err
		}
		for _, expired := range removed {
			log.Info("expired snapshot removed", logging.String("expired_date", expired))
		}
	}
	return decision, nil
}
