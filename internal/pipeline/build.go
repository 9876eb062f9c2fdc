package pipeline

import (
	"strings"

	"streamwatch/internal/identity"
	"streamwatch/internal/services/kworb"
	"streamwatch/internal/snapshot"
)

// buildEntities converts parsed source rows into the normalized snapshot
// records for one class. Order of operations matters: removal-list filtering
// and the spurious-duplicate filter run on base ids, then collision suffixes
// are assigned over the survivors in rank order.
func buildEntities(rows []kworb.Row, class snapshot.Class, artistName, instantISO, businessDate string, overrides *identity.Overrides) []snapshot.Entity {
	type candidate struct {
		row    kworb.Row
		baseID string
		role   identity.Role
	}

	candidates := make([]candidate, 0, len(rows))
	activeByBase := make(map[string]bool, len(rows))
	countByBase := make(map[string]int, len(rows))
	for _, row := range rows {
		if overrides.Excluded(row.Title) {
			continue
		}
		c := candidate{row: row, baseID: identity.ID(row.Title, "")}
		if class == snapshot.ClassSongs {
			c.role = identity.DetectRole(row.Title, artistName)
		}
		candidates = append(candidates, c)
		countByBase[c.baseID]++
		if row.Daily > 0 {
			activeByBase[c.baseID] = true
		}
	}

	assigner := identity.NewAssigner()
	entities := make([]snapshot.Entity, 0, len(candidates))
	for _, c := range candidates {
		// A re-listed stale duplicate of an active record carries zero daily
		// streams; keep the active record(s) and drop the ghost.
		if countByBase[c.baseID] > 1 && activeByBase[c.baseID] && c.row.Daily == 0 {
			continue
		}
		entity := snapshot.Entity{
			ID:              assigner.Assign(c.baseID),
			Rank:            len(entities) + 1,
			Title:           displayTitle(c.row.Title),
			StreamsTotal:    c.row.Total,
			StreamsDaily:    c.row.Daily,
			LastUpdateKworb: instantISO,
			SpotifyDataDate: businessDate,
		}
		if class == snapshot.ClassSongs {
			entity.Role = string(c.role)
		}
		entities = append(entities, entity)
	}
	return entities
}

// displayTitle strips the source's billing glyphs; the role field carries
// that information instead.
func displayTitle(raw string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "*^"))
}
