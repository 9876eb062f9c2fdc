// Package views derives the flat "current view" documents consumed by the
// front end. Generation is a pure function of the two newest snapshots plus
// cover metadata; it reads no clock and touches no storage, so the same
// inputs always produce byte-identical output.
package views

import (
	"streamwatch/internal/covercache"
	"streamwatch/internal/snapshot"
)

// Entity is one row of a current view document: the snapshot record plus the
// fields derived against the previous business date. Pointer fields are null
// on the wire when no previous record (or cover) exists, which consumers read
// as "no history" rather than "no change".
type Entity struct {
	snapshot.Entity

	StreamsDailyPrev *int64  `json:"streams_daily_prev"`
	RankPrev         *int    `json:"rank_prev"`
	RankDelta        *int    `json:"rank_delta"`
	DeltaBaseDate    *string `json:"delta_base_date"`
	DeltaForDate     string  `json:"delta_for_date"`
	VariationPct     Metric  `json:"variation_pct"`
	NextCapValue     int64   `json:"next_cap_value"`
	DaysToNextCap    Metric  `json:"days_to_next_cap"`
	CoverURL         *string `json:"cover_url"`
	AlbumName        *string `json:"album_name"`
	SpotifyAlbumID   *string `json:"spotify_album_id,omitempty"`
}

// NextCap returns the smallest multiple of step strictly greater than total.
// An exact multiple has already been reached, so it advances a full step.
func NextCap(total, step int64) int64 {
	if step <= 0 {
		return total
	}
	return (total/step)*step + step
}

// Generate derives the view rows for one entity class. current and previous
// are the J and J-1 snapshots; previous may be nil on first run. dateJPrev is
// empty exactly when previous is nil. covers supplies enrichment metadata
// keyed by entity id.
func Generate(current, previous []snapshot.Entity, capStep int64, dateJ, dateJPrev string, covers map[string]covercache.CoverInfo) []Entity {
	prevByID := make(map[string]snapshot.Entity, len(previous))
	for _, p := range previous {
		prevByID[p.ID] = p
	}

	out := make([]Entity, 0, len(current))
	for _, cur := range current {
		row := Entity{
			Entity:       cur,
			DeltaForDate: dateJ,
			NextCapValue: NextCap(cur.StreamsTotal, capStep),
		}
		if dateJPrev != "" {
			base := dateJPrev
			row.DeltaBaseDate = &base
		}

		if prev, ok := prevByID[cur.ID]; ok {
			dailyPrev := prev.StreamsDaily
			rankPrev := prev.Rank
			delta := prev.Rank - cur.Rank
			row.StreamsDailyPrev = &dailyPrev
			row.RankPrev = &rankPrev
			row.RankDelta = &delta
			row.VariationPct = variation(cur, prev)
		} else {
			row.VariationPct = NotDeterminable()
		}

		if cur.StreamsDaily > 0 {
			row.DaysToNextCap = Numeric(round2(float64(row.NextCapValue-cur.StreamsTotal) / float64(cur.StreamsDaily)))
		} else {
			row.DaysToNextCap = NotDeterminable()
		}

		if info, ok := covers[cur.ID]; ok {
			if info.CoverURL != "" {
				u := info.CoverURL
				row.CoverURL = &u
			}
			if info.AlbumName != "" {
				n := info.AlbumName
				row.AlbumName = &n
			}
			if info.SpotifyAlbumID != "" {
				id := info.SpotifyAlbumID
				row.SpotifyAlbumID = &id
			}
		}

		out = append(out, row)
	}
	return out
}

// variation computes the day-over-day percentage change in daily streams.
// Identical totals mean the source has not refreshed yet; comparing dailies
// then would manufacture a phantom -100%, so the result is undetermined. A
// non-positive previous daily leaves no base to compare against.
func variation(cur, prev snapshot.Entity) Metric {
	if cur.StreamsTotal == prev.StreamsTotal {
		return NotDeterminable()
	}
	if prev.StreamsDaily <= 0 {
		return NotDeterminable()
	}
	change := float64(cur.StreamsDaily-prev.StreamsDaily) / float64(prev.StreamsDaily) * 100
	return Numeric(round2(change))
}
