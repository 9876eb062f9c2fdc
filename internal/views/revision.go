package views

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ComputeRevision fingerprints the cover metadata across both view documents.
// The front end uses it as a cache-busting token: it changes exactly when any
// cover URL or album name changes, regardless of entity order.
func ComputeRevision(songs, albums []Entity) string {
	var parts []string
	collect := func(entities []Entity) {
		for _, e := range entities {
			cover, album := "", ""
			if e.CoverURL != nil {
				cover = *e.CoverURL
			}
			if e.AlbumName != nil {
				album = *e.AlbumName
			}
			if cover == "" && album == "" {
				continue
			}
			parts = append(parts, e.ID+":"+cover+":"+album)
		}
	}
	collect(songs)
	collect(albums)

	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:12]
}
