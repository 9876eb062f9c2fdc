package identity

import "strings"

// Role describes the artist's billing on a track.
type Role string

const (
	RoleLead Role = "lead"
	RoleFeat Role = "feat"
)

// featMarkers are conjunctions that, when they precede the artist's name in a
// title, indicate a featured appearance rather than a lead credit.
var featMarkers = []string{"feat.", "feat ", "ft.", "ft ", "with ", " x ", " & "}

// DetectRole classifies a raw title as a lead or featured credit. A leading
// "*" billing glyph is kworb's explicit feat marker; otherwise the title text
// is inspected for a featuring conjunction appearing before the artist name.
func DetectRole(title, artistName string) Role {
	trimmed := strings.TrimSpace(title)
	if strings.HasPrefix(trimmed, "*") {
		return RoleFeat
	}

	lower := strings.ToLower(trimmed)
	artist := strings.ToLower(strings.TrimSpace(artistName))
	if artist == "" {
		return RoleLead
	}

	artistPos := strings.Index(lower, artist)
	if artistPos < 0 {
		return RoleLead
	}
	for _, marker := range featMarkers {
		if markerPos := strings.Index(lower, marker); markerPos >= 0 && artistPos > markerPos {
			return RoleFeat
		}
	}
	return RoleLead
}
