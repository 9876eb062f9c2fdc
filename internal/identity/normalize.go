package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Source is the prefix of every entity id produced by this package.
const Source = "kworb"

// UnknownAlbum is the album segment used until enrichment resolves a real name.
const UnknownAlbum = "unknown"

// billingGlyphs are leading markers kworb uses for billing: "*" for featured
// appearances, "^" for compilation entries. They carry role information but
// must never influence identity matching.
const billingGlyphs = "*^"

// conjunctions cut the matching key at the first featuring/collaboration
// fragment. Display titles keep the full text; only the key is shortened.
var conjunctions = []string{
	" feat.", " feat ", " featuring ", " ft.", " ft ",
	" with ", " x ", " & ", " and ",
}

// accentFolder decomposes characters and drops combining marks, so "Déjà Vu"
// and "Deja Vu" normalize to the same key.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces free-text titles to a stable matching key: billing glyphs
// and accents removed, lowercased, featuring fragments and parenthesized or
// "- from ..." source attributions cut, punctuation stripped, whitespace
// collapsed.
func Normalize(text string) string {
	text = strings.TrimLeft(strings.TrimSpace(text), billingGlyphs)
	if folded, _, err := transform.String(accentFolder, text); err == nil {
		text = folded
	}
	text = strings.ToLower(strings.TrimSpace(text))

	if cut := earliestIndex(text, conjunctions); cut >= 0 {
		text = text[:cut]
	}
	if idx := strings.Index(text, "("); idx >= 0 {
		text = text[:idx]
	}
	if idx := strings.Index(text, " - from "); idx >= 0 {
		text = text[:idx]
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ID composes a stable entity id from a title and an optional album. The id
// never contains the rank, so it survives day-to-day chart movement.
func ID(title, album string) string {
	normTitle := Normalize(title)
	normAlbum := Normalize(album)
	if normAlbum == "" || normAlbum == UnknownAlbum {
		normAlbum = UnknownAlbum
	}
	return Source + ":" + normTitle + "@" + normAlbum
}

func earliestIndex(text string, needles []string) int {
	best := -1
	for _, needle := range needles {
		if idx := strings.Index(text, needle); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}
