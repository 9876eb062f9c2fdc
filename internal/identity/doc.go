// Package identity derives stable, rank-free entity identifiers from raw
// chart titles so the same song or album can be matched across days.
//
// Identifiers take the form "kworb:<title-key>@<album-key>", where both keys
// are aggressively normalized (accents folded, featuring fragments and
// parenthetical attributions cut, punctuation stripped). Collisions within one
// scrape are disambiguated with ordinal suffixes in rank order.
package identity
