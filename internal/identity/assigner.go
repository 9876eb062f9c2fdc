package identity

import "strconv"

// Assigner disambiguates id collisions within a single scrape. The first
// occurrence of a composed id keeps it unchanged; later occurrences get a
// "-2", "-3", ... suffix in input order. Input order is rank order, so the
// result is deterministic for identical raw input.
//
// An Assigner is scoped to one normalization pass and must not be reused
// across scrapes.
type Assigner struct {
	seen map[string]int
}

// NewAssigner creates an assigner for one scrape cycle.
func NewAssigner() *Assigner {
	return &Assigner{seen: make(map[string]int)}
}

// Assign returns the unique id for the next occurrence of baseID.
func (a *Assigner) Assign(baseID string) string {
	a.seen[baseID]++
	if n := a.seen[baseID]; n > 1 {
		return baseID + "-" + strconv.Itoa(n)
	}
	return baseID
}
