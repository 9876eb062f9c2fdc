package identity

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase and trim", "  Blinding Lights  ", "blinding lights"},
		{"billing glyph stripped", "*Love Me Harder (with The Weeknd)", "love me harder"},
		{"compilation glyph stripped", "^Often", "often"},
		{"feat cut", "Hurricane feat. The Weeknd", "hurricane"},
		{"featuring cut", "Pray For Me featuring Kendrick", "pray for me"},
		{"ft cut", "Low Life ft Future", "low life"},
		{"with cut", "Moth To A Flame with The Weeknd", "moth to a flame"},
		{"x cut", "La Fama x Rosalia", "la fama"},
		{"ampersand cut", "The Party & The After Party", "the party"},
		{"and cut", "Creepin and Friends", "creepin"},
		{"parenthetical cut", "In Your Eyes (Remix)", "in your eyes"},
		{"soundtrack suffix cut", `Elastic Heart - From "The Hunger Games" Soundtrack`, "elastic heart"},
		{"punctuation stripped", "D.D.", "dd"},
		{"accents folded", "Déjà Vu", "deja vu"},
		{"whitespace collapsed", "Save   Your\tTears", "save your tears"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestIDComposition(t *testing.T) {
	if got := ID("Blinding Lights", ""); got != "kworb:blinding lights@unknown" {
		t.Fatalf("unexpected id: %q", got)
	}
	if got := ID("Wicked Games", "House Of Balloons (Original)"); got != "kworb:wicked games@house of balloons" {
		t.Fatalf("unexpected id: %q", got)
	}
	if got := ID("Starboy", "Unknown"); got != "kworb:starboy@unknown" {
		t.Fatalf("sentinel album should map to unknown: %q", got)
	}
}

// Identity must be stable across runs regardless of rank: the id is derived
// from title and album only.
func TestIDStability(t *testing.T) {
	first := ID("Die For You", "Starboy")
	second := ID("  die for you ", "STARBOY")
	if first != second {
		t.Fatalf("ids differ for equivalent input: %q vs %q", first, second)
	}
}
