package views

import "testing"

func covered(id, cover, album string) Entity {
	e := Entity{}
	e.ID = id
	if cover != "" {
		e.CoverURL = &cover
	}
	if album != "" {
		e.AlbumName = &album
	}
	return e
}

func TestComputeRevisionOrderIndependent(t *testing.T) {
	a := covered("a", "u1", "n1")
	b := covered("b", "u2", "n2")
	c := covered("c", "u3", "")

	first := ComputeRevision([]Entity{a, b}, []Entity{c})
	second := ComputeRevision([]Entity{b, a}, []Entity{c})
	third := ComputeRevision([]Entity{c, a, b}, nil)

	if first != second || first != third {
		t.Fatalf("revision depends on order: %s / %s / %s", first, second, third)
	}
	if len(first) != 12 {
		t.Fatalf("revision length %d, want 12", len(first))
	}
}

func TestComputeRevisionSensitivity(t *testing.T) {
	base := ComputeRevision([]Entity{covered("a", "u1", "n1")}, nil)

	if got := ComputeRevision([]Entity{covered("a", "u2", "n1")}, nil); got == base {
		t.Fatal("cover change must change the revision")
	}
	if got := ComputeRevision([]Entity{covered("a", "u1", "n2")}, nil); got == base {
		t.Fatal("album name change must change the revision")
	}
	if got := ComputeRevision([]Entity{covered("a", "u1", "n1")}, nil); got != base {
		t.Fatal("identical input must be idempotent")
	}
}

func TestComputeRevisionSkipsUnenriched(t *testing.T) {
	enriched := []Entity{covered("a", "u1", "n1")}
	withBare := append([]Entity{covered("zzz", "", "")}, enriched...)
	if ComputeRevision(enriched, nil) != ComputeRevision(withBare, nil) {
		t.Fatal("entities without cover metadata must not affect the revision")
	}
}
