package kworb

import "testing"

const songsPage = `<html><head><title>The Weeknd - Spotify</title></head><body>
<span>Spotify streaming numbers. Last updated: 2025/10/06</span>
<table>
<tr><th></th><th>Total</th><th>As lead</th><th>Solo</th><th>As feature</th></tr>
<tr><td>Streams</td><td>83,500,000,000</td><td>44,000,000,000</td><td>30,000,000,000</td><td>9,500,000,000</td></tr>
<tr><td>Daily</td><td>52,200,000</td><td>28,000,000</td><td>18,000,000</td><td>6,200,000</td></tr>
<tr><td>Tracks</td><td>250</td><td>150</td><td>70</td><td>30</td></tr>
</table>
<table class="addpos sortable">
<tr><th>Track</th><th>Streams</th><th>Daily</th></tr>
<tr><td><a href="../track/0VjIjW4GlUZAMYd2vXMi3b.html">Blinding Lights</a></td><td>4,412,012,345</td><td>3,201,456</td></tr>
<tr><td><a href="../track/5aAx2yezTd8zXrkmtKl66Z.html">Starboy</a></td><td>3,510,998,110</td><td>2,944,012</td></tr>
<tr><td><a href="../track/1.html">*Love Me Harder (with The Weeknd)</a></td><td>905,443,210</td><td>410,223</td></tr>
</table>
</body></html>`

const albumsPage = `<html><body>
<table class="sortable">
<tr><th>Album</th><th>Streams</th><th>Daily</th></tr>
<tr><td><a href="x.html">After Hours</a></td><td>12,000,000,000</td><td>9,000,000</td></tr>
<tr><td><a href="y.html">Starboy</a></td><td>11,500,000,000</td><td>8,400,000</td></tr>
</table>
</body></html>`

func TestParseEntityTableSongs(t *testing.T) {
	rows, err := ParseEntityTable(songsPage)
	if err != nil {
		t.Fatalf("parse songs: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Title != "Blinding Lights" || rows[0].Total != 4_412_012_345 || rows[0].Daily != 3_201_456 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	// The billing glyph survives parsing; role detection consumes it later.
	if rows[2].Title != "*Love Me Harder (with The Weeknd)" {
		t.Fatalf("row 2 title = %q", rows[2].Title)
	}
}

func TestParseEntityTableAlbums(t *testing.T) {
	rows, err := ParseEntityTable(albumsPage)
	if err != nil {
		t.Fatalf("parse albums: %v", err)
	}
	if len(rows) != 2 || rows[1].Title != "Starboy" || rows[1].Daily != 8_400_000 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestParseEntityTableMissingTableFails(t *testing.T) {
	if _, err := ParseEntityTable("<html><body><p>maintenance</p></body></html>"); err == nil {
		t.Fatal("page without sortable table must fail parse, not read as empty chart")
	}
}

func TestParseRoleStats(t *testing.T) {
	stats := ParseRoleStats(songsPage)
	if stats == nil {
		t.Fatal("role stats not found")
	}
	if stats.LeadTotal != 44_000_000_000 || stats.LeadDaily != 28_000_000 {
		t.Fatalf("lead stats = %+v", stats)
	}
	if stats.FeatTotal != 9_500_000_000 || stats.FeatDaily != 6_200_000 {
		t.Fatalf("feat stats = %+v", stats)
	}
}

func TestParseRoleStatsHeaderWithoutLabelCell(t *testing.T) {
	// Some renderings omit the header's leading empty cell, so value rows
	// carry one more cell than the header.
	page := `<html><body>
<table>
<tr><th>Total</th><th>As lead</th><th>Solo</th><th>As feature</th></tr>
<tr><td>Streams</td><td>83,500,000,000</td><td>44,000,000,000</td><td>30,000,000,000</td><td>9,500,000,000</td></tr>
<tr><td>Daily</td><td>52,200,000</td><td>28,000,000</td><td>18,000,000</td><td>6,200,000</td></tr>
</table>
<table class="sortable"><tr><td>x</td><td>1</td><td>1</td></tr></table>
</body></html>`
	stats := ParseRoleStats(page)
	if stats == nil {
		t.Fatal("role stats not found")
	}
	if stats.LeadTotal != 44_000_000_000 || stats.FeatDaily != 6_200_000 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestParseRoleStatsAbsent(t *testing.T) {
	if stats := ParseRoleStats(albumsPage); stats != nil {
		t.Fatalf("albums page must carry no role stats, got %+v", stats)
	}
}

func TestParseRoleStatsIgnoresRowOrientedTable(t *testing.T) {
	// A summary table that does not carry the role columns in its header
	// yields nothing rather than misread values.
	page := `<html><body>
<table>
<tr><th>Totals</th><th>Streams</th><th>Daily</th></tr>
<tr><td>As lead</td><td>44,000,000,000</td><td>28,000,000</td></tr>
<tr><td>As feature</td><td>9,500,000,000</td><td>6,200,000</td></tr>
</table>
</body></html>`
	if stats := ParseRoleStats(page); stats != nil {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCleanNumber(t *testing.T) {
	cases := map[string]int64{
		"4,412,012,345": 4_412_012_345,
		" 123 ":         123,
		"0":             0,
	}
	for raw, want := range cases {
		got, err := cleanNumber(raw)
		if err != nil || got != want {
			t.Fatalf("cleanNumber(%q) = %d, %v", raw, got, err)
		}
	}
	if _, err := cleanNumber("n/a"); err == nil {
		t.Fatal("non-numeric cell must fail")
	}
}
