package kworb

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"streamwatch/internal/services"
	"streamwatch/internal/snapshot"
)

// Row is one entity row as published: display title plus the cumulative and
// daily stream counts. Rank is the 1-based position in the table.
type Row struct {
	Title string
	Total int64
	Daily int64
}

// ParseEntityTable extracts the rows of the page's sortable table in
// published order. A page without a sortable table is a parse failure, not an
// empty chart.
func ParseEntityTable(page string) ([]Row, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "kworb", "parse", "parse page HTML", err)
	}

	table := findTable(doc, func(classes string) bool {
		return strings.Contains(classes, "sortable")
	})
	if table == nil {
		return nil, services.Wrap(services.ErrParse, "kworb", "parse", "no sortable table in page", nil)
	}

	var rows []Row
	for _, tr := range tableRows(table) {
		cells := cellTexts(tr)
		if len(cells) < 3 {
			continue
		}
		total, err := cleanNumber(cells[1])
		if err != nil {
			continue
		}
		daily, err := cleanNumber(cells[2])
		if err != nil {
			continue
		}
		title := strings.TrimSpace(cells[0])
		if title == "" {
			continue
		}
		rows = append(rows, Row{Title: title, Total: total, Daily: daily})
	}
	if len(rows) == 0 {
		return nil, services.Wrap(services.ErrParse, "kworb", "parse", "sortable table has no data rows", nil)
	}
	return rows, nil
}

// ParseRoleStats extracts the aggregate lead/feat totals from the songs
// page's summary table: the first table without the sortable class, laid out
// with a header row naming the role columns (Total / As lead / Solo / As
// feature) followed by Streams and Daily rows whose leading cell is the
// label. Absence is not an error; not every page carries the table.
func ParseRoleStats(page string) *snapshot.RoleStats {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}

	table := findTable(doc, func(classes string) bool {
		return !strings.Contains(classes, "sortable")
	})
	if table == nil {
		return nil
	}

	rows := allRows(table)
	if len(rows) < 3 {
		return nil
	}

	header := rowTexts(rows[0])
	leadCol, featCol := -1, -1
	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "as lead":
			leadCol = i
		case "as feature":
			featCol = i
		}
	}
	if leadCol < 0 && featCol < 0 {
		return nil
	}

	var streams, daily []string
	for _, tr := range rows[1:] {
		cells := cellTexts(tr)
		if len(cells) == 0 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(cells[0])) {
		case "streams":
			streams = cells
		case "daily":
			daily = cells
		}
	}
	if streams == nil || daily == nil {
		return nil
	}

	// Value rows lead with a label cell the header may lack; align column
	// indices by the length difference.
	col := func(cells []string, headerIdx int) (int64, bool) {
		pos := headerIdx + len(cells) - len(header)
		if pos < 0 || pos >= len(cells) {
			return 0, false
		}
		value, err := cleanNumber(cells[pos])
		return value, err == nil
	}

	var stats snapshot.RoleStats
	found := false
	if leadCol >= 0 {
		if total, okT := col(streams, leadCol); okT {
			if d, okD := col(daily, leadCol); okD {
				stats.LeadTotal, stats.LeadDaily = total, d
				found = true
			}
		}
	}
	if featCol >= 0 {
		if total, okT := col(streams, featCol); okT {
			if d, okD := col(daily, featCol); okD {
				stats.FeatTotal, stats.FeatDaily = total, d
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return &stats
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

// findTable returns the first table whose class attribute (empty when the
// table carries none) satisfies match.
func findTable(doc *html.Node, match func(classes string) bool) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode || n.Data != "table" {
			return
		}
		classes := ""
		for _, attr := range n.Attr {
			if attr.Key == "class" {
				classes = attr.Val
				break
			}
		}
		if match(classes) {
			found = n
		}
	})
	return found
}

// tableRows returns the table's tr nodes, skipping the header row when the
// table carries one (th cells).
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	walk(table, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "tr" {
			return
		}
		if hasElement(n, "th") {
			return
		}
		rows = append(rows, n)
	})
	return rows
}

// allRows returns every tr of a table, header included.
func allRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	walk(table, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, n)
		}
	})
	return rows
}

func hasElement(n *html.Node, name string) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == name {
			return true
		}
	}
	return false
}

func cellTexts(tr *html.Node) []string {
	var cells []string
	for child := tr.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "td" {
			cells = append(cells, nodeText(child))
		}
	}
	return cells
}

// rowTexts reads a row's cells whether they are th or td, for header rows.
func rowTexts(tr *html.Node) []string {
	var cells []string
	for child := tr.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && (child.Data == "th" || child.Data == "td") {
			cells = append(cells, nodeText(child))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(sb.String())
}

// cleanNumber parses a published count, stripping thousands separators and
// surrounding whitespace.
func cleanNumber(raw string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	return strconv.ParseInt(cleaned, 10, 64)
}
