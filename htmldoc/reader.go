// Package htmldoc extracts the tables of an HTML document as rectangular
// grids, expanding rowspan and colspan into merge regions.
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/tabsift/model"
)

// Span limits applied to rowspan and colspan attributes.
const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// Reader holds the tables of one parsed document.
type Reader struct {
	title    string
	tables   []*Table
	excluded int
}

// Option customises parsing.
type Option func(*options)

type options struct {
	exclusion Exclusion
}

// WithExclusion sets which page regions are skipped as site chrome.
// Default: ExcludeStandard.
func WithExclusion(e Exclusion) Option {
	return func(o *options) { o.exclusion = e }
}

// Open opens an HTML file for reading.
func Open(filename string, opts ...Option) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return OpenReader(f, opts...)
}

// OpenReader parses HTML from an io.Reader.
func OpenReader(r io.Reader, opts ...Option) (*Reader, error) {
	o := options{exclusion: ExcludeStandard}
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	reader := &Reader{}
	if t := findElement(doc, "title"); t != nil {
		reader.title = textContent(t)
	}
	reader.collect(doc, newExclusionChecker(o.exclusion, doc))

	return reader, nil
}

// Close releases resources associated with the Reader. The parsed document
// holds no file handles.
func (r *Reader) Close() error {
	return nil
}

// Title returns the document's <title>.
func (r *Reader) Title() string {
	return r.title
}

// Tables returns the tables in document order. A nested table follows the
// table that contains it.
func (r *Reader) Tables() []*Table {
	return r.tables
}

// Excluded returns the number of tables skipped as site chrome.
func (r *Reader) Excluded() int {
	return r.excluded
}

// Candidates converts every non-empty table into a candidate. TableIndex
// is the table's position among the returned candidates; HTML has a single
// page.
func (r *Reader) Candidates(sourceFile string) []model.Candidate {
	var out []model.Candidate
	for _, t := range r.tables {
		if t.RowCount() == 0 || t.ColCount() == 0 {
			continue
		}
		rows := make([][]string, len(t.Grid))
		for i, row := range t.Grid {
			rows[i] = append([]string(nil), row...)
		}
		var merges []model.MergeRegion
		for _, s := range t.Spans {
			merges = append(merges, model.MergeRegion{
				Top:    s.Row,
				Bottom: s.Row + s.Rows - 1,
				Left:   s.Col,
				Right:  s.Col + s.Cols - 1,
				Text:   s.Text,
			})
		}
		out = append(out, model.Candidate{
			Raw:    model.NewRawTable(rows),
			Merges: merges,
			Meta:   model.Provenance{SourceFile: sourceFile, PageNum: 1, TableIndex: len(out)},
		})
	}
	return out
}

func (r *Reader) collect(n *html.Node, ec *exclusionChecker) {
	if n.Type == html.ElementNode {
		if shouldSkipElement(n.Data) {
			return
		}
		if ec.excluded(n) {
			r.excluded += countTables(n)
			return
		}
		if n.Data == "table" {
			r.tables = append(r.tables, parseTable(n))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.collect(c, ec)
	}
}

func countTables(n *html.Node) int {
	count := 0
	if n.Type == html.ElementNode && n.Data == "table" {
		count = 1
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countTables(c)
	}
	return count
}

type htmlCell struct {
	text       string
	header     bool
	rows, cols int
}

// parseTable lays out rows from <thead>, then <tbody> and bare <tr>, then
// <tfoot>.
func parseTable(tableNode *html.Node) *Table {
	table := &Table{}
	var head, body, foot [][]htmlCell

	for c := tableNode.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "caption":
			table.Caption = textContent(c)
		case "thead":
			head = append(head, sectionRows(c)...)
		case "tbody":
			body = append(body, sectionRows(c)...)
		case "tfoot":
			foot = append(foot, sectionRows(c)...)
		case "tr":
			body = append(body, parseRow(c))
		}
	}

	rows := append(append(head, body...), foot...)
	if len(head) > 0 {
		table.HasHeader = true
	} else if len(rows) > 0 && len(rows[0]) > 0 {
		table.HasHeader = true
		for _, cell := range rows[0] {
			table.HasHeader = table.HasHeader && cell.header
		}
	}

	table.layout(rows)
	return table
}

// layout places cells on the grid. A cell starts at the first position of
// its row not covered by a span from above; rowspans that run past the
// last row are cut there.
func (t *Table) layout(rows [][]htmlCell) {
	var grid [][]string
	var taken [][]bool
	ensure := func(r, width int) {
		for len(grid) <= r {
			grid = append(grid, nil)
			taken = append(taken, nil)
		}
		for len(grid[r]) < width {
			grid[r] = append(grid[r], "")
			taken[r] = append(taken[r], false)
		}
	}

	for r, row := range rows {
		ensure(r, 0)
		col := 0
		for _, cell := range row {
			for col < len(taken[r]) && taken[r][col] {
				col++
			}
			rs := cell.rows
			if rs == 0 || r+rs > len(rows) {
				rs = len(rows) - r
			}
			for dr := 0; dr < rs; dr++ {
				ensure(r+dr, col+cell.cols)
				for dc := 0; dc < cell.cols; dc++ {
					taken[r+dr][col+dc] = true
				}
			}
			grid[r][col] = cell.text
			if rs > 1 || cell.cols > 1 {
				t.Spans = append(t.Spans, Span{Row: r, Col: col, Rows: rs, Cols: cell.cols, Text: cell.text})
			}
			col += cell.cols
		}
	}

	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	for r := range grid {
		ensure(r, width)
	}
	t.Grid = grid
}

func sectionRows(section *html.Node) [][]htmlCell {
	var rows [][]htmlCell
	for c := section.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "tr" {
			rows = append(rows, parseRow(c))
		}
	}
	return rows
}

func parseRow(tr *html.Node) []htmlCell {
	var row []htmlCell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		cell := htmlCell{
			text:   textContent(c),
			header: c.Data == "th",
			rows:   spanAttr(c, "rowspan", 1, 0, maxRowSpan),
			cols:   spanAttr(c, "colspan", 1, 1, maxColSpan),
		}
		row = append(row, cell)
	}
	return row
}

// spanAttr reads a span attribute. Missing or malformed values give def;
// values are clamped to lo..hi.
func spanAttr(n *html.Node, key string, def, lo, hi int) int {
	v := strings.TrimSpace(getAttr(n, key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return min(max(i, lo), hi)
}

func shouldSkipElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed":
		return true
	}
	return false
}

func findElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

// textContent returns the text of n with runs of whitespace collapsed.
// Nested tables are left out; they become tables of their own.
func textContent(n *html.Node) string {
	var b strings.Builder
	writeText(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if shouldSkipElement(n.Data) || n.Data == "table" {
			return
		}
		if n.Data == "br" {
			b.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, b)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li":
			b.WriteString(" ")
		}
	}
}
