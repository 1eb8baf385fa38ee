package odt

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const (
	nsOffice = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	nsTable  = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"

	// maxSpan bounds number-columns-spanned and number-rows-spanned.
	maxSpan = 1000
	// maxCols and maxRows bound a table's grid; spreadsheets pad sheets
	// with repeated blank rows and columns up to the application limits.
	maxCols = 16384
	maxRows = 1 << 20
	// MaxCells bounds the number of grid positions materialized per table.
	MaxCells = 1 << 22
)

// Span is a merged cell that covers more than one grid position. Row and
// Col locate its top-left position.
type Span struct {
	Row, Col int
	Rows     int
	Cols     int
	Text     string
}

// Table is one <table:table> laid out on a rectangular grid and trimmed to
// the rows and columns that hold content. Positions covered by a merged
// cell, other than its top-left one, are blank.
type Table struct {
	Name  string
	Grid  [][]string
	Spans []Span

	// Truncated is set when the table exceeded MaxCells and was cut.
	Truncated bool
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.Grid) }

// ColCount returns the number of columns.
func (t *Table) ColCount() int {
	if len(t.Grid) == 0 {
		return 0
	}
	return len(t.Grid[0])
}

type cellSpec struct {
	text       string
	cols, rows int
	repeat     int
	covered    bool
}

func (c cellSpec) isSpan() bool { return !c.covered && (c.cols > 1 || c.rows > 1) }

func (c cellSpec) blank() bool { return c.text == "" && !c.isSpan() }

// gridBuilder places rows on the grid. Repeated blank rows and cells are
// held back until content follows them, so trailing padding costs nothing.
type gridBuilder struct {
	t           *Table
	pendingRows int
	cells       int
}

func (b *gridBuilder) full(n int) bool {
	if b.cells+n > MaxCells {
		b.t.Truncated = true
		return true
	}
	return false
}

func (b *gridBuilder) addRow(cells []cellSpec, repeat int) {
	var line []string
	pending := 0
	var spans []Span
	for _, c := range cells {
		if c.blank() {
			pending += c.repeat
			continue
		}
		for ; pending > 0 && len(line) < maxCols; pending-- {
			line = append(line, "")
		}
		pending = 0
		for i := 0; i < c.repeat && len(line) < maxCols; i++ {
			if c.isSpan() {
				spans = append(spans, Span{Col: len(line), Rows: c.rows, Cols: c.cols, Text: c.text})
			}
			line = append(line, c.text)
		}
	}

	if len(line) == 0 {
		b.pendingRows += repeat
		return
	}
	for ; b.pendingRows > 0 && len(b.t.Grid) < maxRows; b.pendingRows-- {
		b.t.Grid = append(b.t.Grid, nil)
	}
	b.pendingRows = 0
	for i := 0; i < repeat && len(b.t.Grid) < maxRows; i++ {
		if b.full(len(line)) {
			return
		}
		b.cells += len(line)
		row := len(b.t.Grid)
		for _, s := range spans {
			s.Row = row
			b.t.Spans = append(b.t.Spans, s)
		}
		b.t.Grid = append(b.t.Grid, append([]string(nil), line...))
	}
}

// finish crops the grid to its content bounds, pads it to a rectangle and
// clips spans to it.
func (b *gridBuilder) finish() {
	t := b.t
	r0, c0, r1, c1 := -1, -1, -1, -1
	mark := func(r, c int) {
		if r0 < 0 || r < r0 {
			r0 = r
		}
		if r > r1 {
			r1 = r
		}
		if c0 < 0 || c < c0 {
			c0 = c
		}
		if c > c1 {
			c1 = c
		}
	}
	for r, row := range t.Grid {
		for c, v := range row {
			if v != "" {
				mark(r, c)
			}
		}
	}
	for _, s := range t.Spans {
		mark(s.Row, s.Col)
	}
	if r0 < 0 {
		t.Grid, t.Spans = nil, nil
		return
	}

	grid := make([][]string, 0, r1-r0+1)
	for r := r0; r <= r1; r++ {
		line := make([]string, c1-c0+1)
		for c := c0; c <= c1 && c < len(t.Grid[r]); c++ {
			line[c-c0] = t.Grid[r][c]
		}
		grid = append(grid, line)
	}

	spans := t.Spans[:0]
	for _, s := range t.Spans {
		s.Row -= r0
		s.Col -= c0
		s.Rows = min(s.Rows, len(grid)-s.Row)
		s.Cols = min(s.Cols, len(grid[0])-s.Col)
		if s.Rows > 1 || s.Cols > 1 {
			spans = append(spans, s)
		}
	}
	t.Grid, t.Spans = grid, spans
}

// readTable consumes a <table:table> whose start element has been read and
// returns it followed by the tables nested in its cells.
func readTable(d *xml.Decoder, start xml.StartElement) ([]*Table, error) {
	b := &gridBuilder{t: &Table{Name: attr(start, "name")}}
	var nested []*Table
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "table-row":
				if err := readRow(d, tok, b, &nested); err != nil {
					return nil, err
				}
			case "table-header-rows", "table-rows", "table-row-group":
				// row containers; their rows are read as they come
			default:
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if tok.Name.Local == "table" {
				b.finish()
				return append([]*Table{b.t}, nested...), nil
			}
		}
	}
}

func readRow(d *xml.Decoder, start xml.StartElement, b *gridBuilder, nested *[]*Table) error {
	repeat := intAttr(start, "number-rows-repeated", 1, 1, maxRows)
	var cells []cellSpec
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "table-cell", "covered-table-cell":
				c, err := readCell(d, tok, nested)
				if err != nil {
					return err
				}
				cells = append(cells, c)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			b.addRow(cells, repeat)
			return nil
		}
	}
}

// readCell collects the text of a cell. Paragraphs and headings are joined
// with single spaces; annotations and notes are left out; nested tables
// are read separately and are not part of the text.
func readCell(d *xml.Decoder, start xml.StartElement, nested *[]*Table) (cellSpec, error) {
	c := cellSpec{
		cols:    intAttr(start, "number-columns-spanned", 1, 1, maxSpan),
		rows:    intAttr(start, "number-rows-spanned", 1, 1, maxSpan),
		repeat:  intAttr(start, "number-columns-repeated", 1, 1, maxCols),
		covered: start.Name.Local == "covered-table-cell",
	}
	var b strings.Builder
	depth := 0
	paragraphs := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return c, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			switch {
			case tok.Name.Local == "table" && tok.Name.Space == nsTable:
				ts, err := readTable(d, tok)
				if err != nil {
					return c, err
				}
				*nested = append(*nested, ts...)
				continue
			case tok.Name.Local == "annotation", tok.Name.Local == "note":
				if err := d.Skip(); err != nil {
					return c, err
				}
				continue
			case tok.Name.Local == "p", tok.Name.Local == "h":
				if paragraphs > 0 {
					b.WriteByte(' ')
				}
				paragraphs++
			case tok.Name.Local == "s":
				b.WriteString(strings.Repeat(" ", intAttr(tok, "c", 1, 1, maxSpan)))
			case tok.Name.Local == "tab", tok.Name.Local == "line-break":
				b.WriteByte(' ')
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				c.text = strings.Join(strings.Fields(b.String()), " ")
				return c, nil
			}
			depth--
		case xml.CharData:
			if depth > 0 {
				b.Write(tok)
			}
		}
	}
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func intAttr(se xml.StartElement, local string, def, lo, hi int) int {
	v := attr(se, local)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return min(max(n, lo), hi)
}
