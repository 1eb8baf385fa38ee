package docx

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
)

// maxGridSpan bounds w:gridSpan and w:gridBefore.
const maxGridSpan = 1000

// Span is a merged cell that covers more than one grid position. Row and
// Col locate its top-left position.
type Span struct {
	Row, Col int
	Rows     int
	Cols     int
	Text     string
}

// Table is one <w:tbl> laid out on a rectangular grid. Positions covered by
// a merged cell, other than its top-left one, are blank.
type Table struct {
	Caption string
	Grid    [][]string
	Spans   []Span

	// HeaderRows is the number of leading rows marked as repeating headers.
	HeaderRows int
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.Grid) }

// ColCount returns the number of grid columns.
func (t *Table) ColCount() int {
	if len(t.Grid) == 0 {
		return 0
	}
	return len(t.Grid[0])
}

// IsEmpty reports whether every cell is blank.
func (t *Table) IsEmpty() bool {
	for _, row := range t.Grid {
		for _, c := range row {
			if c != "" {
				return false
			}
		}
	}
	return true
}

// flatten appends x and then its nested tables, depth first in cell order.
func flatten(out []*Table, x tableXML) []*Table {
	out = append(out, parseTable(x))
	for _, row := range x.Rows {
		for _, c := range row.Cells {
			for _, nested := range c.Tables {
				out = flatten(out, nested)
			}
		}
	}
	return out
}

// parseTable lays x out on its grid. Horizontal merges come from
// w:gridSpan; vertical merges chain a w:vMerge="restart" cell with the
// continuation cells below it that start in the same column with the same
// width. A continuation with nothing to continue is an ordinary cell.
func parseTable(x tableXML) *Table {
	t := &Table{Caption: x.Properties.Caption.Val}
	width := len(x.Grid.Cols)
	open := map[int]int{} // start column -> index in t.Spans

	for r, row := range x.Rows {
		if row.Properties.Header != nil && isOn(row.Properties.Header.Val) && r == t.HeaderRows {
			t.HeaderRows++
		}
		col := spanVal(row.Properties.GridBefore.Val, 0, 0)
		line := make([]string, col)
		next := map[int]int{}

		for _, c := range row.Cells {
			cols := spanVal(c.Properties.GridSpan.Val, 1, 1)
			line = append(line, make([]string, cols)...)
			vm := c.Properties.VMerge

			if vm != nil && vm.Val != "restart" {
				if i, ok := open[col]; ok && t.Spans[i].Cols == cols {
					t.Spans[i].Rows++
					next[col] = i
					col += cols
					continue
				}
			}

			text := cellText(c)
			line[col] = text
			if cols > 1 || (vm != nil && vm.Val == "restart") {
				t.Spans = append(t.Spans, Span{Row: r, Col: col, Rows: 1, Cols: cols, Text: text})
				if vm != nil && vm.Val == "restart" {
					next[col] = len(t.Spans) - 1
				}
			}
			col += cols
		}
		open = next
		width = max(width, len(line))
		t.Grid = append(t.Grid, line)
	}

	for r := range t.Grid {
		for len(t.Grid[r]) < width {
			t.Grid[r] = append(t.Grid[r], "")
		}
	}

	// a restart that nothing continued covers one position
	spans := t.Spans[:0]
	for _, s := range t.Spans {
		if s.Rows > 1 || s.Cols > 1 {
			spans = append(spans, s)
		}
	}
	t.Spans = spans
	return t
}

// cellText joins the cell's paragraphs with single spaces. Nested tables
// are not part of the text.
func cellText(c tableCellXML) string {
	var parts []string
	for _, p := range c.Paragraphs {
		if s := paragraphText(p.Inner); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// paragraphText collects the character data of <w:t> elements in order.
// Tabs and breaks become spaces; deleted text and field codes live in
// other elements and are left out.
func paragraphText(inner []byte) string {
	var b strings.Builder
	d := xml.NewDecoder(bytes.NewReader(inner))
	inText := 0
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "t":
				inText++
			case "tab", "br", "cr":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			if tok.Name.Local == "t" && inText > 0 {
				inText--
			}
		case xml.CharData:
			if inText > 0 {
				b.Write(tok)
			}
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func spanVal(s string, def, lo int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return min(max(n, lo), maxGridSpan)
}

// isOn interprets an ST_OnOff value; an absent val means on.
func isOn(v string) bool {
	switch v {
	case "0", "false", "off":
		return false
	}
	return true
}
