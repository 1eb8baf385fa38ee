package model

import (
	"fmt"
	"strings"
)

// RawTable is a grid of text cells as produced by an extraction step.
// Row 0 is the header row. A blank cell ("" after trimming) is an absent
// value, distinct from "0".
type RawTable struct {
	Rows [][]string
}

// NewRawTable creates a raw table from rows. The rows are not copied.
func NewRawTable(rows [][]string) *RawTable {
	return &RawTable{Rows: rows}
}

// RowCount returns the number of rows including the header row
func (t *RawTable) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the width of the widest row. Shorter rows are treated
// as having blank trailing cells.
func (t *RawTable) ColCount() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Cell returns the text at the given position, or "" when the position
// lies outside the row.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// SetCell sets the text at the given position, growing a short row when
// col lies within ColCount.
func (t *RawTable) SetCell(row, col int, text string) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of bounds", row)
	}
	if col < 0 || col >= t.ColCount() {
		return fmt.Errorf("col index %d out of bounds", col)
	}
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = text
	return nil
}

// IsBlank reports whether the cell is absent or whitespace only.
func (t *RawTable) IsBlank(row, col int) bool {
	return IsBlank(t.Cell(row, col))
}

// Clone returns a rectangular deep copy: every row is padded with blank
// cells to ColCount. The receiver is never aliased by the copy.
func (t *RawTable) Clone() *RawTable {
	cols := t.ColCount()
	out := &RawTable{Rows: make([][]string, len(t.Rows))}
	for i, row := range t.Rows {
		r := make([]string, cols)
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MergeRegion is a rectangular cell range that shares one logical value.
// Bounds are closed intervals, 0-indexed against the raw table including
// the header row.
type MergeRegion struct {
	Top    int    `json:"top"`
	Bottom int    `json:"bottom"`
	Left   int    `json:"left"`
	Right  int    `json:"right"`
	Text   string `json:"text"`
}

// Contains reports whether the region covers the given cell.
func (m MergeRegion) Contains(row, col int) bool {
	return row >= m.Top && row <= m.Bottom && col >= m.Left && col <= m.Right
}

func (m MergeRegion) String() string {
	return fmt.Sprintf("[%d..%d]x[%d..%d] %q", m.Top, m.Bottom, m.Left, m.Right, m.Text)
}

// Provenance locates a table in its source document. It is carried through
// processing but never interpreted.
type Provenance struct {
	SourceFile string `json:"source_file"`
	PageNum    int    `json:"page_num"`
	TableIndex int    `json:"table_index"`
}

// Candidate is one extracted table awaiting validation.
type Candidate struct {
	Raw    *RawTable
	Merges []MergeRegion
	Meta   Provenance
}

// Warning describes a non-fatal issue found while processing a table.
type Warning struct {
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Meta    Provenance `json:"meta"`
}

func (w Warning) String() string {
	if w.Meta.SourceFile == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s (page %d, table %d): %s: %s",
		w.Meta.SourceFile, w.Meta.PageNum, w.Meta.TableIndex, w.Code, w.Message)
}

// FormatWarnings joins warnings one per line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
