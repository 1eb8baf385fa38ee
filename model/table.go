package model

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Column describes one column of a header-promoted table
type Column struct {
	Name      string
	Synthetic bool // name was generated for a blank header cell
	Metadata  bool // name carries the metadata prefix
	Numeric   bool // accepted by the cell classifier

	// Values holds the typed column after numeric normalization, one entry
	// per data row. It is nil until the column is cleaned.
	Values []sql.NullInt64
}

// Cleaned reports whether the column holds typed values
func (c *Column) Cleaned() bool {
	return c.Values != nil
}

// Table is a raw table whose first row has been promoted to column names.
// Rows holds data rows only and every row has len(Columns) cells.
type Table struct {
	Columns []Column
	Rows    [][]string

	metaPrefix string
}

// SyntheticName returns the generated name for a blank header at the given
// 0-indexed position.
func SyntheticName(col int) string {
	return "Column_" + strconv.Itoa(col+1)
}

// PromoteHeader builds a Table from raw, using row 0 as column names.
// Blank header cells get a synthetic name and duplicate names get an
// incrementing suffix ("Qty", "Qty_1", "Qty_2"). Columns and rows whose
// name or first cell starts with metaPrefix are marked as metadata; an
// empty metaPrefix disables metadata detection. raw is not modified.
func PromoteHeader(raw *RawTable, metaPrefix string) *Table {
	grid := raw.Clone()
	t := &Table{metaPrefix: metaPrefix}
	if len(grid.Rows) == 0 {
		return t
	}

	header := grid.Rows[0]
	seen := make(map[string]bool, len(header))
	counters := make(map[string]int)
	t.Columns = make([]Column, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		synthetic := name == ""
		if synthetic {
			name = SyntheticName(i)
		}
		if seen[name] {
			base := name
			for seen[name] {
				counters[base]++
				name = base + "_" + strconv.Itoa(counters[base])
			}
		}
		seen[name] = true
		t.Columns[i] = Column{
			Name:      name,
			Synthetic: synthetic,
			Metadata:  metaPrefix != "" && strings.HasPrefix(name, metaPrefix),
		}
	}
	t.Rows = grid.Rows[1:]
	return t
}

// MetadataPrefix returns the prefix the table was promoted with
func (t *Table) MetadataPrefix() string {
	return t.metaPrefix
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns
func (t *Table) ColCount() int {
	return len(t.Columns)
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	if i := t.ColumnIndex(name); i >= 0 {
		return &t.Columns[i]
	}
	return nil
}

// IsMetadataRow reports whether data row i begins with the metadata prefix.
func (t *Table) IsMetadataRow(i int) bool {
	if t.metaPrefix == "" || i < 0 || i >= len(t.Rows) || len(t.Rows[i]) == 0 {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(t.Rows[i][0]), t.metaPrefix)
}

// DataColumns returns the indices of non-metadata columns
func (t *Table) DataColumns() []int {
	out := make([]int, 0, len(t.Columns))
	for i := range t.Columns {
		if !t.Columns[i].Metadata {
			out = append(out, i)
		}
	}
	return out
}

// DataRows returns the indices of non-metadata rows
func (t *Table) DataRows() []int {
	out := make([]int, 0, len(t.Rows))
	for i := range t.Rows {
		if !t.IsMetadataRow(i) {
			out = append(out, i)
		}
	}
	return out
}

// ColumnValues returns the text of column col over non-metadata rows.
func (t *Table) ColumnValues(col int) []string {
	rows := t.DataRows()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = t.Rows[r][col]
	}
	return out
}

// RowValues returns the text of row over non-metadata columns.
func (t *Table) RowValues(row int) []string {
	cols := t.DataColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = t.Rows[row][c]
	}
	return out
}

// DropBlankRows removes data rows whose non-metadata cells are all blank
// and returns the number removed.
func (t *Table) DropBlankRows() int {
	cols := t.DataColumns()
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		blank := true
		for _, c := range cols {
			if !IsBlank(row[c]) {
				blank = false
				break
			}
		}
		if blank {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

// Text returns the display text of a cell. Cleaned numeric columns render
// their typed value and missing values render as "".
func (t *Table) Text(row, col int) string {
	c := &t.Columns[col]
	if c.Cleaned() && row < len(c.Values) {
		v := c.Values[row]
		if !v.Valid {
			return ""
		}
		return strconv.FormatInt(v.Int64, 10)
	}
	return t.Rows[row][col]
}

// ToMarkdown converts the table to markdown format, omitting metadata
// columns.
func (t *Table) ToMarkdown() string {
	cols := t.DataColumns()
	if len(cols) == 0 {
		return ""
	}

	var sb strings.Builder

	// Header row
	for _, c := range cols {
		sb.WriteString("| ")
		sb.WriteString(escapeMarkdown(t.Columns[c].Name))
		sb.WriteString(" ")
	}
	sb.WriteString("|\n")

	// Separator
	for range cols {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")

	// Data rows
	for i := range t.Rows {
		for _, c := range cols {
			sb.WriteString("| ")
			sb.WriteString(escapeMarkdown(t.Text(i, c)))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	return sb.String()
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// TableType tells data tables from text tables
type TableType int

const (
	// TextTable has no numeric columns and few numeric rows.
	TextTable TableType = iota
	// DataTable has at least one numeric column or mostly numeric rows.
	DataTable
)

// String returns the string representation of the table type.
func (tt TableType) String() string {
	switch tt {
	case DataTable:
		return "data"
	case TextTable:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (tt TableType) MarshalText() ([]byte, error) {
	return []byte(tt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (tt *TableType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "data":
		*tt = DataTable
	case "text":
		*tt = TextTable
	default:
		return fmt.Errorf("unknown table type %q", b)
	}
	return nil
}

// ClassifiedTable is a validated table with its structural annotations.
// Consumers trust these annotations and never re-derive them.
type ClassifiedTable struct {
	Table        *Table
	Meta         Provenance
	NumericCols  []string
	NumericRows  []int
	IsDataTable  bool
	QualityScore float64
	IsValid      bool
	Type         TableType
}

// ColumnNames returns the non-metadata column names in order
func (ct *ClassifiedTable) ColumnNames() []string {
	cols := ct.Table.DataColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = ct.Table.Columns[c].Name
	}
	return names
}
