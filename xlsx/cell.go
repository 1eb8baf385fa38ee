package xlsx

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a rectangular block of cells, 0-indexed and inclusive.
type Range struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// String returns the range in A1:B2 notation.
func (r Range) String() string {
	return CellRef(r.StartCol, r.StartRow) + ":" + CellRef(r.EndCol, r.EndRow)
}

// Sheet is one worksheet reduced to display strings.
type Sheet struct {
	Name  string
	Index int

	// Cells is rectangular and covers A1 up to the last non-empty cell.
	Cells [][]string

	// Merged holds the <mergeCells> ranges in document order.
	Merged []Range
}

// Value returns the text at row, col or "" outside the sheet.
func (s *Sheet) Value(row, col int) string {
	if row < 0 || row >= len(s.Cells) || col < 0 || col >= len(s.Cells[row]) {
		return ""
	}
	return s.Cells[row][col]
}

// ValueByRef returns the text at ref, e.g. "C7".
func (s *Sheet) ValueByRef(ref string) string {
	col, row, err := ParseCellRef(ref)
	if err != nil {
		return ""
	}
	return s.Value(row, col)
}

// RowCount returns the number of rows in the sheet.
func (s *Sheet) RowCount() int {
	return len(s.Cells)
}

// ColCount returns the number of columns in the sheet.
func (s *Sheet) ColCount() int {
	if len(s.Cells) == 0 {
		return 0
	}
	return len(s.Cells[0])
}

// IsEmpty reports whether the sheet has no non-blank cell.
func (s *Sheet) IsEmpty() bool {
	for _, row := range s.Cells {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
	}
	return true
}

// ParseCellRef parses a cell reference like "A1" or "$AA$100" into
// 0-indexed column and row.
func ParseCellRef(ref string) (col, row int, err error) {
	ref = strings.ReplaceAll(ref, "$", "")
	if ref == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}

	i := 0
	for i < len(ref) && isLetter(ref[i]) {
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("invalid cell reference %q: no column letters", ref)
	}
	if i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q: no row number", ref)
	}

	col = ColumnToIndex(ref[:i])
	if col < 0 {
		return 0, 0, fmt.Errorf("invalid column: %s", ref[:i])
	}
	n, err := strconv.Atoi(ref[i:])
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("invalid row: %s", ref[i:])
	}
	return col, n - 1, nil
}

// ColumnToIndex converts column letters to a 0-indexed column number:
// A=0, Z=25, AA=26. It returns -1 for anything but letters.
func ColumnToIndex(col string) int {
	if col == "" {
		return -1
	}
	n := 0
	for _, c := range strings.ToUpper(col) {
		if c < 'A' || c > 'Z' {
			return -1
		}
		n = n*26 + int(c-'A') + 1
	}
	return n - 1
}

// IndexToColumn converts a 0-indexed column number to letters.
func IndexToColumn(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for index++; index > 0; index /= 26 {
		index--
		b = append([]byte{byte('A' + index%26)}, b...)
	}
	return string(b)
}

// CellRef formats 0-indexed coordinates as an A1 reference.
func CellRef(col, row int) string {
	return fmt.Sprintf("%s%d", IndexToColumn(col), row+1)
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// ParseRangeRef parses "A1:D10". A single reference such as "B2" is a
// one-cell range. Corners given in reverse order are normalised.
func ParseRangeRef(ref string) (Range, error) {
	start, end, found := strings.Cut(ref, ":")
	if !found {
		end = start
	}
	sc, sr, err := ParseCellRef(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start cell: %w", err)
	}
	ec, er, err := ParseCellRef(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end cell: %w", err)
	}
	return Range{
		StartRow: min(sr, er),
		StartCol: min(sc, ec),
		EndRow:   max(sr, er),
		EndCol:   max(sc, ec),
	}, nil
}
