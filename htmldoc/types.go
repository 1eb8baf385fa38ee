package htmldoc

// Exclusion controls which parts of a page are treated as site chrome.
// Tables inside excluded subtrees are layout, not data, and are skipped.
type Exclusion int

const (
	// ExcludeNone keeps every table.
	ExcludeNone Exclusion = iota

	// ExcludeExplicit skips <nav>, <aside> and the ARIA roles navigation
	// and complementary. <header> and <footer> (and roles banner and
	// contentinfo) are skipped only as direct children of <body> or of a
	// single top-level wrapper.
	ExcludeExplicit

	// ExcludeStandard adds class and id patterns such as nav, menu,
	// sidebar and footer. This is the default.
	ExcludeStandard

	// ExcludeAggressive also skips containers whose text is mostly links.
	ExcludeAggressive
)

// String returns the name of the mode.
func (e Exclusion) String() string {
	switch e {
	case ExcludeNone:
		return "none"
	case ExcludeExplicit:
		return "explicit"
	case ExcludeStandard:
		return "standard"
	case ExcludeAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// Span is a cell that covers more than one grid position. Row and Col
// locate its top-left position.
type Span struct {
	Row, Col int
	Rows     int
	Cols     int
	Text     string
}

// Table is one <table> laid out on a rectangular grid. Positions covered
// by a spanning cell, other than its top-left one, are blank.
type Table struct {
	Caption string
	Grid    [][]string
	Spans   []Span

	// HasHeader is true when the first row came from <thead> or holds
	// only <th> cells.
	HasHeader bool
}

// RowCount returns the number of grid rows.
func (t *Table) RowCount() int { return len(t.Grid) }

// ColCount returns the number of grid columns.
func (t *Table) ColCount() int {
	if len(t.Grid) == 0 {
		return 0
	}
	return len(t.Grid[0])
}
