package classify

import (
	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/model"
)

// Structure holds the numeric layout of a validated table.
type Structure struct {
	NumericCols []string
	NumericRows []int
	IsDataTable bool
}

// Type returns DataTable or TextTable
func (s Structure) Type() model.TableType {
	if s.IsDataTable {
		return model.DataTable
	}
	return model.TextTable
}

// NumericColumns returns the indices of non-metadata columns whose values
// are purely numeric.
func NumericColumns(cfg config.Config, t *model.Table) []int {
	var out []int
	for _, c := range t.DataColumns() {
		if IsPurelyNumeric(cfg, t.ColumnValues(c)) {
			out = append(out, c)
		}
	}
	return out
}

// Analyze classifies every non-metadata column and row of t and sets
// Column.Numeric accordingly. Only tables that passed scoring should be
// analyzed.
//
// A table is a data table when it has a numeric column or when more than
// DataRowRatio of its rows are numeric.
func Analyze(cfg config.Config, t *model.Table) Structure {
	var s Structure

	for i := range t.Columns {
		t.Columns[i].Numeric = false
	}
	for _, c := range NumericColumns(cfg, t) {
		t.Columns[c].Numeric = true
		s.NumericCols = append(s.NumericCols, t.Columns[c].Name)
	}

	rows := t.DataRows()
	for _, r := range rows {
		if IsPurelyNumeric(cfg, t.RowValues(r)) {
			s.NumericRows = append(s.NumericRows, r)
		}
	}

	s.IsDataTable = len(s.NumericCols) > 0
	if !s.IsDataTable && len(rows) > 0 {
		s.IsDataTable = float64(len(s.NumericRows))/float64(len(rows)) > cfg.DataRowRatio
	}
	return s
}
