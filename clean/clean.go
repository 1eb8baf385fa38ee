// Package clean converts numeric columns into typed, nullable integer
// columns.
package clean

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tsawler/tabsift/internal/textnorm"
	"github.com/tsawler/tabsift/model"
)

// ErrUnknownColumn is returned when a column name is not in the table.
var ErrUnknownColumn = errors.New("unknown column")

// Value converts one cell to a nullable integer. Formatting such as
// currency glyphs and thousands separators is removed, then every
// character other than digits, '.' and '-' is dropped. Empty results, a
// lone "-" and anything that still fails to parse are missing values.
// Halves round to even.
func Value(s string) sql.NullInt64 {
	s = textnorm.Prepare(s, true)
	s = textnorm.StripFormatting(s)
	s = textnorm.StripNonNumeric(s)
	if s == "" || s == "-" {
		return sql.NullInt64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	f = math.RoundToEven(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}

// Column replaces the named column's values with typed integers, one per
// data row, and returns t. A cell that cannot be converted becomes a
// missing value; only an unknown column name is an error.
func Column(t *model.Table, name string) (*model.Table, error) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return t, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	values := make([]sql.NullInt64, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = Value(row[i])
	}
	t.Columns[i].Values = values
	return t, nil
}

// Columns cleans each named column in turn and stops at the first
// unknown name.
func Columns(t *model.Table, names []string) (*model.Table, error) {
	for _, name := range names {
		if _, err := Column(t, name); err != nil {
			return t, err
		}
	}
	return t, nil
}
