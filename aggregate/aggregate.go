// Package aggregate separates summary rows from primary rows and computes
// per-column totals over the primary rows only.
//
// A printed "Total" or "合計" line would otherwise be counted into its own
// sum:
//
//	rep := aggregate.Summarize(cfg, ct)
//	for _, col := range rep.Columns {
//	    fmt.Println(col.Name, col.Sum, col.Count, col.Mean)
//	}
//	if n := rep.ExcludedAggregateRows; n > 0 {
//	    fmt.Println(rep.Notice())
//	}
package aggregate

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/tsawler/tabsift/clean"
	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/internal/textnorm"
	"github.com/tsawler/tabsift/model"
)

// Status tells whether a column could be aggregated.
type Status int

const (
	// OK means at least one primary row had a value.
	OK Status = iota
	// NoData means no primary row had a value.
	NoData
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case NoData:
		return "no aggregable data"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ok":
		*s = OK
	case "no aggregable data":
		*s = NoData
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// ColumnSummary holds the totals of one numeric column.
type ColumnSummary struct {
	Name   string  `json:"name"`
	Sum    int64   `json:"sum"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Status Status  `json:"status"`
}

// Report holds the totals of every numeric column of one table.
type Report struct {
	Meta                  model.Provenance `json:"meta"`
	Columns               []ColumnSummary  `json:"columns"`
	PrimaryRows           int              `json:"primary_rows"`
	ExcludedAggregateRows int              `json:"excluded_aggregate_rows"`
}

// Notice describes the excluded summary rows, or returns "" when none were
// excluded.
func (r Report) Notice() string {
	if r.ExcludedAggregateRows == 0 {
		return ""
	}
	return fmt.Sprintf("%d aggregate row(s) excluded from totals", r.ExcludedAggregateRows)
}

// Column returns the summary for the named column.
func (r Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// IsAggregateRow reports whether any non-metadata cell of data row i
// contains an aggregate keyword after case folding.
func IsAggregateRow(cfg config.Config, t *model.Table, i int) bool {
	return matchesAny(t.RowValues(i), foldKeywords(cfg))
}

// Partition splits the non-metadata rows of t into primary rows and
// aggregate rows.
func Partition(cfg config.Config, t *model.Table) (primary, aggregates []int) {
	keywords := foldKeywords(cfg)
	for _, r := range t.DataRows() {
		if matchesAny(t.RowValues(r), keywords) {
			aggregates = append(aggregates, r)
		} else {
			primary = append(primary, r)
		}
	}
	return primary, aggregates
}

// Summarize computes sum, count and mean for each of ct's numeric columns
// over primary rows. Cleaned columns use their typed values; other columns
// are converted cell by cell. A column without any value is reported as
// NoData and does not affect the others.
func Summarize(cfg config.Config, ct *model.ClassifiedTable) Report {
	t := ct.Table
	primary, aggregates := Partition(cfg, t)
	rep := Report{
		Meta:                  ct.Meta,
		PrimaryRows:           len(primary),
		ExcludedAggregateRows: len(aggregates),
	}

	for _, name := range ct.NumericCols {
		col := t.Column(name)
		if col == nil {
			rep.Columns = append(rep.Columns, ColumnSummary{Name: name, Status: NoData})
			continue
		}
		idx := t.ColumnIndex(name)
		sum := ColumnSummary{Name: name}
		for _, r := range primary {
			v := cellValue(t, col, idx, r)
			if !v.Valid {
				continue
			}
			sum.Sum += v.Int64
			sum.Count++
		}
		if sum.Count == 0 {
			sum.Status = NoData
		} else {
			sum.Mean = float64(sum.Sum) / float64(sum.Count)
		}
		rep.Columns = append(rep.Columns, sum)
	}
	return rep
}

func cellValue(t *model.Table, col *model.Column, idx, row int) sql.NullInt64 {
	if col.Cleaned() && row < len(col.Values) {
		return col.Values[row]
	}
	return clean.Value(t.Rows[row][idx])
}

func foldKeywords(cfg config.Config) []string {
	out := make([]string, 0, len(cfg.AggregateKeywords))
	for _, k := range cfg.AggregateKeywords {
		if k = textnorm.CaseFold(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func matchesAny(values []string, keywords []string) bool {
	for _, v := range values {
		v = textnorm.CaseFold(textnorm.FoldWidth(v))
		if v == "" {
			continue
		}
		for _, k := range keywords {
			if strings.Contains(v, k) {
				return true
			}
		}
	}
	return false
}
