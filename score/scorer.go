// Package score rates header-promoted tables for structural plausibility.
//
// A [Scorer] adds up five bounded criteria, each worth at most 2 points:
//
//  1. Size - one point each for enough rows and enough columns
//  2. Sparsity - mostly filled tables score higher; past MaxEmptyRatio the
//     table is rejected at once
//  3. Numeric columns - two or more numeric columns score highest
//  4. Header quality - share of headers that were not synthesized
//  5. Type consistency - share of columns that are clearly numeric or
//     clearly non-numeric
//
// A table is valid when its total reaches the configured ValidScore (7.0
// by default). The threshold is strict on purpose: running headers,
// footnotes and page furniture that extraction mistakes for tables should
// fall below it.
package score

import (
	"math"

	"github.com/tsawler/tabsift/classify"
	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/internal/textnorm"
	"github.com/tsawler/tabsift/model"
)

// Rejection reasons reported in Result.Reason.
const (
	ReasonTooSmall = "too-small"
	ReasonSparse   = "sparse"
	ReasonLowScore = "low-score"
)

// Breakdown records the points awarded per criterion.
type Breakdown struct {
	Size        float64
	Sparsity    float64
	NumericCols float64
	Headers     float64
	Consistency float64
}

// Result is the outcome of scoring one table.
type Result struct {
	Valid      bool
	Score      float64 // 0-10
	EmptyRatio float64
	Criteria   Breakdown
	Reason     string // empty when Valid
}

// Scorer computes quality scores.
type Scorer struct {
	config config.Config
}

// New creates a scorer using cfg.
func New(cfg config.Config) *Scorer {
	return &Scorer{config: cfg}
}

// Configure replaces the scorer configuration.
func (s *Scorer) Configure(cfg config.Config) {
	s.config = cfg
}

// Score rates t. Tables below MinRows non-metadata rows or MinCols
// non-metadata columns score 0. Tables whose empty-cell ratio exceeds
// MaxEmptyRatio are invalid with the points gathered so far; the remaining
// criteria are not evaluated.
func (s *Scorer) Score(t *model.Table) Result {
	rows := t.DataRows()
	cols := t.DataColumns()
	if len(rows) < s.config.MinRows || len(cols) < s.config.MinCols {
		return Result{Reason: ReasonTooSmall}
	}

	var r Result

	// Criterion 1: size (0-2)
	r.Criteria.Size = s.sizeBonus(len(rows), len(cols))

	// Criterion 2: sparsity (0-2, veto)
	r.EmptyRatio = emptyRatio(t, rows, cols)
	if r.EmptyRatio > s.config.MaxEmptyRatio {
		r.Score = r.Criteria.Size
		r.Reason = ReasonSparse
		return r
	}
	if r.EmptyRatio <= s.config.LowEmptyRatio {
		r.Criteria.Sparsity = 2
	} else {
		r.Criteria.Sparsity = 1
	}

	// Criterion 3: numeric-column presence (0-2)
	switch n := len(classify.NumericColumns(s.config, t)); {
	case n >= 2:
		r.Criteria.NumericCols = 2
	case n == 1:
		r.Criteria.NumericCols = 1
	}

	// Criterion 4: header quality (0-2)
	r.Criteria.Headers = s.headerQuality(t, cols)

	// Criterion 5: per-column type consistency (0-2)
	r.Criteria.Consistency = s.typeConsistency(t, cols)

	r.Score = round1(r.Criteria.Size + r.Criteria.Sparsity + r.Criteria.NumericCols +
		r.Criteria.Headers + r.Criteria.Consistency)
	r.Valid = r.Score >= s.config.ValidScore
	if !r.Valid {
		r.Reason = ReasonLowScore
	}
	return r
}

func (s *Scorer) sizeBonus(rows, cols int) float64 {
	bonus := 0.0
	if rows >= s.config.SizeBonusRows {
		bonus++
	}
	if cols >= s.config.SizeBonusCols {
		bonus++
	}
	return bonus
}

// emptyRatio is the share of blank cells over data rows and data columns.
func emptyRatio(t *model.Table, rows, cols []int) float64 {
	total := len(rows) * len(cols)
	if total == 0 {
		return 1
	}
	empty := 0
	for _, r := range rows {
		for _, c := range cols {
			if model.IsBlank(t.Rows[r][c]) {
				empty++
			}
		}
	}
	return float64(empty) / float64(total)
}

func (s *Scorer) headerQuality(t *model.Table, cols []int) float64 {
	named := 0
	for _, c := range cols {
		if !t.Columns[c].Synthetic {
			named++
		}
	}
	switch {
	case named == len(cols):
		return 2
	case float64(named)/float64(len(cols)) >= 0.5:
		return 1
	default:
		return 0
	}
}

// typeConsistency rewards columns that are clearly numeric or clearly
// not. A column without values counts as clearly non-numeric.
func (s *Scorer) typeConsistency(t *model.Table, cols []int) float64 {
	consistent := 0
	for _, c := range cols {
		ratio := s.parseRatio(t.ColumnValues(c))
		if ratio >= s.config.ConsistencyHigh || ratio <= s.config.ConsistencyLow {
			consistent++
		}
	}
	ratio := float64(consistent) / float64(len(cols))
	switch {
	case ratio >= 0.8:
		return 2
	case ratio >= 0.5:
		return 1
	default:
		return 0
	}
}

// parseRatio is the share of non-blank values that parse as numbers.
func (s *Scorer) parseRatio(values []string) float64 {
	nonBlank, parsed := 0, 0
	for _, v := range values {
		v = textnorm.Prepare(v, s.config.FoldWidth)
		if v == "" {
			continue
		}
		nonBlank++
		if _, ok := textnorm.ParseNumber(v); ok {
			parsed++
		}
	}
	if nonBlank == 0 {
		return 0
	}
	return float64(parsed) / float64(nonBlank)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
