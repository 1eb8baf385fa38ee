package classify

import (
	"math"

	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/internal/textnorm"
)

// Stage identifies the classifier stage that decided a sequence.
type Stage int

const (
	// StageAccepted means every check passed.
	StageAccepted Stage = iota
	// StageEmpty means no non-blank entries were given.
	StageEmpty
	// StageAggregateOnly means only aggregate labels remained.
	StageAggregateOnly
	// StageNumericRatio means too few entries parsed as numbers.
	StageNumericRatio
	// StageTextRatio means too many entries contain letters.
	StageTextRatio
	// StageColon means an entry looks like a time of day.
	StageColon
	// StageMagnitude means a parsed value exceeds the magnitude limit.
	StageMagnitude
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageAccepted:
		return "accepted"
	case StageEmpty:
		return "empty"
	case StageAggregateOnly:
		return "aggregate-only"
	case StageNumericRatio:
		return "numeric-ratio"
	case StageTextRatio:
		return "text-ratio"
	case StageColon:
		return "colon"
	case StageMagnitude:
		return "magnitude"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of classifying one sequence.
type Verdict struct {
	Stage        Stage
	Remaining    int     // entries left after blank and label filtering
	NumericRatio float64 // set from StageNumericRatio on
	TextRatio    float64 // set from StageTextRatio on
}

// Numeric reports whether the sequence was accepted
func (v Verdict) Numeric() bool {
	return v.Stage == StageAccepted
}

// IsPurelyNumeric reports whether values, a column or a row of cell text,
// is purely numeric.
func IsPurelyNumeric(cfg config.Config, values []string) bool {
	return Explain(cfg, values).Numeric()
}

// Explain runs the classifier stages in order and stops at the first one
// that rejects the sequence:
//
//  1. drop blank entries; nothing left rejects
//  2. drop aggregate labels ("合計", "total", ...); nothing left rejects
//  3. strip formatting and parse; a numeric ratio below MinNumericRatio rejects
//  4. a share of entries with letters or kana/kanji above MaxTextRatio rejects
//  5. any entry containing a colon rejects
//  6. any parsed value above MaxMagnitude in absolute value rejects
func Explain(cfg config.Config, values []string) Verdict {
	entries := make([]string, 0, len(values))
	for _, v := range values {
		v = textnorm.Prepare(v, cfg.FoldWidth)
		if v != "" {
			entries = append(entries, v)
		}
	}
	if len(entries) == 0 {
		return Verdict{Stage: StageEmpty}
	}

	labels := foldSet(cfg.AggregateLabels)
	remaining := entries[:0]
	for _, e := range entries {
		if !labels[textnorm.CaseFold(e)] {
			remaining = append(remaining, e)
		}
	}
	verdict := Verdict{Remaining: len(remaining)}
	if len(remaining) == 0 {
		verdict.Stage = StageAggregateOnly
		return verdict
	}

	parsed := make([]float64, 0, len(remaining))
	for _, e := range remaining {
		if v, ok := textnorm.ParseNumber(e); ok {
			parsed = append(parsed, v)
		}
	}
	verdict.NumericRatio = float64(len(parsed)) / float64(len(remaining))
	if verdict.NumericRatio < cfg.MinNumericRatio {
		verdict.Stage = StageNumericRatio
		return verdict
	}

	withText := 0
	for _, e := range remaining {
		if textnorm.HasText(e) {
			withText++
		}
	}
	verdict.TextRatio = float64(withText) / float64(len(remaining))
	if verdict.TextRatio > cfg.MaxTextRatio {
		verdict.Stage = StageTextRatio
		return verdict
	}

	for _, e := range remaining {
		if textnorm.HasColon(e) {
			verdict.Stage = StageColon
			return verdict
		}
	}

	for _, v := range parsed {
		if math.Abs(v) > cfg.MaxMagnitude {
			verdict.Stage = StageMagnitude
			return verdict
		}
	}

	verdict.Stage = StageAccepted
	return verdict
}

func foldSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[textnorm.CaseFold(w)] = true
	}
	return set
}
