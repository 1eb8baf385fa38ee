// Package textnorm holds the cell-text normalization shared by the
// classifier, scorer, cleaner and aggregation filter.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// Formatting characters removed before a numeric parse: thousands
// separators and currency glyphs, in both half- and full-width forms.
var formatting = strings.NewReplacer(
	",", "",
	"，", "",
	"¥", "",
	"￥", "",
	"$", "",
	"＄", "",
	"€", "",
	"£", "",
	"￡", "",
	"円", "",
)

// decimal accepts plain decimal literals with an optional exponent. Go's
// ParseFloat also accepts hex floats, underscores, "inf" and "nan", none of
// which are table numerals.
var decimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// nonNumeric matches characters that cannot belong to a cleaned value.
var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// Trim trims whitespace, including ideographic spaces.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// FoldWidth maps full-width ASCII variants (digits, signs, Latin letters)
// to their narrow forms and half-width katakana to full-width.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

// Prepare trims s and, when fold is set, folds character widths.
func Prepare(s string, fold bool) string {
	s = Trim(s)
	if fold {
		s = FoldWidth(s)
	}
	return s
}

// CaseFold returns s in a case-insensitive canonical form.
func CaseFold(s string) string {
	// Casers carry state; one per call keeps this safe for concurrent use.
	return cases.Fold().String(s)
}

// StripFormatting removes thousands separators, currency glyphs and all
// whitespace.
func StripFormatting(s string) string {
	s = formatting.Replace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParseNumber strips formatting from s and parses the remainder as a
// decimal number.
func ParseNumber(s string) (float64, bool) {
	s = StripFormatting(s)
	if !decimal.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StripNonNumeric removes every character other than digits, '.' and '-'.
func StripNonNumeric(s string) string {
	return nonNumeric.ReplaceAllString(s, "")
}

// HasText reports whether s contains a Latin letter or a Japanese
// hiragana, katakana or kanji character.
func HasText(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Latin, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}

// HasColon reports whether s contains an ASCII or full-width colon.
func HasColon(s string) bool {
	return strings.ContainsAny(s, ":：")
}
