// Package tabsift provides a fluent API for pulling validated, classified
// tables out of CSV, TSV, JSON, HTML and XLSX files.
//
// Basic usage:
//
//	tables, warnings, err := tabsift.Open("report.xlsx").Tables(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", tabsift.FormatWarnings(warnings))
//	}
//
// With options:
//
//	md, _, err := tabsift.Open("report.html").
//	    Pages(1).
//	    Concurrency(4).
//	    ToMarkdown(ctx)
//
// For finer control, the source, pipeline and export packages can be used
// directly.
package tabsift

import (
	"github.com/tsawler/tabsift/model"
)

// Warning describes a non-fatal issue found while loading or processing a
// table.
type Warning = model.Warning

// FormatWarnings joins warnings one per line.
func FormatWarnings(warnings []Warning) string {
	return model.FormatWarnings(warnings)
}

// Open returns an Extractor that reads tables from filename. The format is
// taken from the extension, or sniffed from the content when the extension
// is not recognised. Nothing is read until a terminal operation runs.
//
// Example:
//
//	tables, warnings, err := tabsift.Open("sales.csv").Tables(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromBytes returns an Extractor over in-memory content. name is used for
// format detection and as the source file of every table.
func FromBytes(name string, data []byte) *Extractor {
	return &Extractor{
		filename: name,
		data:     data,
		inMemory: true,
		options:  defaultOptions(),
	}
}

// FromCandidates returns an Extractor over tables that were already
// extracted by other means.
func FromCandidates(candidates []model.Candidate) *Extractor {
	return &Extractor{
		candidates: append([]model.Candidate(nil), candidates...),
		loaded:     true,
		options:    defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustTables is like Must for terminal operations that also return
// warnings. The warnings are discarded.
//
// Example:
//
//	tables := tabsift.MustTables(tabsift.Open("sales.csv").Tables(ctx))
func MustTables[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
