package tabsift

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tsawler/tabsift/aggregate"
	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/export"
	"github.com/tsawler/tabsift/model"
	"github.com/tsawler/tabsift/pipeline"
	"github.com/tsawler/tabsift/source"
)

// Extractor provides a fluent interface for classifying the tables of one
// source. Each configuration method returns a new Extractor instance, making
// it safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	filename string
	data     []byte
	inMemory bool

	// Set by FromCandidates
	candidates []model.Candidate
	loaded     bool

	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:   e.filename,
		data:       e.data,
		inMemory:   e.inMemory,
		candidates: e.candidates,
		loaded:     e.loaded,
		options:    e.options.clone(),
		err:        e.err,
	}
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// WithConfig replaces the thresholds and keyword lists. An invalid config
// makes every terminal operation fail.
func (e *Extractor) WithConfig(cfg config.Config) *Extractor {
	n := e.clone()
	if err := cfg.Validate(); err != nil && n.err == nil {
		n.err = err
	}
	n.options.config = cfg.Clone()
	return n
}

// WithConfigFile loads the thresholds from a YAML file.
//
// Example:
//
//	tables, _, err := tabsift.Open("a.csv").WithConfigFile("tabsift.yaml").Tables(ctx)
func (e *Extractor) WithConfigFile(path string) *Extractor {
	n := e.clone()
	cfg, err := config.Load(path)
	if err != nil {
		if n.err == nil {
			n.err = err
		}
		return n
	}
	n.options.config = cfg
	return n
}

// Concurrency limits how many tables are classified at once. Zero or less
// means no limit.
func (e *Extractor) Concurrency(n int) *Extractor {
	ext := e.clone()
	ext.options.concurrency = n
	return ext
}

// Logger sets the logger used while processing. Default: slog.Default().
func (e *Extractor) Logger(l *slog.Logger) *Extractor {
	n := e.clone()
	n.options.logger = l
	return n
}

// Pages keeps only the tables on the given pages (1-indexed). For XLSX
// files a page is a worksheet; HTML, CSV and TSV have a single page.
// Multiple calls are cumulative.
//
// Example:
//
//	tables, _, err := tabsift.Open("book.xlsx").Pages(1, 3).Tables(ctx)
func (e *Extractor) Pages(pages ...int) *Extractor {
	n := e.clone()
	for _, p := range pages {
		if p < 1 && n.err == nil {
			n.err = fmt.Errorf("page %d out of range (pages start at 1)", p)
		}
	}
	n.options.pages = append(n.options.pages, pages...)
	return n
}

// PageRange keeps only the tables on pages start through end, inclusive.
func (e *Extractor) PageRange(start, end int) *Extractor {
	n := e.clone()
	if start < 1 || end < start {
		if n.err == nil {
			n.err = fmt.Errorf("invalid page range %d-%d", start, end)
		}
		return n
	}
	for i := start; i <= end; i++ {
		n.options.pages = append(n.options.pages, i)
	}
	return n
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Candidates returns the raw tables of the source after page selection,
// before any validation.
func (e *Extractor) Candidates() ([]model.Candidate, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	var candidates []model.Candidate
	var warnings []Warning
	var err error
	switch {
	case e.loaded:
		candidates = e.candidates
	case e.inMemory:
		candidates, warnings, err = source.Read(e.filename, e.data)
	case e.filename == "":
		err = fmt.Errorf("no filename specified")
	default:
		candidates, warnings, err = source.Load(e.filename)
	}
	if err != nil {
		return nil, warnings, err
	}
	return e.selectPages(candidates), warnings, nil
}

// Tables validates and classifies every table of the source and returns the
// accepted ones in source order.
func (e *Extractor) Tables(ctx context.Context) ([]*model.ClassifiedTable, []Warning, error) {
	candidates, warnings, err := e.Candidates()
	if err != nil {
		return nil, warnings, err
	}
	tables, more, err := e.pipeline().ProcessAll(ctx, candidates)
	return tables, append(warnings, more...), err
}

// Summaries returns per-column totals of every accepted table, computed
// over primary rows only.
func (e *Extractor) Summaries(ctx context.Context) ([]aggregate.Report, []Warning, error) {
	tables, warnings, err := e.Tables(ctx)
	if err != nil {
		return nil, warnings, err
	}
	reports := make([]aggregate.Report, len(tables))
	for i, ct := range tables {
		reports[i] = aggregate.Summarize(e.options.config, ct)
	}
	return reports, warnings, nil
}

// Document returns the accepted tables with their totals and warnings,
// ready for JSON encoding.
//
// Example:
//
//	doc, err := tabsift.Open("report.html").Document(ctx)
//	export.JSON(os.Stdout, doc)
func (e *Extractor) Document(ctx context.Context) (export.Document, error) {
	tables, warnings, err := e.Tables(ctx)
	if err != nil {
		return export.Document{}, err
	}
	doc := export.NewDocument(tables)
	doc.Summarize(e.options.config, tables)
	doc.Warnings = warnings
	return doc, nil
}

// ToMarkdown renders every accepted table as Markdown with YAML front
// matter.
func (e *Extractor) ToMarkdown(ctx context.Context) (string, []Warning, error) {
	tables, warnings, err := e.Tables(ctx)
	if err != nil {
		return "", warnings, err
	}
	md, err := export.MarkdownAll(tables)
	return md, warnings, err
}

func (e *Extractor) pipeline() *pipeline.Pipeline {
	opts := []pipeline.Option{pipeline.WithConcurrency(e.options.concurrency)}
	if e.options.logger != nil {
		opts = append(opts, pipeline.WithLogger(e.options.logger))
	}
	return pipeline.New(e.options.config, opts...)
}

func (e *Extractor) selectPages(candidates []model.Candidate) []model.Candidate {
	if len(e.options.pages) == 0 {
		return candidates
	}
	var out []model.Candidate
	for _, c := range candidates {
		if slices.Contains(e.options.pages, c.Meta.PageNum) {
			out = append(out, c)
		}
	}
	return out
}
