// Package pipeline runs the full validation and classification sequence
// over extracted tables.
//
// For each [model.Candidate] the pipeline:
//
//  1. fills merged regions on a copy of the raw grid
//  2. promotes the header row and drops fully blank rows
//  3. scores the table and discards it when invalid
//  4. finds numeric columns and rows
//  5. converts numeric columns to typed integers
//  6. returns the finalized [model.ClassifiedTable]
//
// Candidates are independent of each other; [Pipeline.ProcessAll] runs them
// concurrently.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/tabsift/classify"
	"github.com/tsawler/tabsift/clean"
	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/merge"
	"github.com/tsawler/tabsift/model"
	"github.com/tsawler/tabsift/score"
)

// Pipeline validates and classifies raw tables. A Pipeline holds no
// per-table state and is safe for concurrent use.
type Pipeline struct {
	config      config.Config
	scorer      *score.Scorer
	logger      *slog.Logger
	concurrency int
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithConcurrency bounds the number of tables ProcessAll handles at once.
// Values below 1 mean no limit. Default: 4.
func WithConcurrency(n int) Option { return func(p *Pipeline) { p.concurrency = n } }

// New creates a pipeline using cfg.
func New(cfg config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:      cfg,
		logger:      slog.Default(),
		concurrency: 4,
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.scorer = score.New(cfg)
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() config.Config {
	return p.config
}

// Process validates and classifies one candidate. It returns nil when the
// table is rejected; no partial result is produced. Warnings describe
// recoverable issues such as skipped merge regions.
func (p *Pipeline) Process(c model.Candidate) (*model.ClassifiedTable, []model.Warning) {
	ct, _, warnings := p.process(c)
	return ct, warnings
}

// Evaluate is Process that also returns the score result, including for
// rejected tables.
func (p *Pipeline) Evaluate(c model.Candidate) (*model.ClassifiedTable, score.Result, []model.Warning) {
	return p.process(c)
}

func (p *Pipeline) process(c model.Candidate) (*model.ClassifiedTable, score.Result, []model.Warning) {
	if c.Raw == nil {
		return nil, score.Result{Reason: score.ReasonTooSmall}, nil
	}
	log := p.logger.With(
		"source", c.Meta.SourceFile,
		"page", c.Meta.PageNum,
		"table", c.Meta.TableIndex,
	)

	filled, warnings := merge.Fill(c.Raw, c.Merges)
	for i := range warnings {
		warnings[i].Meta = c.Meta
		log.Debug("merge region", "code", warnings[i].Code, "detail", warnings[i].Message)
	}

	t := model.PromoteHeader(filled, p.config.MetadataPrefix)
	if n := t.DropBlankRows(); n > 0 {
		log.Debug("dropped blank rows", "count", n)
	}

	res := p.scorer.Score(t)
	if !res.Valid {
		log.Debug("table rejected", "score", res.Score, "reason", res.Reason,
			"rows", t.RowCount(), "cols", t.ColCount())
		return nil, res, warnings
	}

	st := classify.Analyze(p.config, t)
	if _, err := clean.Columns(t, st.NumericCols); err != nil {
		log.Error("cleaning numeric columns", "error", err)
		return nil, res, warnings
	}

	ct := &model.ClassifiedTable{
		Table:        t,
		Meta:         c.Meta,
		NumericCols:  st.NumericCols,
		NumericRows:  st.NumericRows,
		IsDataTable:  st.IsDataTable,
		QualityScore: res.Score,
		IsValid:      true,
		Type:         st.Type(),
	}
	log.Debug("table accepted", "score", res.Score, "type", ct.Type.String(),
		"numeric_cols", len(ct.NumericCols), "numeric_rows", len(ct.NumericRows))
	return ct, res, warnings
}

// Stats summarises a batch run.
type Stats struct {
	Processed int `json:"processed"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
}

// ProcessAll processes candidates concurrently and returns the accepted
// tables in input order. It stops early only when ctx is cancelled.
func (p *Pipeline) ProcessAll(ctx context.Context, candidates []model.Candidate) ([]*model.ClassifiedTable, []model.Warning, error) {
	tables, warnings, _, err := p.ProcessAllStats(ctx, candidates)
	return tables, warnings, err
}

// ProcessAllStats is ProcessAll that also reports batch counts.
func (p *Pipeline) ProcessAllStats(ctx context.Context, candidates []model.Candidate) ([]*model.ClassifiedTable, []model.Warning, Stats, error) {
	results := make([]*model.ClassifiedTable, len(candidates))
	perTable := make([][]model.Warning, len(candidates))
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], perTable[i] = p.Process(candidates[i])
			processed.Add(1)
			return nil
		})
	}
	err := g.Wait()

	var stats Stats
	stats.Processed = int(processed.Load())
	var accepted []*model.ClassifiedTable
	var warnings []model.Warning
	for i, ct := range results {
		warnings = append(warnings, perTable[i]...)
		if ct != nil {
			accepted = append(accepted, ct)
		}
	}
	stats.Accepted = len(accepted)
	stats.Rejected = stats.Processed - stats.Accepted

	if err != nil {
		return accepted, warnings, stats, fmt.Errorf("processing tables: %w", err)
	}
	p.logger.Info("tables processed",
		"processed", stats.Processed, "accepted", stats.Accepted, "rejected", stats.Rejected)
	return accepted, warnings, stats, nil
}
