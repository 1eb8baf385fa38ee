// Package export renders classified tables as Markdown, CSV and JSON, and
// aggregation reports as plain text.
//
// Renderers take the annotations of a [model.ClassifiedTable] as given;
// nothing is re-classified here. Metadata columns are never written.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/tabsift/aggregate"
	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/model"
)

// Table is the serialised form of one classified table.
type Table struct {
	Meta           model.Provenance  `json:"meta"`
	Type           model.TableType   `json:"type"`
	Score          float64           `json:"score"`
	IsDataTable    bool              `json:"is_data_table"`
	Columns        []string          `json:"columns"`
	NumericColumns []string          `json:"numeric_columns"`
	NumericRows    []int             `json:"numeric_rows"`
	Rows           [][]string        `json:"rows"`
	Summary        *aggregate.Report `json:"summary,omitempty"`
}

// NewTable converts ct. Cleaned numeric columns are written as their typed
// values, missing values as "".
func NewTable(ct *model.ClassifiedTable) Table {
	cols := ct.Table.DataColumns()
	rows := make([][]string, ct.Table.RowCount())
	for i := range rows {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = ct.Table.Text(i, c)
		}
		rows[i] = row
	}
	return Table{
		Meta:           ct.Meta,
		Type:           ct.Type,
		Score:          ct.QualityScore,
		IsDataTable:    ct.IsDataTable,
		Columns:        ct.ColumnNames(),
		NumericColumns: nonNil(ct.NumericCols),
		NumericRows:    nonNil(ct.NumericRows),
		Rows:           rows,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Document is the JSON envelope written by JSON.
type Document struct {
	Tables   []Table         `json:"tables"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// NewDocument converts every table in cts.
func NewDocument(cts []*model.ClassifiedTable) Document {
	doc := Document{Tables: make([]Table, len(cts))}
	for i, ct := range cts {
		doc.Tables[i] = NewTable(ct)
	}
	return doc
}

// Summarize attaches an aggregation report to each table of the document.
// cts must be the tables the document was built from.
func (d *Document) Summarize(cfg config.Config, cts []*model.ClassifiedTable) {
	for i, ct := range cts {
		if i >= len(d.Tables) {
			return
		}
		rep := aggregate.Summarize(cfg, ct)
		d.Tables[i].Summary = &rep
	}
}

// JSON writes doc as indented JSON.
func JSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding tables: %w", err)
	}
	return nil
}

// CSV writes the column names and rows of ct.
func CSV(w io.Writer, ct *model.ClassifiedTable) error {
	t := NewTable(ct)
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// frontMatter is the metadata block written above a Markdown table.
type frontMatter struct {
	Source         string   `yaml:"source,omitempty"`
	Page           int      `yaml:"page"`
	Table          int      `yaml:"table"`
	Type           string   `yaml:"type"`
	Score          float64  `yaml:"score"`
	NumericColumns []string `yaml:"numeric_columns,flow"`
	NumericRows    []int    `yaml:"numeric_rows,flow"`
}

// Markdown renders ct as a YAML front matter block followed by a Markdown
// table.
func Markdown(ct *model.ClassifiedTable) (string, error) {
	fm := frontMatter{
		Source:         ct.Meta.SourceFile,
		Page:           ct.Meta.PageNum,
		Table:          ct.Meta.TableIndex,
		Type:           ct.Type.String(),
		Score:          ct.QualityScore,
		NumericColumns: nonNil(ct.NumericCols),
		NumericRows:    nonNil(ct.NumericRows),
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(head)
	sb.WriteString("---\n\n")
	sb.WriteString(ct.Table.ToMarkdown())
	return sb.String(), nil
}

// MarkdownAll renders each table and separates them with a blank line.
func MarkdownAll(cts []*model.ClassifiedTable) (string, error) {
	parts := make([]string, 0, len(cts))
	for _, ct := range cts {
		md, err := Markdown(ct)
		if err != nil {
			return "", err
		}
		parts = append(parts, md)
	}
	return strings.Join(parts, "\n"), nil
}

// ReportText renders a report with one line per column and the exclusion
// notice when aggregate rows were left out.
func ReportText(r aggregate.Report) string {
	var sb strings.Builder
	if r.Meta.SourceFile != "" {
		fmt.Fprintf(&sb, "%s page %d table %d\n", r.Meta.SourceFile, r.Meta.PageNum, r.Meta.TableIndex)
	}
	for _, c := range r.Columns {
		if c.Status == aggregate.NoData {
			fmt.Fprintf(&sb, "  %s: %s\n", c.Name, c.Status)
			continue
		}
		fmt.Fprintf(&sb, "  %s: sum=%d count=%d mean=%.2f\n", c.Name, c.Sum, c.Count, c.Mean)
	}
	if n := r.Notice(); n != "" {
		fmt.Fprintf(&sb, "  (%s)\n", n)
	}
	return sb.String()
}
