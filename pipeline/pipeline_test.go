package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/tsawler/tabsift/config"
	"github.com/tsawler/tabsift/merge"
	"github.com/tsawler/tabsift/model"
	"github.com/tsawler/tabsift/score"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fruit() model.Candidate {
	return model.Candidate{
		Raw: model.NewRawTable([][]string{
			{"品名", "数量", "単価"},
			{"りんご", "10", "100"},
			{"みかん", "5", "200"},
			{"", "", ""},
		}),
		Meta: model.Provenance{SourceFile: "fruit.pdf", PageNum: 3, TableIndex: 1},
	}
}

func TestProcess_EndToEnd(t *testing.T) {
	p := New(config.Default(), quiet())
	ct, warnings := p.Process(fruit())
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if ct == nil {
		t.Fatal("Process() rejected the fruit table")
	}
	if ct.Table.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2 after blank row removal", ct.Table.RowCount())
	}
	if len(ct.NumericCols) != 2 || ct.NumericCols[0] != "数量" || ct.NumericCols[1] != "単価" {
		t.Errorf("NumericCols = %v, want [数量 単価]", ct.NumericCols)
	}
	if ct.Type != model.DataTable || !ct.IsDataTable {
		t.Errorf("Type = %v, want data", ct.Type)
	}
	if ct.QualityScore != 9 || !ct.IsValid {
		t.Errorf("QualityScore = %v, IsValid = %v; want 9, true", ct.QualityScore, ct.IsValid)
	}
	if ct.Meta.SourceFile != "fruit.pdf" || ct.Meta.PageNum != 3 || ct.Meta.TableIndex != 1 {
		t.Errorf("Meta = %+v", ct.Meta)
	}
	qty := ct.Table.Column("数量")
	if !qty.Cleaned() || qty.Values[1].Int64 != 5 {
		t.Errorf("数量 values = %+v, want typed [10 5]", qty.Values)
	}
	if ct.Table.Column("品名").Cleaned() {
		t.Error("text column was cleaned")
	}
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	c := fruit()
	c.Merges = []model.MergeRegion{{Top: 3, Bottom: 3, Left: 0, Right: 2, Text: "x"}}
	New(config.Default(), quiet()).Process(c)
	if c.Raw.RowCount() != 4 || c.Raw.Cell(3, 0) != "" {
		t.Errorf("input grid modified: %v", c.Raw.Rows)
	}
}

func TestProcess_MergeBeforeScoring(t *testing.T) {
	// Unfilled, one row is blank and the rest are half empty.
	raw := model.NewRawTable([][]string{
		{"Region", "Store"},
		{"East", ""},
		{"", ""},
		{"", "C"},
	})
	merges := []model.MergeRegion{
		{Top: 1, Bottom: 3, Left: 0, Right: 0, Text: "East"},
		{Top: 1, Bottom: 2, Left: 1, Right: 1, Text: "A"},
	}
	p := New(config.Default(), quiet())

	if ct, _ := p.Process(model.Candidate{Raw: raw}); ct != nil {
		t.Fatal("unfilled table accepted")
	}
	ct, _, _ := p.Evaluate(model.Candidate{Raw: raw, Merges: merges})
	if ct == nil {
		t.Fatal("filled table rejected")
	}
	if ct.Table.Rows[2][0] != "East" {
		t.Errorf("Rows[2][0] = %q, want East", ct.Table.Rows[2][0])
	}
}

func TestProcess_Rejected(t *testing.T) {
	p := New(config.Default(), quiet())
	tests := []struct {
		name   string
		rows   [][]string
		reason string
	}{
		{"single row", [][]string{{"a", "b"}, {"1", "2"}}, score.ReasonTooSmall},
		{"only blank rows", [][]string{{"a", "b"}, {"", ""}, {"", ""}}, score.ReasonTooSmall},
		{"sparse", [][]string{{"a", "b", "c", "d"}, {"1", "", "", ""}, {"", "x", "", ""}, {"", "", "y", ""}}, score.ReasonSparse},
		{"small text", [][]string{{"a", "b"}, {"x", "y"}, {"u", "v"}}, score.ReasonLowScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, res, _ := p.Evaluate(model.Candidate{Raw: model.NewRawTable(tt.rows)})
			if ct != nil {
				t.Fatalf("Evaluate() accepted %v", tt.rows)
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.reason)
			}
		})
	}
}

func TestProcess_NilRaw(t *testing.T) {
	if ct, _ := New(config.Default(), quiet()).Process(model.Candidate{}); ct != nil {
		t.Error("Process() accepted a candidate without a grid")
	}
}

func TestProcess_WarningsCarryProvenance(t *testing.T) {
	c := fruit()
	c.Merges = []model.MergeRegion{{Top: 9, Bottom: 9, Left: 0, Right: 0, Text: "x"}}
	ct, warnings := New(config.Default(), quiet()).Process(c)
	if ct == nil {
		t.Fatal("a bad merge region rejected the table")
	}
	if len(warnings) != 1 || warnings[0].Code != merge.CodeSkipped {
		t.Fatalf("warnings = %v, want one skipped region", warnings)
	}
	if warnings[0].Meta != c.Meta {
		t.Errorf("warning Meta = %+v, want %+v", warnings[0].Meta, c.Meta)
	}
}

func TestProcess_TextTable(t *testing.T) {
	ct, _ := New(config.Default(), quiet()).Process(model.Candidate{Raw: model.NewRawTable([][]string{
		{"Term", "Meaning", "Notes"},
		{"raw", "grid", "from extraction"},
		{"merge", "span", "shared label"},
		{"score", "rating", "0 to 10"},
	})})
	if ct == nil {
		t.Fatal("text table rejected")
	}
	if ct.Type != model.TextTable || len(ct.NumericCols) != 0 {
		t.Errorf("Type = %v, NumericCols = %v; want text, none", ct.Type, ct.NumericCols)
	}
}

func TestProcessAll(t *testing.T) {
	var candidates []model.Candidate
	for i := 0; i < 20; i++ {
		c := fruit()
		c.Meta.TableIndex = i
		if i%3 == 0 {
			c.Raw = model.NewRawTable([][]string{{"a"}, {"1"}})
		}
		candidates = append(candidates, c)
	}

	p := New(config.Default(), quiet(), WithConcurrency(3))
	tables, _, stats, err := p.ProcessAllStats(context.Background(), candidates)
	if err != nil {
		t.Fatalf("ProcessAllStats() failed: %v", err)
	}
	if stats.Processed != 20 || stats.Rejected != 7 || stats.Accepted != 13 {
		t.Errorf("stats = %+v, want 20 processed, 13 accepted, 7 rejected", stats)
	}
	if len(tables) != 13 {
		t.Fatalf("len(tables) = %d, want 13", len(tables))
	}
	prev := -1
	for _, ct := range tables {
		if ct.Meta.TableIndex <= prev {
			t.Errorf("tables out of order: %d after %d", ct.Meta.TableIndex, prev)
		}
		if ct.Meta.TableIndex%3 == 0 {
			t.Errorf("rejected table %d returned", ct.Meta.TableIndex)
		}
		prev = ct.Meta.TableIndex
	}
}

func TestProcessAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates := make([]model.Candidate, 5)
	for i := range candidates {
		candidates[i] = fruit()
	}
	_, _, err := New(config.Default(), quiet()).ProcessAll(ctx, candidates)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessAll() error = %v, want context.Canceled", err)
	}
}

func TestProcessAll_Empty(t *testing.T) {
	tables, warnings, err := New(config.Default(), quiet()).ProcessAll(context.Background(), nil)
	if err != nil || len(tables) != 0 || len(warnings) != 0 {
		t.Errorf("ProcessAll(nil) = %v, %v, %v", tables, warnings, err)
	}
}

func BenchmarkProcess(b *testing.B) {
	rows := [][]string{{"Item", "Qty", "Price", "Note"}}
	for i := 0; i < 200; i++ {
		rows = append(rows, []string{fmt.Sprintf("item %d", i), fmt.Sprint(i), fmt.Sprintf("¥%d,000", i), "ok"})
	}
	c := model.Candidate{Raw: model.NewRawTable(rows)}
	p := New(config.Default(), quiet())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(c)
	}
}
