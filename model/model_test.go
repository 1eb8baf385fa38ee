package model

import (
	"database/sql"
	"strings"
	"testing"
)

// ============================================================================
// RawTable Tests
// ============================================================================

func TestRawTable_ColCount(t *testing.T) {
	raw := NewRawTable([][]string{
		{"a", "b"},
		{"1", "2", "3"},
		{"4"},
	})
	if raw.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", raw.RowCount())
	}
	if raw.ColCount() != 3 {
		t.Errorf("ColCount() = %d, want 3", raw.ColCount())
	}
}

func TestRawTable_Cell(t *testing.T) {
	raw := NewRawTable([][]string{{"a", "b"}, {"1"}})
	tests := []struct {
		row, col int
		want     string
	}{
		{0, 0, "a"},
		{0, 1, "b"},
		{1, 0, "1"},
		{1, 1, ""}, // short row
		{5, 0, ""},
		{0, -1, ""},
	}
	for _, tt := range tests {
		if got := raw.Cell(tt.row, tt.col); got != tt.want {
			t.Errorf("Cell(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestRawTable_SetCell(t *testing.T) {
	raw := NewRawTable([][]string{{"a", "b"}, {"1"}})
	if err := raw.SetCell(1, 1, "x"); err != nil {
		t.Fatalf("SetCell() failed: %v", err)
	}
	if raw.Cell(1, 1) != "x" {
		t.Errorf("Cell(1, 1) = %q, want %q", raw.Cell(1, 1), "x")
	}
	if err := raw.SetCell(2, 0, "x"); err == nil {
		t.Error("SetCell() expected error for row out of bounds")
	}
	if err := raw.SetCell(0, 2, "x"); err == nil {
		t.Error("SetCell() expected error for col out of bounds")
	}
}

func TestRawTable_Clone(t *testing.T) {
	orig := NewRawTable([][]string{{"a", "b"}, {"1"}})
	c := orig.Clone()
	if len(c.Rows[1]) != 2 {
		t.Fatalf("clone row length = %d, want 2", len(c.Rows[1]))
	}
	c.Rows[0][0] = "changed"
	if orig.Rows[0][0] != "a" {
		t.Error("Clone aliases the original grid")
	}
	if len(orig.Rows[1]) != 1 {
		t.Error("Clone modified the original row length")
	}
}

func TestIsBlank(t *testing.T) {
	for _, s := range []string{"", " ", "\t\n", "　"} {
		if !IsBlank(s) {
			t.Errorf("IsBlank(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", " x "} {
		if IsBlank(s) {
			t.Errorf("IsBlank(%q) = true, want false", s)
		}
	}
}

func TestMergeRegion_Contains(t *testing.T) {
	m := MergeRegion{Top: 1, Bottom: 2, Left: 0, Right: 1}
	if !m.Contains(1, 0) || !m.Contains(2, 1) {
		t.Error("Contains() = false for a corner cell")
	}
	if m.Contains(0, 0) || m.Contains(1, 2) {
		t.Error("Contains() = true for a cell outside the region")
	}
}

// ============================================================================
// Header Promotion Tests
// ============================================================================

func TestPromoteHeader_Names(t *testing.T) {
	raw := NewRawTable([][]string{
		{"Item", "", "Qty", "Qty", " ", "Qty"},
		{"a", "b", "1", "2", "c", "3"},
	})
	tbl := PromoteHeader(raw, "_")

	want := []string{"Item", "Column_2", "Qty", "Qty_1", "Column_5", "Qty_2"}
	if tbl.ColCount() != len(want) {
		t.Fatalf("ColCount() = %d, want %d", tbl.ColCount(), len(want))
	}
	for i, w := range want {
		if tbl.Columns[i].Name != w {
			t.Errorf("Columns[%d].Name = %q, want %q", i, tbl.Columns[i].Name, w)
		}
	}
	if !tbl.Columns[1].Synthetic || !tbl.Columns[4].Synthetic {
		t.Error("blank headers should be marked Synthetic")
	}
	if tbl.Columns[3].Synthetic {
		t.Error("suffixed duplicate should not be marked Synthetic")
	}
	if tbl.RowCount() != 1 {
		t.Errorf("RowCount() = %d, want 1", tbl.RowCount())
	}
}

func TestPromoteHeader_SyntheticCollision(t *testing.T) {
	raw := NewRawTable([][]string{{"Column_2", ""}, {"1", "2"}})
	tbl := PromoteHeader(raw, "")
	if tbl.Columns[1].Name != "Column_2_1" {
		t.Errorf("Columns[1].Name = %q, want %q", tbl.Columns[1].Name, "Column_2_1")
	}
}

func TestPromoteHeader_Metadata(t *testing.T) {
	raw := NewRawTable([][]string{
		{"_source", "Name", "Value"},
		{"a.pdf", "x", "1"},
		{"_note", "y", "2"},
		{"b.pdf", "z", "3"},
	})
	tbl := PromoteHeader(raw, "_")

	if !tbl.Columns[0].Metadata || tbl.Columns[1].Metadata {
		t.Errorf("metadata flags = %v %v, want true false", tbl.Columns[0].Metadata, tbl.Columns[1].Metadata)
	}
	if got := tbl.DataColumns(); len(got) != 2 || got[0] != 1 {
		t.Errorf("DataColumns() = %v, want [1 2]", got)
	}
	if !tbl.IsMetadataRow(1) || tbl.IsMetadataRow(0) {
		t.Error("IsMetadataRow misclassified rows")
	}
	if got := tbl.DataRows(); len(got) != 2 || got[1] != 2 {
		t.Errorf("DataRows() = %v, want [0 2]", got)
	}
	if got := tbl.ColumnValues(2); strings.Join(got, ",") != "1,3" {
		t.Errorf("ColumnValues(2) = %v, want [1 3]", got)
	}
	if got := tbl.RowValues(0); strings.Join(got, ",") != "x,1" {
		t.Errorf("RowValues(0) = %v, want [x 1]", got)
	}
}

func TestPromoteHeader_Empty(t *testing.T) {
	tbl := PromoteHeader(NewRawTable(nil), "_")
	if tbl.ColCount() != 0 || tbl.RowCount() != 0 {
		t.Errorf("empty table = %dx%d, want 0x0", tbl.RowCount(), tbl.ColCount())
	}
}

func TestPromoteHeader_DoesNotAlias(t *testing.T) {
	raw := NewRawTable([][]string{{"a"}, {"1"}})
	tbl := PromoteHeader(raw, "")
	tbl.Rows[0][0] = "changed"
	if raw.Rows[1][0] != "1" {
		t.Error("PromoteHeader aliases the raw grid")
	}
}

func TestTable_DropBlankRows(t *testing.T) {
	raw := NewRawTable([][]string{
		{"_id", "a", "b"},
		{"1", "x", "y"},
		{"2", "", " "},
		{"3", "", "z"},
	})
	tbl := PromoteHeader(raw, "_")
	if n := tbl.DropBlankRows(); n != 1 {
		t.Errorf("DropBlankRows() = %d, want 1", n)
	}
	if tbl.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", tbl.RowCount())
	}
	if tbl.Rows[1][2] != "z" {
		t.Errorf("remaining row = %v, want the row ending in z", tbl.Rows[1])
	}
}

// ============================================================================
// Rendering Tests
// ============================================================================

func TestTable_ToMarkdown(t *testing.T) {
	raw := NewRawTable([][]string{
		{"_src", "Name", "Qty"},
		{"f", "a|b", "1,000"},
		{"f", "c", "-"},
	})
	tbl := PromoteHeader(raw, "_")
	tbl.Columns[2].Values = []sql.NullInt64{{Int64: 1000, Valid: true}, {}}

	want := "| Name | Qty |\n|---|---|\n| a\\|b | 1000 |\n| c |  |\n"
	if got := tbl.ToMarkdown(); got != want {
		t.Errorf("ToMarkdown() =\n%s\nwant\n%s", got, want)
	}
}

func TestTableType_Text(t *testing.T) {
	for _, tt := range []TableType{DataTable, TextTable} {
		b, err := tt.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() failed: %v", err)
		}
		var back TableType
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q) failed: %v", b, err)
		}
		if back != tt {
			t.Errorf("round trip %v = %v", tt, back)
		}
	}
	var bad TableType
	if err := bad.UnmarshalText([]byte("chart")); err == nil {
		t.Error("UnmarshalText() expected error for unknown type")
	}
}

func TestWarning_String(t *testing.T) {
	w := Warning{Code: "merge", Message: "skipped"}
	if w.String() != "merge: skipped" {
		t.Errorf("String() = %q", w.String())
	}
	w.Meta = Provenance{SourceFile: "a.xlsx", PageNum: 2, TableIndex: 1}
	if !strings.HasPrefix(w.String(), "a.xlsx (page 2, table 1)") {
		t.Errorf("String() = %q", w.String())
	}
	if got := FormatWarnings([]Warning{{Code: "a", Message: "b"}, {Code: "c", Message: "d"}}); got != "a: b\nc: d" {
		t.Errorf("FormatWarnings() = %q", got)
	}
}
