package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/tabsift/clean"
	"github.com/tsawler/tabsift/model"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func classified(t *testing.T, source string, page, index int) *model.ClassifiedTable {
	t.Helper()
	tbl := model.PromoteHeader(model.NewRawTable([][]string{
		{"Item", "Qty", "_note"},
		{"Apple", "10", "a"},
		{"Pear", "", "b"},
	}), "_")
	if _, err := clean.Column(tbl, "Qty"); err != nil {
		t.Fatal(err)
	}
	return &model.ClassifiedTable{
		Table:        tbl,
		Meta:         model.Provenance{SourceFile: source, PageNum: page, TableIndex: index},
		NumericCols:  []string{"Qty"},
		NumericRows:  []int{0},
		IsDataTable:  true,
		QualityScore: 8,
		IsValid:      true,
		Type:         model.DataTable,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s := openMemory(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	id, err := s.SaveTable(ctx, classified(t, "a.pdf", 2, 0))
	if err != nil {
		t.Fatalf("SaveTable() failed: %v", err)
	}
	u, err := uuid.Parse(id)
	if err != nil || u.Version() != 7 {
		t.Errorf("id %q is not a version 7 UUID", id)
	}

	rec, err := s.GetTable(ctx, id)
	if err != nil {
		t.Fatalf("GetTable() failed: %v", err)
	}
	if rec.ID != id || !rec.CreatedAt.Equal(fixed) {
		t.Errorf("record = %s at %v, want %s at %v", rec.ID, rec.CreatedAt, id, fixed)
	}
	tbl := rec.Table
	if tbl.Meta.SourceFile != "a.pdf" || tbl.Meta.PageNum != 2 {
		t.Errorf("Meta = %+v", tbl.Meta)
	}
	if tbl.Type != model.DataTable || tbl.Score != 8 {
		t.Errorf("Type = %v, Score = %v", tbl.Type, tbl.Score)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[1] != "Qty" {
		t.Errorf("Columns = %v, want [Item Qty]", tbl.Columns)
	}
	if tbl.Rows[0][1] != "10" || tbl.Rows[1][1] != "" {
		t.Errorf("Rows = %v", tbl.Rows)
	}
	if len(tbl.NumericRows) != 1 || tbl.NumericRows[0] != 0 {
		t.Errorf("NumericRows = %v", tbl.NumericRows)
	}
}

func TestStore_GetTableNotFound(t *testing.T) {
	s := openMemory(t)
	_, err := s.GetTable(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTable() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListTables(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for _, c := range []struct {
		src         string
		page, index int
	}{
		{"b.pdf", 1, 0}, {"a.pdf", 3, 0}, {"a.pdf", 1, 1}, {"a.pdf", 1, 0},
	} {
		if _, err := s.SaveTable(ctx, classified(t, c.src, c.page, c.index)); err != nil {
			t.Fatalf("SaveTable() failed: %v", err)
		}
	}

	recs, err := s.ListTables(ctx, "a.pdf")
	if err != nil {
		t.Fatalf("ListTables() failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(ListTables(a.pdf)) = %d, want 3", len(recs))
	}
	want := [][2]int{{1, 0}, {1, 1}, {3, 0}}
	for i, w := range want {
		m := recs[i].Table.Meta
		if m.PageNum != w[0] || m.TableIndex != w[1] {
			t.Errorf("recs[%d] = page %d table %d, want page %d table %d", i, m.PageNum, m.TableIndex, w[0], w[1])
		}
	}

	all, err := s.ListTables(ctx, "")
	if err != nil || len(all) != 4 {
		t.Errorf("ListTables(\"\") = %d records, %v; want 4", len(all), err)
	}
	none, err := s.ListTables(ctx, "c.pdf")
	if err != nil || len(none) != 0 {
		t.Errorf("ListTables(c.pdf) = %d records, %v; want 0", len(none), err)
	}
}

func TestStore_FindByColumn(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	if _, err := s.SaveTable(ctx, classified(t, "a.pdf", 1, 0)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		numeric bool
		want    int
	}{
		{"Qty", false, 1},
		{"Qty", true, 1},
		{"Item", false, 1},
		{"Item", true, 0},
		{"_note", false, 0}, // metadata columns are not stored
	}
	for _, tt := range tests {
		recs, err := s.FindByColumn(ctx, tt.name, tt.numeric)
		if err != nil {
			t.Fatalf("FindByColumn(%q) failed: %v", tt.name, err)
		}
		if len(recs) != tt.want {
			t.Errorf("FindByColumn(%q, %v) = %d records, want %d", tt.name, tt.numeric, len(recs), tt.want)
		}
	}
}

func TestStore_DeleteTable(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	id, err := s.SaveTable(ctx, classified(t, "a.pdf", 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTable(ctx, id); err != nil {
		t.Fatalf("DeleteTable() failed: %v", err)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM table_columns WHERE table_id = ?`, id).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d column rows left after delete, want 0", n)
	}
	if err := s.DeleteTable(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteTable() error = %v, want ErrNotFound", err)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	id, err := s.SaveTable(ctx, classified(t, "a.pdf", 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.GetTable(ctx, id); err != nil {
		t.Errorf("GetTable() after reopen: %v", err)
	}
}
