package xlsx

import "testing"

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		ref     string
		wantCol int
		wantRow int
		wantErr bool
	}{
		{"A1", 0, 0, false},
		{"Z1", 25, 0, false},
		{"AA1", 26, 0, false},
		{"BA1", 52, 0, false},
		{"C100", 2, 99, false},
		{"$B$3", 1, 2, false},
		{"b3", 1, 2, false},
		{"XFD1048576", 16383, 1048575, false},
		{"", 0, 0, true},
		{"1", 0, 0, true},
		{"A", 0, 0, true},
		{"A0", 0, 0, true},
		{"A-1", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			col, row, err := ParseCellRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCellRef(%q) expected error, got col=%d, row=%d", tt.ref, col, row)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCellRef(%q) unexpected error: %v", tt.ref, err)
			}
			if col != tt.wantCol || row != tt.wantRow {
				t.Errorf("ParseCellRef(%q) = (%d, %d), want (%d, %d)", tt.ref, col, row, tt.wantCol, tt.wantRow)
			}
		})
	}
}

func TestColumnIndexRoundTrip(t *testing.T) {
	tests := []struct {
		col   string
		index int
	}{
		{"A", 0},
		{"Z", 25},
		{"AA", 26},
		{"AZ", 51},
		{"ZZ", 701},
		{"AAA", 702},
		{"XFD", 16383},
	}
	for _, tt := range tests {
		if got := ColumnToIndex(tt.col); got != tt.index {
			t.Errorf("ColumnToIndex(%q) = %d, want %d", tt.col, got, tt.index)
		}
		if got := IndexToColumn(tt.index); got != tt.col {
			t.Errorf("IndexToColumn(%d) = %q, want %q", tt.index, got, tt.col)
		}
	}
	if got := ColumnToIndex("A1"); got != -1 {
		t.Errorf("ColumnToIndex(A1) = %d, want -1", got)
	}
	if got := IndexToColumn(-1); got != "" {
		t.Errorf("IndexToColumn(-1) = %q, want empty", got)
	}
}

func TestParseRangeRef(t *testing.T) {
	tests := []struct {
		ref     string
		want    Range
		wantErr bool
	}{
		{"A1:B2", Range{0, 0, 1, 1}, false},
		{"B5:F20", Range{4, 1, 19, 5}, false},
		{"D10:A1", Range{0, 0, 9, 3}, false},
		{"C3", Range{2, 2, 2, 2}, false},
		{"A1:B", Range{}, true},
		{":", Range{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ParseRangeRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRangeRef(%q) expected error", tt.ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRangeRef(%q) unexpected error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ParseRangeRef(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestRange_String(t *testing.T) {
	r := Range{StartRow: 0, StartCol: 1, EndRow: 9, EndCol: 27}
	if got := r.String(); got != "B1:AB10" {
		t.Errorf("String() = %q, want B1:AB10", got)
	}
}

func TestSheet_Value(t *testing.T) {
	s := &Sheet{Cells: [][]string{{"a", "b"}, {"c", ""}}}
	if got := s.Value(1, 0); got != "c" {
		t.Errorf("Value(1, 0) = %q, want c", got)
	}
	if got := s.ValueByRef("B1"); got != "b" {
		t.Errorf("ValueByRef(B1) = %q, want b", got)
	}
	if got := s.Value(5, 5); got != "" {
		t.Errorf("Value(5, 5) = %q, want empty", got)
	}
	if s.RowCount() != 2 || s.ColCount() != 2 {
		t.Errorf("size = %dx%d, want 2x2", s.RowCount(), s.ColCount())
	}
	if s.IsEmpty() {
		t.Error("IsEmpty() = true")
	}
	if !(&Sheet{Cells: [][]string{{" ", ""}}}).IsEmpty() {
		t.Error("whitespace-only sheet not empty")
	}
}
