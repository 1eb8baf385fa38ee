package odt

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contentHead = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content
  xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
  office:version="1.3"><office:body>`

// buildODF assembles a package whose office:body holds body. kind is
// "text" or "spreadsheet".
func buildODF(t testing.TB, kind, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	writeZipFile(t, zw, "mimetype", "application/vnd.oasis.opendocument."+kind)
	writeZipFile(t, zw, contentPart, contentHead+"<office:"+kind+">"+body+"</office:"+kind+"></office:body></office:document-content>")
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func writeZipFile(t testing.TB, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("Failed to create %s in zip: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func openBytes(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	return r
}

func tc(text string) string {
	if text == "" {
		return "<table:table-cell/>"
	}
	return "<table:table-cell><text:p>" + text + "</text:p></table:table-cell>"
}

func tr(cells ...string) string {
	return "<table:table-row>" + strings.Join(cells, "") + "</table:table-row>"
}

func tbl(name string, rows ...string) string {
	return `<table:table table:name="` + name + `"><table:table-column table:number-columns-repeated="3"/>` +
		strings.Join(rows, "") + "</table:table>"
}

func gridEqual(got, want [][]string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			return false
		}
	}
	return true
}

// ===== Open Tests =====

func TestOpen(t *testing.T) {
	data := buildODF(t, "text", `<text:p>intro</text:p>`+tbl("T1", tr(tc("a"), tc("b"))))
	p := filepath.Join(t.TempDir(), "doc.odt")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Open(p)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if r.IsSpreadsheet() {
		t.Error("IsSpreadsheet() = true for a text document")
	}
	if len(r.Tables()) != 1 || r.Tables()[0].Name != "T1" {
		t.Errorf("Tables() = %+v", r.Tables())
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.odt")); err == nil {
		t.Error("expected error for missing file")
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	writeZipFile(t, zw, "mimetype", "application/vnd.oasis.opendocument.text")
	zw.Close()
	if _, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Error("expected error for package without content.xml")
	}

	truncated := buildODF(t, "text", `<table:table><table:table-row><table:table-cell>`)
	if _, err := OpenReader(bytes.NewReader(truncated), int64(len(truncated))); err == nil {
		t.Error("expected error for unterminated table")
	}
}

// ===== Layout Tests =====

func TestParse_Spans(t *testing.T) {
	body := tbl("T",
		tr(`<table:table-cell table:number-columns-spanned="2"><text:p>Sales</text:p></table:table-cell>`,
			`<table:covered-table-cell/>`, tc("Note")),
		tr(`<table:table-cell table:number-rows-spanned="2"><text:p>East</text:p></table:table-cell>`, tc("1"), tc("x")),
		tr(`<table:covered-table-cell/>`, tc("2"), tc("y")),
	)
	tbl := openBytes(t, buildODF(t, "text", body)).Tables()[0]
	want := [][]string{{"Sales", "", "Note"}, {"East", "1", "x"}, {"", "2", "y"}}
	if !gridEqual(tbl.Grid, want) {
		t.Errorf("Grid = %v, want %v", tbl.Grid, want)
	}
	if len(tbl.Spans) != 2 {
		t.Fatalf("Spans = %+v, want 2", tbl.Spans)
	}
	if tbl.Spans[0] != (Span{Row: 0, Col: 0, Rows: 1, Cols: 2, Text: "Sales"}) {
		t.Errorf("Spans[0] = %+v", tbl.Spans[0])
	}
	if tbl.Spans[1] != (Span{Row: 1, Col: 0, Rows: 2, Cols: 1, Text: "East"}) {
		t.Errorf("Spans[1] = %+v", tbl.Spans[1])
	}
}

func TestParse_RepeatedAndPadding(t *testing.T) {
	// Spreadsheets pad sheets with huge repeated blank rows and columns.
	body := `<table:table table:name="Sheet1">` +
		`<table:table-row table:number-rows-repeated="2"><table:table-cell table:number-columns-repeated="16384"/></table:table-row>` +
		`<table:table-row><table:table-cell/><table:table-cell><text:p>Item</text:p></table:table-cell>` +
		`<table:table-cell table:number-columns-repeated="2"><text:p>7</text:p></table:table-cell>` +
		`<table:table-cell table:number-columns-repeated="16380"/></table:table-row>` +
		`<table:table-row table:number-rows-repeated="2"><table:table-cell/><table:table-cell><text:p>A</text:p></table:table-cell></table:table-row>` +
		`<table:table-row table:number-rows-repeated="1048570"><table:table-cell table:number-columns-repeated="16384"/></table:table-row>` +
		`</table:table>`
	tbl := openBytes(t, buildODF(t, "spreadsheet", body)).Tables()[0]
	want := [][]string{{"Item", "7", "7"}, {"A", "", ""}, {"A", "", ""}}
	if !gridEqual(tbl.Grid, want) {
		t.Errorf("Grid = %v, want %v", tbl.Grid, want)
	}
	if tbl.Truncated {
		t.Error("Truncated set for a padded sheet")
	}
}

func TestParse_HeaderRowsAndGroups(t *testing.T) {
	body := `<table:table>` +
		`<table:table-header-rows>` + tr(tc("h1"), tc("h2")) + `</table:table-header-rows>` +
		`<table:table-rows>` + tr(tc("a"), tc("b")) + `</table:table-rows>` +
		`</table:table>`
	tbl := openBytes(t, buildODF(t, "text", body)).Tables()[0]
	want := [][]string{{"h1", "h2"}, {"a", "b"}}
	if !gridEqual(tbl.Grid, want) {
		t.Errorf("Grid = %v, want %v", tbl.Grid, want)
	}
}

// ===== Text Tests =====

func TestCellText(t *testing.T) {
	cell := `<table:table-cell>` +
		`<text:p>1,<text:span>200</text:span><text:s text:c="3"/>yen</text:p>` +
		`<text:p>net<text:tab/>total<office:annotation><text:p>comment</text:p></office:annotation></text:p>` +
		`</table:table-cell>`
	tbl := openBytes(t, buildODF(t, "text", tbl("T", tr(cell, tc("b"))))).Tables()[0]
	if got := tbl.Grid[0][0]; got != "1,200 yen net total" {
		t.Errorf("cell text = %q", got)
	}
}

func TestParse_Nested(t *testing.T) {
	inner := `<table:table table:name="Inner">` + tr(tc("in1"), tc("in2")) + `</table:table>`
	outer := tbl("Outer", tr(`<table:table-cell><text:p>outer</text:p>`+inner+`</table:table-cell>`, tc("b")))
	tables := openBytes(t, buildODF(t, "text", outer+tbl("Last", tr(tc("z"), tc("y"))))).Tables()
	if len(tables) != 3 {
		t.Fatalf("len(Tables()) = %d, want 3", len(tables))
	}
	names := tables[0].Name + "," + tables[1].Name + "," + tables[2].Name
	if names != "Outer,Inner,Last" {
		t.Errorf("order = %s", names)
	}
	if tables[0].Grid[0][0] != "outer" {
		t.Errorf("outer cell = %q, want nested text excluded", tables[0].Grid[0][0])
	}
}

// ===== Candidate Tests =====

func TestCandidates_Text(t *testing.T) {
	body := tbl("Empty", tr(tc(""), tc(""))) + tbl("Data", tr(tc("Item"), tc("Qty")), tr(tc("A"), tc("1")))
	cands := openBytes(t, buildODF(t, "text", body)).Candidates("doc.odt")
	if len(cands) != 1 {
		t.Fatalf("len(Candidates()) = %d, want 1", len(cands))
	}
	if m := cands[0].Meta; m.SourceFile != "doc.odt" || m.PageNum != 1 || m.TableIndex != 0 {
		t.Errorf("Meta = %+v", m)
	}
}

func TestCandidates_Spreadsheet(t *testing.T) {
	body := tbl("S1", tr(tc("Item"), tc("Qty"))) + tbl("S2", tr(tc(""))) + tbl("S3",
		tr(`<table:table-cell table:number-columns-spanned="2"><text:p>Fruit</text:p></table:table-cell>`, `<table:covered-table-cell/>`),
		tr(tc("Apple"), tc("3")))
	r := openBytes(t, buildODF(t, "spreadsheet", body))
	if !r.IsSpreadsheet() {
		t.Fatal("IsSpreadsheet() = false")
	}
	cands := r.Candidates("book.ods")
	if len(cands) != 2 {
		t.Fatalf("len(Candidates()) = %d, want 2", len(cands))
	}
	if cands[1].Meta.PageNum != 3 || cands[1].Meta.TableIndex != 0 {
		t.Errorf("third sheet Meta = %+v, want page 3", cands[1].Meta)
	}
	if len(cands[1].Merges) != 1 || cands[1].Merges[0].Right != 1 || cands[1].Merges[0].Text != "Fruit" {
		t.Errorf("Merges = %+v", cands[1].Merges)
	}
}
