// Package docx reads the tables of DOCX (Office Open XML) documents.
//
// Every <w:tbl> in word/document.xml becomes one Table, including tables
// inside content controls and tables nested in cells. Merged cells are
// expanded onto the table grid and reported as spans.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tsawler/tabsift/model"
)

const documentPart = "word/document.xml"

// Reader holds the tables of one DOCX document.
type Reader struct {
	tables []*Table
}

// Open reads the tables of the DOCX file at filename.
func Open(filename string) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader reads the tables of a DOCX document of the given size.
func OpenReader(r io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("missing required file: %s", documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", documentPart, err)
	}
	defer rc.Close()

	tables, err := parseDocument(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &Reader{tables: tables}, nil
}

// parseDocument decodes every top-level <w:tbl> wherever it sits in the
// body. Nested tables are decoded as part of their parent.
func parseDocument(r io.Reader) ([]*Table, error) {
	d := xml.NewDecoder(r)
	var out []*Table
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "tbl" || (se.Name.Space != "" && se.Name.Space != nsW) {
			continue
		}
		var x tableXML
		if err := d.DecodeElement(&x, &se); err != nil {
			return nil, err
		}
		out = flatten(out, x)
	}
}

// Tables returns the tables in document order, each nested table right
// after the table that holds it.
func (r *Reader) Tables() []*Table {
	return r.tables
}

// Candidates converts every non-empty table into a candidate. TableIndex
// is the table's position among the returned candidates; DOCX has no fixed
// pages, so every candidate is on page 1.
func (r *Reader) Candidates(sourceFile string) []model.Candidate {
	var out []model.Candidate
	for _, t := range r.tables {
		if t.RowCount() == 0 || t.ColCount() == 0 || t.IsEmpty() {
			continue
		}
		rows := make([][]string, len(t.Grid))
		for i, row := range t.Grid {
			rows[i] = append([]string(nil), row...)
		}
		merges := make([]model.MergeRegion, 0, len(t.Spans))
		for _, s := range t.Spans {
			merges = append(merges, model.MergeRegion{
				Top:    s.Row,
				Bottom: s.Row + s.Rows - 1,
				Left:   s.Col,
				Right:  s.Col + s.Cols - 1,
				Text:   s.Text,
			})
		}
		out = append(out, model.Candidate{
			Raw:    model.NewRawTable(rows),
			Merges: merges,
			Meta:   model.Provenance{SourceFile: sourceFile, PageNum: 1, TableIndex: len(out)},
		})
	}
	return out
}
