// Package odt reads the tables of OpenDocument files: text documents
// (.odt), whose tables sit anywhere in the body, and spreadsheets (.ods),
// where every sheet is a table.
package odt

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

const contentPart = "content.xml"

// CodeTableTruncated is the warning code for a table cut at MaxCells.
const CodeTableTruncated = "table-truncated"

// Reader holds the tables of one OpenDocument file.
type Reader struct {
	tables      []*Table
	spreadsheet bool
}

// Open reads the tables of the OpenDocument file at filename.
func Open(filename string) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader reads the tables of an OpenDocument package of the given size.
func OpenReader(r io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == contentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("missing required file: %s", contentPart)
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", contentPart, err)
	}
	defer rc.Close()

	out := &Reader{}
	if err := out.parseContent(rc); err != nil {
		return nil, fmt.Errorf("parsing content: %w", err)
	}
	return out, nil
}

func (r *Reader) parseContent(rd io.Reader) error {
	d := xml.NewDecoder(rd)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case se.Name.Space == nsOffice && se.Name.Local == "spreadsheet":
			r.spreadsheet = true
		case se.Name.Space == nsTable && se.Name.Local == "table":
			ts, err := readTable(d, se)
			if err != nil {
				return err
			}
			r.tables = append(r.tables, ts...)
		}
	}
}

// Tables returns the tables in document order, each nested table right
// after the table that holds it.
func (r *Reader) Tables() []*Table {
	return r.tables
}

// IsSpreadsheet reports whether the file is a spreadsheet.
func (r *Reader) IsSpreadsheet() bool {
	return r.spreadsheet
}

// Warnings describes the tables that were cut at MaxCells.
func (r *Reader) Warnings() []model.Warning {
	var out []model.Warning
	for i, t := range r.tables {
		if t.Truncated {
			out = append(out, model.Warning{
				Code:    CodeTableTruncated,
				Message: fmt.Sprintf("table %q cut at %d cells", t.Name, MaxCells),
				Meta:    r.provenance("", i, i),
			})
		}
	}
	return out
}

// Candidates converts every non-empty table into a candidate. In a
// spreadsheet each sheet is a page (PageNum = sheet position + 1, TableIndex
// 0). In a text document every table is on page 1 and TableIndex is its
// position among the returned candidates.
func (r *Reader) Candidates(sourceFile string) []model.Candidate {
	var out []model.Candidate
	for i, t := range r.tables {
		if t.RowCount() == 0 || t.ColCount() == 0 {
			continue
		}
		rows := make([][]string, len(t.Grid))
		for j, row := range t.Grid {
			rows[j] = append([]string(nil), row...)
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
			Meta:   r.provenance(sourceFile, i, len(out)),
		})
	}
	return out
}

func (r *Reader) provenance(sourceFile string, table, candidate int) model.Provenance {
	if r.spreadsheet {
		return model.Provenance{SourceFile: sourceFile, PageNum: table + 1}
	}
	return model.Provenance{SourceFile: sourceFile, PageNum: 1, TableIndex: candidate}
}
