// Package xlsx reads the cell grids and merged ranges of XLSX (Office Open
// XML Spreadsheet) workbooks and turns each sheet into a table candidate.
package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/tsawler/tabsift/model"
)

// MaxCells bounds the grid allocated for one sheet. Larger sheets are
// skipped with a warning.
const MaxCells = 1 << 22

// Warning codes.
const (
	CodeSheetUnreadable = "sheet-unreadable"
	CodeSheetTooLarge   = "sheet-too-large"
	CodeBadMergeRef     = "merge-ref-invalid"
)

// Reader provides access to the sheets of one workbook.
type Reader struct {
	zr       *zip.Reader
	closer   io.Closer
	files    map[string]*zip.File
	rels     map[string]string // r:id -> target
	shared   []string
	sheets   []*Sheet
	warnings []model.Warning
}

// Open opens an XLSX file for reading.
func Open(filename string) (*Reader, error) {
	zrc, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	r, err := newReader(&zrc.Reader)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	r.closer = zrc
	return r, nil
}

// OpenReader reads a workbook held in memory or any other random access
// source.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return newReader(zr)
}

func newReader(zr *zip.Reader) (*Reader, error) {
	r := &Reader{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
		rels:  make(map[string]string),
	}
	for _, f := range zr.File {
		r.files[f.Name] = f
	}

	if _, ok := r.files["xl/workbook.xml"]; !ok {
		return nil, fmt.Errorf("missing required file: xl/workbook.xml")
	}
	if err := r.parseRelationships(); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	if err := r.parseSharedStrings(); err != nil {
		return nil, fmt.Errorf("parsing shared strings: %w", err)
	}
	if err := r.parseWorksheets(); err != nil {
		return nil, fmt.Errorf("parsing worksheets: %w", err)
	}
	return r, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func (r *Reader) content(name string) ([]byte, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r *Reader) parseRelationships() error {
	data, err := r.content("xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil // optional
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationship {
		r.rels[rel.ID] = rel.Target
	}
	return nil
}

func (r *Reader) parseSharedStrings() error {
	data, err := r.content("xl/sharedStrings.xml")
	if err != nil {
		return nil // optional
	}
	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return err
	}
	r.shared = make([]string, len(sst.SI))
	for i, si := range sst.SI {
		r.shared[i] = runText(si.T, si.R)
	}
	return nil
}

func runText(t string, runs []rXML) string {
	if len(runs) == 0 {
		return t
	}
	var b strings.Builder
	b.WriteString(t)
	for _, run := range runs {
		b.WriteString(run.T)
	}
	return b.String()
}

func (r *Reader) parseWorksheets() error {
	data, err := r.content("xl/workbook.xml")
	if err != nil {
		return err
	}
	var wb workbookXML
	if err := xml.Unmarshal(data, &wb); err != nil {
		return fmt.Errorf("parsing workbook: %w", err)
	}

	for i, ref := range wb.Sheets.Sheet {
		meta := model.Provenance{PageNum: i + 1}
		data, err := r.content(sheetPath(r.rels[ref.RID], i))
		if err != nil {
			r.warn(CodeSheetUnreadable, meta, "sheet %q: %v", ref.Name, err)
			continue
		}
		sheet, err := r.parseWorksheet(data, ref.Name, i)
		if err != nil {
			r.warn(CodeSheetUnreadable, meta, "sheet %q: %v", ref.Name, err)
			continue
		}
		r.sheets = append(r.sheets, sheet)
	}
	if len(wb.Sheets.Sheet) > 0 && len(r.sheets) == 0 {
		return fmt.Errorf("no readable worksheets")
	}
	return nil
}

// sheetPath resolves a workbook relationship target to an archive path.
func sheetPath(target string, index int) string {
	if target == "" {
		target = fmt.Sprintf("worksheets/sheet%d.xml", index+1)
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join("xl", target))
}

type cellPos struct {
	row, col int
	value    string
}

func (r *Reader) parseWorksheet(data []byte, name string, index int) (*Sheet, error) {
	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}
	sheet := &Sheet{Name: name, Index: index}
	meta := model.Provenance{PageNum: index + 1}

	if ws.MergeCells != nil {
		for _, mc := range ws.MergeCells.MergeCell {
			rg, err := ParseRangeRef(mc.Ref)
			if err != nil {
				r.warn(CodeBadMergeRef, meta, "sheet %q merge %q: %v", name, mc.Ref, err)
				continue
			}
			sheet.Merged = append(sheet.Merged, rg)
		}
	}

	// Row and cell references are optional; missing ones continue from
	// the previous position.
	var cells []cellPos
	rows, cols := 0, 0
	rowIdx := -1
	for _, row := range ws.SheetData.Rows {
		if row.R > 0 {
			rowIdx = row.R - 1
		} else {
			rowIdx++
		}
		colIdx := -1
		for _, c := range row.Cells {
			if c.R != "" {
				col, rr, err := ParseCellRef(c.R)
				if err != nil {
					continue
				}
				colIdx, rowIdx = col, rr
			} else {
				colIdx++
			}
			v := r.cellValue(c)
			if strings.TrimSpace(v) == "" {
				continue
			}
			cells = append(cells, cellPos{rowIdx, colIdx, v})
			rows = max(rows, rowIdx+1)
			cols = max(cols, colIdx+1)
		}
	}

	if rows*cols > MaxCells {
		r.warn(CodeSheetTooLarge, meta, "sheet %q spans %d x %d cells", name, rows, cols)
		return sheet, nil
	}
	sheet.Cells = make([][]string, rows)
	for i := range sheet.Cells {
		sheet.Cells[i] = make([]string, cols)
	}
	for _, c := range cells {
		sheet.Cells[c.row][c.col] = c.value
	}
	return sheet, nil
}

func (r *Reader) cellValue(c cellXML) string {
	switch c.T {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.V))
		if err == nil && idx >= 0 && idx < len(r.shared) {
			return r.shared[idx]
		}
		return ""
	case "b":
		if c.V == "1" {
			return "TRUE"
		}
		return "FALSE"
	case "inlineStr":
		if c.Is != nil {
			return runText(c.Is.T, c.Is.R)
		}
		return ""
	default: // n, str, e and untyped
		return c.V
	}
}

func (r *Reader) warn(code string, meta model.Provenance, format string, args ...any) {
	r.warnings = append(r.warnings, model.Warning{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Meta:    meta,
	})
}

// Warnings returns the issues met while parsing: unreadable or oversized
// sheets and malformed merge references.
func (r *Reader) Warnings() []model.Warning {
	return r.warnings
}

// SheetCount returns the number of readable sheets.
func (r *Reader) SheetCount() int {
	return len(r.sheets)
}

// SheetNames returns the names of all readable sheets.
func (r *Reader) SheetNames() []string {
	names := make([]string, len(r.sheets))
	for i, s := range r.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the readable sheet at position index.
func (r *Reader) Sheet(index int) (*Sheet, error) {
	if index < 0 || index >= len(r.sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (0-%d)", index, len(r.sheets)-1)
	}
	return r.sheets[index], nil
}

// SheetByName returns the sheet with the given name.
func (r *Reader) SheetByName(name string) (*Sheet, error) {
	for _, s := range r.sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("sheet not found: %s", name)
}

// Candidates returns one candidate per non-empty sheet. The grid is
// trimmed to the sheet's content bounds, so the first non-empty row
// becomes the header row. sourceFile is recorded in each candidate's
// provenance with the 1-based sheet position as the page number.
func (r *Reader) Candidates(sourceFile string) []model.Candidate {
	var out []model.Candidate
	for _, s := range r.sheets {
		c, ok := s.Candidate()
		if !ok {
			continue
		}
		c.Meta.SourceFile = sourceFile
		out = append(out, c)
	}
	return out
}

// Candidate converts the sheet into a table candidate. Merged ranges
// become merge regions labelled with their top-left cell; the top-left
// cell keeps its text. Ranges are clipped to the content bounds and
// dropped when they fall outside entirely. ok is false for an empty
// sheet.
func (s *Sheet) Candidate() (c model.Candidate, ok bool) {
	minRow, maxRow, minCol, maxCol := s.contentBounds()
	if minRow > maxRow || minCol > maxCol {
		return model.Candidate{}, false
	}

	rows := make([][]string, 0, maxRow-minRow+1)
	for r := minRow; r <= maxRow; r++ {
		row := make([]string, maxCol-minCol+1)
		copy(row, s.Cells[r][minCol:maxCol+1])
		rows = append(rows, row)
	}

	var merges []model.MergeRegion
	for _, m := range s.Merged {
		top, bottom := max(m.StartRow, minRow), min(m.EndRow, maxRow)
		left, right := max(m.StartCol, minCol), min(m.EndCol, maxCol)
		if top > bottom || left > right {
			continue
		}
		merges = append(merges, model.MergeRegion{
			Top:    top - minRow,
			Bottom: bottom - minRow,
			Left:   left - minCol,
			Right:  right - minCol,
			Text:   s.Value(m.StartRow, m.StartCol),
		})
	}

	return model.Candidate{
		Raw:    model.NewRawTable(rows),
		Merges: merges,
		Meta:   model.Provenance{PageNum: s.Index + 1},
	}, true
}

func (s *Sheet) contentBounds() (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = len(s.Cells), -1
	minCol, maxCol = s.ColCount(), -1
	for r, row := range s.Cells {
		for c, v := range row {
			if strings.TrimSpace(v) == "" {
				continue
			}
			minRow, maxRow = min(minRow, r), max(maxRow, r)
			minCol, maxCol = min(minCol, c), max(maxCol, c)
		}
	}
	return minRow, maxRow, minCol, maxCol
}
