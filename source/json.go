package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tsawler/tabsift/model"
)

// Document is the JSON interchange form of extracted tables:
//
//	{"tables": [{"page": 1, "rows": [["Item", "Qty"], ["A", 3]],
//	             "merges": [{"top": 1, "bottom": 2, "left": 0, "right": 0, "text": "A"}]}]}
type Document struct {
	Source string  `json:"source,omitempty"`
	Tables []Table `json:"tables"`
}

// Table is one extracted table. Page defaults to 1 and Index to the
// table's position in the document.
type Table struct {
	Page   int                 `json:"page,omitempty"`
	Index  *int                `json:"index,omitempty"`
	Rows   Cells               `json:"rows"`
	Merges []model.MergeRegion `json:"merges,omitempty"`
}

// Cells is a grid that accepts JSON strings, numbers, booleans and null as
// cell values. Numbers keep their literal text; null is a blank cell.
type Cells [][]string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cells) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw [][]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Cells, len(raw))
	for i, row := range raw {
		out[i] = make([]string, len(row))
		for j, v := range row {
			s, err := cellText(v)
			if err != nil {
				return fmt.Errorf("row %d col %d: %w", i, j, err)
			}
			out[i][j] = s
		}
	}
	*c = out
	return nil
}

func cellText(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cell must be a scalar, got %T", v)
	}
}

// Candidate converts t into a candidate from sourceFile at position i.
func (t Table) Candidate(sourceFile string, i int) model.Candidate {
	meta := model.Provenance{SourceFile: sourceFile, PageNum: t.Page, TableIndex: i}
	if meta.PageNum == 0 {
		meta.PageNum = 1
	}
	if t.Index != nil {
		meta.TableIndex = *t.Index
	}
	return model.Candidate{
		Raw:    model.NewRawTable(t.Rows),
		Merges: t.Merges,
		Meta:   meta,
	}
}

func readJSON(name string, data []byte) ([]model.Candidate, error) {
	var doc Document
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &doc); err != nil {
		return nil, fmt.Errorf("decoding table document: %w", err)
	}
	src := doc.Source
	if src == "" {
		src = name
	}
	out := make([]model.Candidate, 0, len(doc.Tables))
	for i, t := range doc.Tables {
		out = append(out, t.Candidate(src, i))
	}
	return out, nil
}
