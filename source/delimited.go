package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/tsawler/tabsift/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readDelimited parses CSV or TSV into a single candidate. Rows may have
// different lengths. It returns nil for input without any record.
func readDelimited(name string, data []byte, tabs bool) (*model.Candidate, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if tabs {
		r.Comma = '\t'
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &model.Candidate{
		Raw:  model.NewRawTable(rows),
		Meta: model.Provenance{SourceFile: name, PageNum: 1},
	}, nil
}
