// Package source loads table candidates from files, choosing a reader by
// extension and falling back to content sniffing.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/tabsift/docx"
	"github.com/tsawler/tabsift/format"
	"github.com/tsawler/tabsift/htmldoc"
	"github.com/tsawler/tabsift/model"
	"github.com/tsawler/tabsift/odt"
	"github.com/tsawler/tabsift/xlsx"
)

// ErrUnsupported is returned for content no reader understands.
var ErrUnsupported = errors.New("unsupported format")

// Load reads the file at path and returns its table candidates. The
// candidates' SourceFile is the base name of path.
func Load(path string) ([]model.Candidate, []model.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Read(filepath.Base(path), data)
}

// Read returns the table candidates held in data. name supplies the
// extension used for detection and is recorded as the SourceFile.
func Read(name string, data []byte) ([]model.Candidate, []model.Warning, error) {
	f, err := Detect(name, data)
	if err != nil {
		return nil, nil, err
	}

	switch f {
	case format.XLSX:
		r, err := xlsx.OpenReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		defer r.Close()
		warnings := r.Warnings()
		for i := range warnings {
			warnings[i].Meta.SourceFile = name
		}
		return r.Candidates(name), warnings, nil

	case format.HTML:
		r, err := htmldoc.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return r.Candidates(name), nil, nil

	case format.DOCX:
		r, err := docx.OpenReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return r.Candidates(name), nil, nil

	case format.ODT, format.ODS:
		r, err := odt.OpenReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		warnings := r.Warnings()
		for i := range warnings {
			warnings[i].Meta.SourceFile = name
		}
		return r.Candidates(name), warnings, nil

	case format.CSV, format.TSV:
		c, err := readDelimited(name, data, f == format.TSV)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if c == nil {
			return nil, nil, nil
		}
		return []model.Candidate{*c}, nil, nil

	case format.JSON:
		cs, err := readJSON(name, data)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return cs, nil, nil
	}

	return nil, nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// Detect picks the format of data, trusting the extension of name first.
func Detect(name string, data []byte) (format.Format, error) {
	if f := format.Detect(name); f != format.Unknown {
		return f, nil
	}
	f, err := format.DetectFromReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return format.Unknown, fmt.Errorf("detecting format of %s: %w", name, err)
	}
	if f == format.Unknown {
		return f, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	return f, nil
}
