// Package format detects the document formats tables can be loaded from.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format represents a supported source format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// XLSX indicates a Microsoft Excel (.xlsx) workbook.
	XLSX
	// HTML indicates an HTML document.
	HTML
	// CSV indicates comma-separated text.
	CSV
	// TSV indicates tab-separated text.
	TSV
	// JSON indicates a JSON table document.
	JSON
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// ODT indicates an OpenDocument text document.
	ODT
	// ODS indicates an OpenDocument spreadsheet.
	ODS
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case XLSX:
		return "XLSX"
	case HTML:
		return "HTML"
	case CSV:
		return "CSV"
	case TSV:
		return "TSV"
	case JSON:
		return "JSON"
	case DOCX:
		return "DOCX"
	case ODT:
		return "ODT"
	case ODS:
		return "ODS"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case XLSX:
		return ".xlsx"
	case HTML:
		return ".html"
	case CSV:
		return ".csv"
	case TSV:
		return ".tsv"
	case JSON:
		return ".json"
	case DOCX:
		return ".docx"
	case ODT:
		return ".odt"
	case ODS:
		return ".ods"
	default:
		return ""
	}
}

// Detect determines the format from the filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return XLSX
	case ".html", ".htm", ".xhtml":
		return HTML
	case ".csv":
		return CSV
	case ".tsv", ".tab":
		return TSV
	case ".json":
		return JSON
	case ".docx", ".docm":
		return DOCX
	case ".odt":
		return ODT
	case ".ods":
		return ODS
	default:
		return Unknown
	}
}

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFromMagic looks at the first bytes of a file. ZIP archives are
// reported as Unknown; DetectFromReader looks inside them.
func DetectFromMagic(data []byte) Format {
	if bytes.HasPrefix(data, zipMagic) {
		return Unknown
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}
	if looksLikeHTML(data) {
		return HTML
	}
	if data[0] == '{' || data[0] == '[' {
		return JSON
	}
	return sniffDelimited(data)
}

func looksLikeHTML(data []byte) bool {
	head := strings.ToUpper(string(data[:min(len(data), 512)]))
	switch {
	case strings.HasPrefix(head, "<!DOCTYPE HTML"), strings.HasPrefix(head, "<HTML"):
		return true
	case strings.HasPrefix(head, "<?XML") && strings.Contains(head, "<HTML"):
		return true
	case strings.HasPrefix(head, "<TABLE"):
		return true
	}
	return false
}

// sniffDelimited treats valid UTF-8 text without NUL bytes as delimited
// text, choosing tabs when the first line has more tabs than commas.
func sniffDelimited(data []byte) Format {
	sample := data[:min(len(data), 512)]
	if bytes.IndexByte(sample, 0) >= 0 {
		return Unknown
	}
	// the sample may end inside a multi-byte rune
	for len(sample) > 0 && !utf8.Valid(sample) {
		sample = sample[:len(sample)-1]
	}
	if len(sample) == 0 {
		return Unknown
	}
	line, _, _ := bytes.Cut(sample, []byte("\n"))
	tabs, commas := bytes.Count(line, []byte("\t")), bytes.Count(line, []byte(","))
	switch {
	case tabs > commas:
		return TSV
	case commas > 0:
		return CSV
	}
	return Unknown
}

// DetectFromReader inspects content to determine the format, opening ZIP
// archives to tell workbooks, Word documents and OpenDocument packages
// apart.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, zipMagic) {
		return detectZIPFormat(r, size)
	}
	return DetectFromMagic(magic), nil
}

const (
	mimeODT = "application/vnd.oasis.opendocument.text"
	mimeODS = "application/vnd.oasis.opendocument.spreadsheet"
)

func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "xl/"):
			return XLSX, nil
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		case f.Name == "mimetype":
			return odfMimetype(f), nil
		}
	}
	return Unknown, nil
}

// odfMimetype reads the mimetype entry OpenDocument packages start with.
func odfMimetype(f *zip.File) Format {
	rc, err := f.Open()
	if err != nil {
		return Unknown
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, 128))
	if err != nil {
		return Unknown
	}
	switch strings.TrimSpace(string(b)) {
	case mimeODT:
		return ODT
	case mimeODS:
		return ODS
	}
	return Unknown
}
