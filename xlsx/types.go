package xlsx

import "encoding/xml"

// workbookXML is xl/workbook.xml.
type workbookXML struct {
	XMLName xml.Name  `xml:"workbook"`
	Sheets  sheetsXML `xml:"sheets"`
}

type sheetsXML struct {
	Sheet []sheetRefXML `xml:"sheet"`
}

type sheetRefXML struct {
	Name    string `xml:"name,attr"`
	SheetID string `xml:"sheetId,attr"`
	RID     string `xml:"id,attr"` // r:id
}

// worksheetXML is xl/worksheets/sheetN.xml. Only cell values and merged
// ranges are read.
type worksheetXML struct {
	XMLName    xml.Name       `xml:"worksheet"`
	SheetData  sheetDataXML   `xml:"sheetData"`
	MergeCells *mergeCellsXML `xml:"mergeCells"`
}

type sheetDataXML struct {
	Rows []rowXML `xml:"row"`
}

type rowXML struct {
	R     int       `xml:"r,attr"` // 1-indexed, optional
	Cells []cellXML `xml:"c"`
}

type cellXML struct {
	R  string        `xml:"r,attr"` // e.g. "B3", optional
	T  string        `xml:"t,attr"` // s, n, b, str, inlineStr, e
	V  string        `xml:"v"`
	Is *inlineStrXML `xml:"is"`
}

type inlineStrXML struct {
	T string `xml:"t"`
	R []rXML `xml:"r"`
}

type mergeCellsXML struct {
	MergeCell []mergeCellXML `xml:"mergeCell"`
}

type mergeCellXML struct {
	Ref string `xml:"ref,attr"`
}

// sharedStringsXML is xl/sharedStrings.xml.
type sharedStringsXML struct {
	XMLName xml.Name `xml:"sst"`
	SI      []siXML  `xml:"si"`
}

type siXML struct {
	T string `xml:"t"`
	R []rXML `xml:"r"` // rich text runs
}

type rXML struct {
	T string `xml:"t"`
}

type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}
