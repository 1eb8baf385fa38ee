package docx

import "encoding/xml"

// WordprocessingML namespace of word/document.xml.
const nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// tableXML represents a table (<w:tbl>).
type tableXML struct {
	XMLName    xml.Name      `xml:"tbl"`
	Properties tablePropsXML `xml:"tblPr"`
	Grid       tableGridXML  `xml:"tblGrid"`
	Rows       []tableRowXML `xml:"tr"`
}

// tablePropsXML represents table properties.
type tablePropsXML struct {
	Caption valXML `xml:"tblCaption"`
}

// tableGridXML represents the table grid definition.
type tableGridXML struct {
	Cols []gridColXML `xml:"gridCol"`
}

// gridColXML represents a grid column.
type gridColXML struct {
	W string `xml:"w,attr"` // Width in twips
}

// tableRowXML represents a table row (<w:tr>).
type tableRowXML struct {
	Properties rowPropsXML    `xml:"trPr"`
	Cells      []tableCellXML `xml:"tc"`
}

// rowPropsXML represents row properties.
type rowPropsXML struct {
	GridBefore valXML  `xml:"gridBefore"` // grid columns skipped before the first cell
	Header     *valXML `xml:"tblHeader"`  // repeated header row
}

// tableCellXML represents a table cell (<w:tc>).
type tableCellXML struct {
	Properties cellPropsXML   `xml:"tcPr"`
	Paragraphs []paragraphXML `xml:"p"`
	Tables     []tableXML     `xml:"tbl"`
}

// cellPropsXML represents cell properties.
type cellPropsXML struct {
	GridSpan valXML  `xml:"gridSpan"`
	VMerge   *valXML `xml:"vMerge"` // val "restart" starts a merge; absent or "continue" extends one
}

// paragraphXML keeps the raw paragraph content; runs, hyperlinks, fields
// and smart tags nest arbitrarily, so text is pulled out by walking tokens.
type paragraphXML struct {
	Inner []byte `xml:",innerxml"`
}

// valXML is the common <w:x w:val="..."/> shape.
type valXML struct {
	Val string `xml:"val,attr"`
}
