package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Field is one label/value line of a sheet section.
type Field struct {
	Label string
	Value string
}

// Section groups related fields under a heading.
type Section struct {
	Heading string
	Fields  []Field
}

// Sheet is a single-record document rendered as labelled sections.
type Sheet struct {
	Title    string
	Subtitle string
	Sections []Section
}

// PDFExporter renders sheets into A4 PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with a title block followed by each section as a
// two-column label/value table. Long values wrap within their cell.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one section")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(sheet.Title), "", 1, "L", false, 0, "")
	}
	if sheet.Subtitle != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, tr(sheet.Subtitle), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	const labelWidth, valueWidth, lineHeight = 60.0, 120.0, 6.0
	for _, section := range sheet.Sections {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(labelWidth+valueWidth, 8, tr(section.Heading), "1", 1, "L", true, 0, "")

		for _, field := range section.Fields {
			value := field.Value
			if value == "" {
				value = "-"
			}
			pdf.SetFont("Arial", "", 9)
			lines := pdf.SplitLines([]byte(tr(value)), valueWidth-2)
			height := lineHeight * float64(maxInt(len(lines), 1))

			x, y := pdf.GetXY()
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(labelWidth, height, tr(field.Label), "1", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(valueWidth, lineHeight, tr(value), "1", "L", false)
			if pdf.GetY() < y+height {
				pdf.SetXY(x, y+height)
			}
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
