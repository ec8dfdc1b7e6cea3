package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders rosters and booking slips with gofpdf.
type PDFExporter struct {
	organisation string
}

// NewPDFExporter constructs a PDF exporter. organisation is printed in every header.
func NewPDFExporter(organisation string) *PDFExporter {
	return &PDFExporter{organisation: organisation}
}

// Render lays the dataset out as a landscape table.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	e.header(pdf, title)

	width := 277.0 / float64(len(data.Headers))
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range data.Headers {
		pdf.CellFormat(width, 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for i := range data.Headers {
			pdf.CellFormat(width, 7, data.cell(row, i), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("%d record(s)", len(data.Rows)), "", 1, "R", false, 0, "")

	return output(pdf)
}

// RenderSlip prints a single record as a labelled card, used for booking slips.
func (e *PDFExporter) RenderSlip(title string, fields []Field) ([]byte, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("slip requires at least one field")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()
	e.header(pdf, title)

	for _, f := range fields {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 9, f.Label, "B", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 9, f.Value, "B", 1, "", false, 0, "")
	}
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(0, 4, "Please bring this slip and your national ID on the interview day.", "", "C", false)

	return output(pdf)
}

func (e *PDFExporter) header(pdf *gofpdf.Fpdf, title string) {
	if e.organisation != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, e.organisation, "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, "Generated "+time.Now().Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
