package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin         = 10.0
	landscapeFromCols = 7
)

// PDFExporter renders a document as a bordered table on A4 pages, switching
// to landscape for wide tables.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

// Render creates the PDF bytes.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if err := doc.Data.validate("pdf"); err != nil {
		return nil, err
	}
	orientation := "P"
	if len(doc.Data.Headers) >= landscapeFromCols {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 15, pdfMargin)
	pdf.SetAutoPageBreak(true, 15)
	// core fonts are cp1252; accented names need the translator
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	}
	if len(doc.Heading) > 0 {
		pdf.SetFont("Arial", "", 10)
		for _, line := range doc.Heading {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}
	if len(doc.Body) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 11)
		for _, paragraph := range doc.Body {
			pdf.MultiCell(0, 6, tr(paragraph), "", "J", false)
			pdf.Ln(2)
		}
	}
	pdf.Ln(4)

	pageWidth, _ := pdf.GetPageSize()
	colWidth := (pageWidth - 2*pdfMargin) / float64(len(doc.Data.Headers))

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range doc.Data.Headers {
			pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range doc.Data.Rows {
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i := range doc.Data.Headers {
			pdf.CellFormat(colWidth, 7, tr(doc.Data.cell(row, i)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(doc.Footer) > 0 {
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		for _, line := range doc.Footer {
			pdf.CellFormat(0, 6, tr(line), "", 1, "C", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
