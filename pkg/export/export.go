// Package export renders tabular documents as CSV, PDF or XLSX.
package export

import (
	"fmt"
	"strings"
)

// Dataset is an ordered table. Every row has one cell per header; short
// rows are padded with empty cells.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Document is a titled table with optional heading lines printed above it.
// Body paragraphs follow the heading and Footer lines close the document;
// both are used by certificates and skipped by the CSV exporter.
type Document struct {
	Title   string
	Heading []string
	Body    []string
	Data    Dataset
	Footer  []string
}

// Exporter renders a document in one file format.
type Exporter interface {
	Render(doc Document) ([]byte, error)
	ContentType() string
	Extension() string
}

// For returns the exporter registered for format (pdf, xlsx or csv).
func For(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "pdf":
		return NewPDFExporter(), nil
	case "xlsx":
		return NewXLSXExporter(), nil
	case "csv":
		return NewCSVExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Filename builds a download name such as "report-card-1234.pdf".
func Filename(base string, e Exporter) string {
	base = strings.ToLower(strings.TrimSpace(base))
	base = strings.Join(strings.Fields(base), "-")
	if base == "" {
		base = "export"
	}
	return base + "." + e.Extension()
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	return nil
}

func (d Dataset) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
