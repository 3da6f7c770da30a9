package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Sheet1"

// XLSXExporter renders a document into a single worksheet: title and
// heading lines first, then a bold header row and the table body.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render creates the workbook bytes. Numeric cells are written as numbers.
func (e *XLSXExporter) Render(doc Document) ([]byte, error) {
	if err := doc.Data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	row := 1
	if doc.Title != "" {
		if err := f.SetCellValue(xlsxSheet, "A1", doc.Title); err != nil {
			return nil, fmt.Errorf("xlsx title: %w", err)
		}
		if err := f.SetCellStyle(xlsxSheet, "A1", "A1", bold); err != nil {
			return nil, fmt.Errorf("xlsx title: %w", err)
		}
		row++
	}
	for _, line := range append(append([]string{}, doc.Heading...), doc.Body...) {
		if err := f.SetCellValue(xlsxSheet, "A"+strconv.Itoa(row), line); err != nil {
			return nil, fmt.Errorf("xlsx heading: %w", err)
		}
		row++
	}
	if row > 1 {
		row++
	}

	for i, h := range doc.Data.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(doc.Data.Headers), row)
	if err := f.SetCellStyle(xlsxSheet, first, last, bold); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}

	for _, values := range doc.Data.Rows {
		row++
		for i := range doc.Data.Headers {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(xlsxSheet, cell, cellValue(doc.Data.cell(values, i))); err != nil {
				return nil, fmt.Errorf("xlsx row: %w", err)
			}
		}
	}

	if len(doc.Footer) > 0 {
		row++
	}
	for _, line := range doc.Footer {
		row++
		if err := f.SetCellValue(xlsxSheet, "A"+strconv.Itoa(row), line); err != nil {
			return nil, fmt.Errorf("xlsx footer: %w", err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(doc.Data.Headers))
	if err := f.SetColWidth(xlsxSheet, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("xlsx width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(raw string) interface{} {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}
