package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDocument() Document {
	return Document{
		Title:   "Libreta de notas",
		Heading: []string{"Alumno: PÉREZ, ANA", "Sección: A"},
		Data: Dataset{
			Headers: []string{"Código", "Asignatura", "Final"},
			Rows: [][]string{
				{"01MAT", "MATEMATICA", "14"},
				{"01REL", "RELIGION"},
			},
		},
	}
}

func TestForResolvesFormats(t *testing.T) {
	for format, ext := range map[string]string{"pdf": "pdf", "XLSX": "xlsx", " csv ": "csv"} {
		e, err := For(format)
		require.NoError(t, err)
		assert.Equal(t, ext, e.Extension())
		assert.NotEmpty(t, e.ContentType())
	}

	_, err := For("docx")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "report-card-12.csv", Filename("Report Card  12", NewCSVExporter()))
	assert.Equal(t, "export.pdf", Filename("  ", NewPDFExporter()))
}

func TestCSVExporterPadsShortRows(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDocument())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Código", "Asignatura", "Final"}, records[0])
	assert.Equal(t, []string{"01REL", "RELIGION", ""}, records[2])
}

func TestExportersRejectEmptyHeaders(t *testing.T) {
	for _, e := range []Exporter{NewCSVExporter(), NewPDFExporter(), NewXLSXExporter()} {
		_, err := e.Render(Document{})
		assert.Error(t, err, e.Extension())
	}
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDocument())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	title, err := f.GetCellValue(xlsxSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Libreta de notas", title)

	// title, two heading lines and a blank spacer row precede the header
	header, err := f.GetCellValue(xlsxSheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "Asignatura", header)

	final, err := f.GetCellValue(xlsxSheet, "C6")
	require.NoError(t, err)
	assert.Equal(t, "14", final)
}

func TestCertificateLayout(t *testing.T) {
	doc := Document{
		Title:   "Constancia de estudio",
		Heading: []string{"Liceo Nacional"},
		Body:    []string{"Se hace constar que la alumna PÉREZ, ANA cursa estudios en esta institución durante el año escolar 2024-2025, conforme a los registros de inscripción vigentes."},
		Data:    Dataset{Headers: []string{"Dato", "Valor"}, Rows: [][]string{{"Cédula", "V-30111222"}}},
		Footer:  []string{"____________________", "Dirección"},
	}

	out, err := NewPDFExporter().Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	out, err = NewXLSXExporter().Render(doc)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	// title, heading, body, spacer, header, one row, spacer, two footer lines
	body, err := f.GetCellValue(xlsxSheet, "A3")
	require.NoError(t, err)
	assert.Contains(t, body, "PÉREZ, ANA")
	header, err := f.GetCellValue(xlsxSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Dato", header)
	footer, err := f.GetCellValue(xlsxSheet, "A9")
	require.NoError(t, err)
	assert.Equal(t, "Dirección", footer)

	out, err = NewCSVExporter().Render(doc)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
