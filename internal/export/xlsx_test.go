package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

func TestXLSX(t *testing.T) {
	ds := &tables.Dataset{
		Columns: []string{"Name", "Qty", "Price"},
		Rows: [][]tables.Cell{
			{{Value: "A"}, {Value: "1"}, {Null: true}},
			{{Value: "C"}, {Null: true}, {Value: "9"}},
		},
	}

	data, err := XLSX(ds)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Qty", "Price"}, rows[0])
	assert.Equal(t, []string{"A", "1"}, rows[1])
	assert.Equal(t, []string{"C", "", "9"}, rows[2])
}

func TestXLSXHeaderOnly(t *testing.T) {
	data, err := XLSX(&tables.Dataset{Columns: []string{"X"}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"X"}}, rows)
}

func TestXLSXNil(t *testing.T) {
	_, err := XLSX(nil)
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":          "report.xlsx",
		"/tmp/in/Results.PDF": "Results.xlsx",
		"archive.2024.pdf":    "archive.2024.xlsx",
		"noext":               "noext.xlsx",
		"":                    "converted.xlsx",
	}
	for in, want := range cases {
		assert.Equal(t, want, OutputName(in), in)
	}
}
