// Package export encodes merged datasets as spreadsheets.
package export

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/Sanjaay57/pdf2excel/internal/tables"
)

// SheetName is the only sheet in a converted workbook.
const SheetName = "Extracted Data"

// ContentType is the media type of the bytes returned by XLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSX writes ds as a single-sheet workbook. The first row holds the column
// names; null cells are left empty.
func XLSX(ds *tables.Dataset) ([]byte, error) {
	if ds == nil {
		return nil, eris.New("nil dataset")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, eris.Wrap(err, "rename sheet")
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "open stream writer")
	}

	header := make([]interface{}, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, eris.Wrap(err, "write header")
	}

	for r, row := range ds.Rows {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			if !c.Null {
				cells[i] = c.Value
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, eris.Wrapf(err, "row %d", r)
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return nil, eris.Wrapf(err, "write row %d", r)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, eris.Wrap(err, "flush sheet")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "encode workbook")
	}
	return buf.Bytes(), nil
}

// OutputName is the suggested spreadsheet name for an input file:
// the base name with its extension replaced by .xlsx.
func OutputName(input string) string {
	base := filepath.Base(input)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "converted.xlsx"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".xlsx"
}
