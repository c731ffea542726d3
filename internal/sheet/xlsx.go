package sheet

import (
	"fmt"
	"path/filepath"

	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// Office Open XML workbooks (.xlsx, .xlsm)
type xlsxSource struct{}

func (xlsxSource) Format() Format {
	return FormatXLSX
}

func (xlsxSource) Load(path string) (*Workbook, error) {
	wb, err := spreadsheet.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx workbook: %w", err)
	}

	out := &Workbook{Name: filepath.Base(path), Format: FormatXLSX}
	for _, s := range wb.Sheets() {
		g := newGrid(s.Name())
		for _, row := range s.Rows() {
			rowIdx := int(row.RowNumber()) - 1
			for _, cell := range row.Cells() {
				colName, err := cell.Column()
				if err != nil {
					continue
				}
				colIdx := int(reference.ColumnToIndex(colName))
				g.set(rowIdx, colIdx, cell.GetFormattedValue())
			}
		}
		out.Sheets = append(out.Sheets, g.worksheet())
	}

	return out, nil
}
