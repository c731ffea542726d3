package sheet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TsubasaBE/go-xlsb/workbook"
)

// Excel binary workbooks (.xlsb)
type xlsbSource struct{}

func (xlsbSource) Format() Format {
	return FormatXLSB
}

func (xlsbSource) Load(path string) (*Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsb workbook: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat xlsb workbook: %w", err)
	}

	wb, err := workbook.OpenReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsb workbook: %w", err)
	}
	defer wb.Close()

	out := &Workbook{Name: filepath.Base(path), Format: FormatXLSB}
	for i, name := range wb.Sheets() {
		// sheets are numbered from 1
		s, err := wb.Sheet(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		g := newGrid(name)
		for row := range s.Rows(false) {
			for _, cell := range row {
				g.set(cell.R, cell.C, s.FormatCell(cell))
			}
		}
		out.Sheets = append(out.Sheets, g.worksheet())
	}

	return out, nil
}
