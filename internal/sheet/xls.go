package sheet

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"

	"github.com/yamitzky/xlrd-go/xlrd"
)

// legacy BIFF workbooks (.xls)
type xlsSource struct{}

func (xlsSource) Format() Format {
	return FormatXLS
}

func (xlsSource) Load(path string) (*Workbook, error) {
	book, err := xlrd.OpenWorkbook(path, &xlrd.OpenWorkbookOptions{
		Logfile:        io.Discard,
		FormattingInfo: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open xls workbook: %w", err)
	}
	defer book.ReleaseResources()

	out := &Workbook{Name: filepath.Base(path), Format: FormatXLS}
	for i := 0; i < book.NSheets; i++ {
		s, err := book.SheetByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %d: %w", i, err)
		}
		g := newGrid(s.Name)
		for r := 0; r < s.NRows; r++ {
			for c := 0; c < s.NCols; c++ {
				g.set(r, c, xlsCellText(book, s.Cell(r, c)))
			}
		}
		out.Sheets = append(out.Sheets, g.worksheet())
	}

	return out, nil
}

func xlsCellText(book *xlrd.Book, cell *xlrd.Cell) string {
	if cell == nil {
		return ""
	}

	switch cell.CType {
	case xlrd.XL_CELL_TEXT:
		s, _ := cell.Value.(string)
		return s
	case xlrd.XL_CELL_NUMBER, xlrd.XL_CELL_DATE:
		v, ok := toFloat(cell.Value)
		if !ok {
			return fmt.Sprint(cell.Value)
		}
		if cell.CType == xlrd.XL_CELL_DATE || isDateCell(book, cell.XFIndex) {
			if s, ok := formatDate(v, book.Datemode); ok {
				return s
			}
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case xlrd.XL_CELL_BOOLEAN:
		switch v := cell.Value.(type) {
		case bool:
			if v {
				return "TRUE"
			}
		case int:
			if v != 0 {
				return "TRUE"
			}
		}
		return "FALSE"
	case xlrd.XL_CELL_ERROR:
		switch v := cell.Value.(type) {
		case byte:
			if text, ok := xlrd.ErrorTextFromCode[v]; ok {
				return text
			}
		case int:
			if text, ok := xlrd.ErrorTextFromCode[byte(v)]; ok {
				return text
			}
		}
		return "#ERROR"
	case xlrd.XL_CELL_EMPTY, xlrd.XL_CELL_BLANK:
		return ""
	default:
		if cell.Value == nil {
			return ""
		}
		return fmt.Sprint(cell.Value)
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func isDateCell(book *xlrd.Book, xfIndex int) bool {
	if xfIndex < 0 || xfIndex >= len(book.XFList) {
		return false
	}
	formatKey := book.XFList[xfIndex].FormatKey
	switch formatKey {
	case 14, 15, 16, 17, 18, 19, 20, 21, 22, 27, 30, 36, 50, 57, 58:
		return true
	}
	format := book.FormatMap[formatKey]
	if format == nil || format.FormatString == "" {
		return false
	}
	return xlrd.IsDateFormatString(book, format.FormatString)
}

// Time-of-day cells come out as H:MM:SS.CC so they read as timestamps;
// anything with a date part uses ISO dates.
func formatDate(value float64, datemode int) (string, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return "", false
	}
	if value < 1 {
		centis := int64(math.Round(value * 24 * 60 * 60 * 100))
		return fmt.Sprintf("%d:%02d:%02d.%02d",
			centis/360000,
			(centis/6000)%60,
			(centis/100)%60,
			centis%100), true
	}
	t, err := xlrd.XldateAsDatetime(value, datemode)
	if err != nil {
		return "", false
	}
	if value-math.Floor(value) != 0 {
		return t.Format("2006-01-02 15:04:05"), true
	}
	return t.Format("2006-01-02"), true
}
