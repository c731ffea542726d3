package sheet

import (
	"errors"
	"fmt"
	"strings"
)

// spreadsheet file formats
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatXLSB Format = "xlsb"
	FormatCSV  Format = "csv"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrSheetNotFound     = errors.New("worksheet not found")
	ErrNoSheets          = errors.New("workbook has no worksheets")
)

// Worksheet is a rectangular matrix of display strings. Empty cells are "".
type Worksheet struct {
	Name string
	Rows [][]string
}

// Workbook is every worksheet of one file, in file order.
type Workbook struct {
	Name   string
	Format Format
	Sheets []Worksheet
}

func (wb *Workbook) Names() []string {
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet looks name up exactly, then ignoring case.
func (wb *Workbook) Sheet(name string) (*Worksheet, error) {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i], nil
		}
	}
	for i := range wb.Sheets {
		if strings.EqualFold(wb.Sheets[i].Name, name) {
			return &wb.Sheets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q (have %s)", ErrSheetNotFound, name, strings.Join(wb.Names(), ", "))
}

func (wb *Workbook) First() (*Worksheet, error) {
	if len(wb.Sheets) == 0 {
		return nil, ErrNoSheets
	}
	return &wb.Sheets[0], nil
}

// Width is the number of columns.
func (ws *Worksheet) Width() int {
	if len(ws.Rows) == 0 {
		return 0
	}
	return len(ws.Rows[0])
}

// Preview is the head of a worksheet as shown to someone picking columns.
type Preview struct {
	// one label per column: header text, or "Column N" (1-based) when the
	// header cell is blank or there is no header
	Labels []string
	Rows   [][]string
}

// Preview returns the first n data rows, after the header when hasHeader
// is set.
func (ws *Worksheet) Preview(n int, hasHeader bool) Preview {
	width := ws.Width()
	p := Preview{Labels: make([]string, width)}

	rows := ws.Rows
	var header []string
	if hasHeader && len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	for i := range p.Labels {
		label := ""
		if header != nil {
			label = strings.TrimSpace(header[i])
		}
		if label == "" {
			label = fmt.Sprintf("Column %d", i+1)
		}
		p.Labels[i] = label
	}

	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	p.Rows = rows
	return p
}

// grid collects sparse cells and turns them into a Worksheet.
type grid struct {
	name  string
	cells map[[2]int]string
	rows  int
	cols  int
}

func newGrid(name string) *grid {
	return &grid{name: name, cells: make(map[[2]int]string)}
}

func (g *grid) set(row, col int, value string) {
	if row < 0 || col < 0 || value == "" {
		return
	}
	g.cells[[2]int{row, col}] = value
	if row+1 > g.rows {
		g.rows = row + 1
	}
	if col+1 > g.cols {
		g.cols = col + 1
	}
}

// worksheet pads every row to the widest one. Trailing rows and columns
// with nothing in them are not part of the matrix.
func (g *grid) worksheet() Worksheet {
	ws := Worksheet{Name: g.name, Rows: make([][]string, g.rows)}
	for r := range ws.Rows {
		row := make([]string, g.cols)
		for c := range row {
			row[c] = g.cells[[2]int{r, c}]
		}
		ws.Rows[r] = row
	}
	return ws
}
