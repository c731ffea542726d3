package convert

import (
	"fmt"

	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// Column is an optional zero-based column index. The zero value is
// absent, so column 0 is only ever selected through Col(0).
type Column struct {
	index int
	set   bool
}

// NoColumn marks a role with no column.
var NoColumn = Column{}

// Col selects column i. Negative indexes mean no column.
func Col(i int) Column {
	if i < 0 {
		return NoColumn
	}
	return Column{index: i, set: true}
}

func (c Column) Index() (int, bool) {
	return c.index, c.set
}

func (c Column) IsSet() bool {
	return c.set
}

// cell returns the cell under c, or "" when the row is shorter.
func (c Column) cell(row []string) string {
	if !c.set || c.index >= len(row) {
		return ""
	}
	return row[c.index]
}

// Letter is the spreadsheet name of the column, "" when unset.
func (c Column) Letter() string {
	if !c.set {
		return ""
	}
	return reference.IndexToColumn(uint32(c.index))
}

// String renders the spreadsheet letter and index, e.g. "C (2)".
func (c Column) String() string {
	if !c.set {
		return "none"
	}
	return fmt.Sprintf("%s (%d)", reference.IndexToColumn(uint32(c.index)), c.index)
}

// ColumnMapping assigns spreadsheet columns to event fields.
type ColumnMapping struct {
	Start    Column
	End      Column
	Dialogue Column
	Actor    Column
	Track    Column
	Italics  Column
}

// Validate requires a start or a dialogue column.
func (m ColumnMapping) Validate() error {
	if !m.Start.IsSet() && !m.Dialogue.IsSet() {
		return &ConfigurationError{
			Field:  "columns",
			Reason: "at least one of start or dialogue column is required",
		}
	}
	return nil
}
