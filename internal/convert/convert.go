package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/xls2ass/internal/sheet"
	"github.com/mgpai22/xls2ass/internal/subtitle"
	"github.com/mgpai22/xls2ass/internal/timestamp"
)

// Options configures one conversion. The same options apply to every
// row and every worksheet of the call.
type Options struct {
	Columns   ColumnMapping
	HasHeader bool
	Timestamp timestamp.Options

	// tracks whose styles are created top aligned
	TopTracks []string

	// SkipBlankRows drops rows whose cells are all blank.
	SkipBlankRows bool

	// SkipInvalidRows drops rows with unreadable timestamps instead of
	// failing, reporting each one to OnSkip.
	SkipInvalidRows bool
	OnSkip          func(*RowError)
}

// Validate checks the column mapping and timestamp options.
func (o Options) Validate() error {
	if err := o.Columns.Validate(); err != nil {
		return err
	}
	if err := o.Timestamp.Validate(); err != nil {
		var oe *timestamp.OptionError
		if errors.As(err, &oe) {
			return &ConfigurationError{
				Field:  oe.Field,
				Value:  fmt.Sprint(oe.Value),
				Reason: "must be a positive number",
			}
		}
		return &ConfigurationError{Field: "timestamp options", Err: err}
	}
	return nil
}

// Convert appends one event per row to doc, creating a new document when
// doc is nil. With HasHeader the first row is dropped whatever it holds.
//
// The first unreadable timestamp aborts the call unless SkipInvalidRows
// is set. On error the events already appended stay in doc, so callers
// must not serialize it.
func Convert(
	rows [][]string,
	opts Options,
	doc *subtitle.Document,
) (*subtitle.Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if doc == nil {
		doc = subtitle.NewDocument()
	}
	doc.Styles.MarkTop(opts.TopTracks...)

	for i, row := range rows {
		if i == 0 && opts.HasHeader {
			continue
		}
		if opts.SkipBlankRows && isBlank(row) {
			continue
		}

		event, err := MapRow(row, opts.Columns, opts.Timestamp, doc.Styles)
		if err != nil {
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				return nil, err
			}
			rowErr.Row = i + 1
			if opts.SkipInvalidRows {
				if opts.OnSkip != nil {
					opts.OnSkip(rowErr)
				}
				continue
			}
			return nil, rowErr
		}

		doc.Append(event)
	}

	return doc, nil
}

// ConvertWorkbook converts the named worksheets in order into one
// document. No names means the first worksheet.
func ConvertWorkbook(
	wb *sheet.Workbook,
	names []string,
	opts Options,
	doc *subtitle.Document,
) (*subtitle.Document, error) {
	if len(names) == 0 {
		first, err := wb.First()
		if err != nil {
			return nil, err
		}
		names = []string{first.Name}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = subtitle.NewDocument()
	}

	for _, name := range names {
		ws, err := wb.Sheet(name)
		if err != nil {
			return nil, err
		}

		sheetOpts := opts
		if opts.OnSkip != nil {
			sheetOpts.OnSkip = func(e *RowError) {
				e.Sheet = ws.Name
				opts.OnSkip(e)
			}
		}

		if _, err := Convert(ws.Rows, sheetOpts, doc); err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				rowErr.Sheet = ws.Name
			}
			return nil, err
		}
	}

	return doc, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
