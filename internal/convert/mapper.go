package convert

import (
	"strings"
	"time"

	"github.com/mgpai22/xls2ass/internal/subtitle"
	"github.com/mgpai22/xls2ass/internal/timestamp"
)

const italicsTag = `{\i1}`

var lineBreaks = strings.NewReplacer("\r\n", `\N`, "\r", `\N`, "\n", `\N`)

// MapRow builds one event from a row.
//
// Without a start column the event starts and ends at zero. Without an
// end column it ends where it starts. A non-blank italics cell prefixes
// the text with {\i1}. Without a track column, or with a blank track cell,
// the event uses the Default style; otherwise the track names a style,
// created on first use.
//
// Timestamp failures come back as *RowError with Row left at zero.
func MapRow(
	row []string,
	cols ColumnMapping,
	ts timestamp.Options,
	styles *subtitle.StyleTable,
) (subtitle.Event, error) {
	if err := cols.Validate(); err != nil {
		return subtitle.Event{}, err
	}

	var event subtitle.Event
	var err error

	if cols.Start.IsSet() {
		event.Start, err = parseCell(row, cols.Start, RoleStart, ts)
		if err != nil {
			return subtitle.Event{}, err
		}
	}

	switch {
	case cols.End.IsSet():
		event.End, err = parseCell(row, cols.End, RoleEnd, ts)
		if err != nil {
			return subtitle.Event{}, err
		}
	case cols.Start.IsSet():
		event.End = event.Start
	}

	if cols.Dialogue.IsSet() {
		event.Text = lineBreaks.Replace(cols.Dialogue.cell(row))
	}

	if cols.Italics.IsSet() && strings.TrimSpace(cols.Italics.cell(row)) != "" {
		event.Text = italicsTag + event.Text
	}

	if cols.Actor.IsSet() {
		event.Name = cols.Actor.cell(row)
	}

	// a blank track cell falls back to Default rather than naming a style ""
	event.Style = subtitle.DefaultStyleName
	if track := cols.Track.cell(row); strings.TrimSpace(track) != "" {
		event.Style = styles.EnsureTrackStyle(track).Name
	}

	return event, nil
}

func parseCell(
	row []string,
	col Column,
	role string,
	ts timestamp.Options,
) (time.Duration, error) {
	d, err := timestamp.Parse(col.cell(row), ts)
	if err != nil {
		return 0, &RowError{Column: col, Role: role, Err: err}
	}
	return d, nil
}
