package convert

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/unidoc/unioffice/spreadsheet/reference"

	"github.com/mgpai22/xls2ass/internal/timestamp"
)

// Config is conversion input as typed by a user, on the command line or
// in a form. Options turns it into validated Options.
type Config struct {
	// column specs: zero-based number, spreadsheet letter, or empty / -1
	// for no column
	StartCol    string
	EndCol      string
	DialogueCol string
	ActorCol    string
	TrackCol    string
	ItalicsCol  string

	HasHeaders bool
	Timecode   bool

	// empty means 24
	Framerate string
	// H:MM:SS.CC added to every timestamp, may be negative
	Shift string
	// empty means no scaling
	Scale string

	TopTracks       []string
	SkipBlankRows   bool
	SkipInvalidRows bool
}

// DefaultConfig matches the defaults of the command line.
func DefaultConfig() Config {
	return Config{
		HasHeaders: true,
		Timecode:   true,
	}
}

func (c Config) Options() (Options, error) {
	var opts Options
	var err error

	specs := []struct {
		field string
		value string
		dst   *Column
	}{
		{"start column", c.StartCol, &opts.Columns.Start},
		{"end column", c.EndCol, &opts.Columns.End},
		{"dialogue column", c.DialogueCol, &opts.Columns.Dialogue},
		{"actor column", c.ActorCol, &opts.Columns.Actor},
		{"track column", c.TrackCol, &opts.Columns.Track},
		{"italics column", c.ItalicsCol, &opts.Columns.Italics},
	}
	for _, s := range specs {
		if *s.dst, err = ParseColumn(s.value); err != nil {
			return Options{}, &ConfigurationError{Field: s.field, Value: s.value, Err: err}
		}
	}

	opts.HasHeader = c.HasHeaders
	opts.Timestamp.Timecode = c.Timecode

	opts.Timestamp.Framerate = timestamp.DefaultFramerate
	if v := strings.TrimSpace(c.Framerate); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f > 0) || math.IsInf(f, 0) {
			return Options{}, &ConfigurationError{
				Field:  "framerate",
				Value:  c.Framerate,
				Reason: "must be a positive number",
			}
		}
		opts.Timestamp.Framerate = f
	}

	if v := strings.TrimSpace(c.Shift); v != "" {
		shift, err := timestamp.Parse(v, timestamp.Options{})
		if err != nil {
			return Options{}, &ConfigurationError{
				Field:  "shift",
				Value:  c.Shift,
				Reason: "expected H:MM:SS.CC, optionally negative",
			}
		}
		opts.Timestamp.Shift = &shift
	}

	if v := strings.TrimSpace(c.Scale); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f > 0) || math.IsInf(f, 0) {
			return Options{}, &ConfigurationError{
				Field:  "scale",
				Value:  c.Scale,
				Reason: "must be a positive number",
			}
		}
		opts.Timestamp.Scale = f
	}

	for _, name := range c.TopTracks {
		if name = strings.TrimSpace(name); name != "" {
			opts.TopTracks = append(opts.TopTracks, name)
		}
	}
	opts.SkipBlankRows = c.SkipBlankRows
	opts.SkipInvalidRows = c.SkipInvalidRows

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// MaxColumnIndex is the zero-based index of XFD, the last column a
// spreadsheet can hold.
const MaxColumnIndex = 16383

// ParseColumn reads "2", "C" or "c" as column 2. Empty and "-1" mean no
// column.
func ParseColumn(s string) (Column, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-1" {
		return NoColumn, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return NoColumn, errors.New("negative index")
		}
		return Col(n), nil
	}

	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return NoColumn, errors.New("expected a number or spreadsheet letters")
		}
	}
	if len(s) > 3 {
		return NoColumn, errors.New("beyond the last spreadsheet column")
	}
	index := int(reference.ColumnToIndex(strings.ToUpper(s)))
	if index > MaxColumnIndex {
		return NoColumn, errors.New("beyond the last spreadsheet column")
	}
	return Col(index), nil
}
