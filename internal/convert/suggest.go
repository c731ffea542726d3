package convert

import (
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/xls2ass/internal/sheet"
	"github.com/mgpai22/xls2ass/internal/timestamp"
)

// DefaultSampleRows is how many data rows Suggest looks at.
const DefaultSampleRows = 50

// Suggestion is a guess at a worksheet's column mapping. It only helps
// someone fill in the columns; conversions never rely on it.
type Suggestion struct {
	// columns where most non-blank cells are timestamps
	Timestamps []Column
	Columns    ColumnMapping
	// true when sampled timestamps mostly carry frames (H:MM:SS:FF)
	Timecode bool
}

// Suggest guesses the mapping from header names, falling back to the
// first two timestamp columns for start and end and the text column with
// the most content for dialogue.
func Suggest(ws *sheet.Worksheet, hasHeader bool, sample int) Suggestion {
	if sample <= 0 {
		sample = DefaultSampleRows
	}

	rows := ws.Rows
	var header []string
	if hasHeader && len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	if len(rows) > sample {
		rows = rows[:sample]
	}

	width := ws.Width()
	type stats struct {
		filled, stamps, frames, textLen int
	}
	cols := make([]stats, width)
	for _, row := range rows {
		for c := 0; c < width && c < len(row); c++ {
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			cols[c].filled++
			if timestamp.IsTimestamp(v) {
				cols[c].stamps++
				if v[strings.LastIndexAny(v, ":.")] == ':' {
					cols[c].frames++
				}
				continue
			}
			cols[c].textLen += utf8.RuneCountInString(v)
		}
	}

	var s Suggestion
	var stamps, frames int
	for c, st := range cols {
		if st.filled > 0 && st.stamps*2 >= st.filled {
			s.Timestamps = append(s.Timestamps, Col(c))
			stamps += st.stamps
			frames += st.frames
		}
	}
	s.Timecode = stamps == 0 || frames*2 >= stamps

	for c, label := range header {
		role := roleForHeader(label)
		if role == "" {
			continue
		}
		dst := s.Columns.byRole(role)
		if !dst.IsSet() {
			*dst = Col(c)
		}
	}

	if !s.Columns.Start.IsSet() && len(s.Timestamps) > 0 {
		s.Columns.Start = s.Timestamps[0]
	}
	if !s.Columns.End.IsSet() && len(s.Timestamps) > 1 && s.Timestamps[1] != s.Columns.Start {
		s.Columns.End = s.Timestamps[1]
	}
	if !s.Columns.Dialogue.IsSet() {
		best, bestLen := -1, 0
		for c, st := range cols {
			if isStampColumn(s.Timestamps, c) || s.Columns.taken(c) {
				continue
			}
			if st.textLen > bestLen {
				best, bestLen = c, st.textLen
			}
		}
		s.Columns.Dialogue = Col(best)
	}

	return s
}

// Config renders the suggestion as column specs in spreadsheet letters.
func (s Suggestion) Config() Config {
	cfg := DefaultConfig()
	cfg.Timecode = s.Timecode
	cfg.StartCol = s.Columns.Start.Letter()
	cfg.EndCol = s.Columns.End.Letter()
	cfg.DialogueCol = s.Columns.Dialogue.Letter()
	cfg.ActorCol = s.Columns.Actor.Letter()
	cfg.TrackCol = s.Columns.Track.Letter()
	cfg.ItalicsCol = s.Columns.Italics.Letter()
	return cfg
}

var headerRoles = []struct {
	role  string
	names []string
}{
	{RoleStart, []string{"start", "in", "timecode in", "tc in", "start time"}},
	{RoleEnd, []string{"end", "out", "timecode out", "tc out", "end time"}},
	{RoleDialogue, []string{"dialogue", "dialog", "text", "line", "subtitle", "translation"}},
	{RoleActor, []string{"actor", "character", "speaker", "name"}},
	{RoleTrack, []string{"track", "style", "layer"}},
	{RoleItalics, []string{"italics", "italic"}},
}

func roleForHeader(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, hr := range headerRoles {
		for _, name := range hr.names {
			if label == name {
				return hr.role
			}
		}
	}
	return ""
}

func (m *ColumnMapping) byRole(role string) *Column {
	switch role {
	case RoleStart:
		return &m.Start
	case RoleEnd:
		return &m.End
	case RoleDialogue:
		return &m.Dialogue
	case RoleActor:
		return &m.Actor
	case RoleTrack:
		return &m.Track
	default:
		return &m.Italics
	}
}

func (m ColumnMapping) taken(c int) bool {
	for _, col := range []Column{m.Start, m.End, m.Dialogue, m.Actor, m.Track, m.Italics} {
		if i, ok := col.Index(); ok && i == c {
			return true
		}
	}
	return false
}

func isStampColumn(cols []Column, c int) bool {
	for _, col := range cols {
		if i, _ := col.Index(); i == c {
			return true
		}
	}
	return false
}
