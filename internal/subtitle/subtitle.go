package subtitle

import (
	"io"
	"time"
)

// represents supported subtitle formats
type Format string

const (
	FormatASS Format = "ass"
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// DefaultStyleName is the style every document starts with.
const DefaultStyleName = "Default"

// represents single dialogue line
type Event struct {
	Layer   int
	Start   time.Duration
	End     time.Duration
	Style   string
	Name    string // actor, empty when unset
	MarginL int
	MarginR int
	MarginV int
	Effect  string
	Text    string
}

// ordered [Script Info] key/value pairs
type ScriptInfo struct {
	keys   []string
	values map[string]string
}

func NewScriptInfo() *ScriptInfo {
	return &ScriptInfo{values: make(map[string]string)}
}

// Set replaces the value of key, appending it when new.
func (s *ScriptInfo) Set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *ScriptInfo) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (s *ScriptInfo) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// represents complete ASS document: metadata, styles and events
type Document struct {
	Info   *ScriptInfo
	Styles *StyleTable
	Events []Event
}

// NewDocument returns a document carrying the default script info and
// the "Default" style.
func NewDocument() *Document {
	info := NewScriptInfo()
	info.Set("ScriptType", "v4.00+")
	info.Set("WrapStyle", "0")
	info.Set("ScaledBorderAndShadow", "yes")
	info.Set("YCbCr Matrix", "TV.601")
	info.Set("PlayResX", "640")
	info.Set("PlayResY", "360")

	return &Document{
		Info:   info,
		Styles: NewStyleTable(),
	}
}

// Append adds an event after the existing ones.
func (d *Document) Append(e Event) {
	d.Events = append(d.Events, e)
}

// event counts per style, in style table order
type StyleCount struct {
	Style  string
	Events int
}

type Stats struct {
	Events int
	// latest event end
	Duration time.Duration
	PerStyle []StyleCount
	// events with zero start and end
	Untimed int
	// events starting before the previous one ends
	Overlaps int
}

func (d *Document) Stats() Stats {
	counts := make(map[string]int)
	st := Stats{Events: len(d.Events)}

	var prevEnd time.Duration
	for i, e := range d.Events {
		counts[e.Style]++
		if e.End > st.Duration {
			st.Duration = e.End
		}
		if e.Start == 0 && e.End == 0 {
			st.Untimed++
		}
		if i > 0 && e.Start < prevEnd {
			st.Overlaps++
		}
		prevEnd = e.End
	}

	for _, style := range d.Styles.All() {
		st.PerStyle = append(st.PerStyle, StyleCount{
			Style:  style.Name,
			Events: counts[style.Name],
		})
		delete(counts, style.Name)
	}
	// events naming styles the table does not know about
	for _, e := range d.Events {
		if n, ok := counts[e.Style]; ok {
			st.PerStyle = append(st.PerStyle, StyleCount{Style: e.Style, Events: n})
			delete(counts, e.Style)
		}
	}

	return st
}

// interface for serializing documents
type Writer interface {
	Write(doc *Document, w io.Writer) error
}
