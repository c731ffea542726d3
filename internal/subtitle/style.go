package subtitle

import (
	"fmt"
)

const (
	alignBottomCenter = 2
	alignTopCenter    = 8
)

// represents one [V4+ Styles] entry
type Style struct {
	Name            string
	FontName        string
	FontSize        float64
	PrimaryColour   string
	SecondaryColour string
	OutlineColour   string
	BackColour      string
	Bold            bool
	Italic          bool
	Underline       bool
	StrikeOut       bool
	ScaleX          float64
	ScaleY          float64
	Spacing         float64
	Angle           float64
	BorderStyle     int
	Outline         float64
	Shadow          float64
	Alignment       int
	MarginL         int
	MarginR         int
	MarginV         int
	Encoding        int
}

// NewStyle returns the style used for spreadsheet tracks. top switches
// the alignment from bottom centre to top centre, for signs and other
// on-screen text.
func NewStyle(name string, top bool) Style {
	s := Style{
		Name:            name,
		FontName:        "Trebuchet MS",
		FontSize:        24,
		PrimaryColour:   "&H00FFFFFF",
		SecondaryColour: "&H000000FF",
		OutlineColour:   "&H00000000",
		BackColour:      "&H00000000",
		ScaleX:          100,
		ScaleY:          100,
		BorderStyle:     1,
		Outline:         2,
		Shadow:          2,
		Alignment:       alignBottomCenter,
		MarginL:         40,
		MarginR:         40,
		MarginV:         20,
		Encoding:        1,
	}
	if top {
		s.Alignment = alignTopCenter
	}
	return s
}

// StyleTable holds the styles of a document, unique by name, in insertion
// order. Styles are never removed or renamed.
type StyleTable struct {
	styles []Style
	index  map[string]int
	top    map[string]bool
}

// returns table holding only the Default style
func NewStyleTable() *StyleTable {
	t := &StyleTable{
		index: make(map[string]int),
		top:   make(map[string]bool),
	}
	t.insert(NewStyle(DefaultStyleName, false))
	return t
}

func (t *StyleTable) insert(s Style) {
	t.index[s.Name] = len(t.styles)
	t.styles = append(t.styles, s)
}

// Find returns the style called name.
func (t *StyleTable) Find(name string) (Style, bool) {
	i, ok := t.index[name]
	if !ok {
		return Style{}, false
	}
	return t.styles[i], true
}

// EnsureTrackStyle returns the style called name, creating it with track
// defaults on first use.
func (t *StyleTable) EnsureTrackStyle(name string) Style {
	if s, ok := t.Find(name); ok {
		return s
	}
	s := NewStyle(name, t.top[name])
	t.insert(s)
	return s
}

// MarkTop makes tracks created later under these names top aligned.
// Styles that already exist keep their alignment.
func (t *StyleTable) MarkTop(names ...string) {
	for _, name := range names {
		t.top[name] = true
	}
}

// Add inserts a fully specified style. Used when reading existing files.
func (t *StyleTable) Add(s Style) error {
	if _, ok := t.index[s.Name]; ok {
		return fmt.Errorf("style %q already exists", s.Name)
	}
	t.insert(s)
	return nil
}

// All returns a copy of the styles in insertion order.
func (t *StyleTable) All() []Style {
	out := make([]Style, len(t.styles))
	copy(out, t.styles)
	return out
}

func (t *StyleTable) Len() int {
	return len(t.styles)
}
