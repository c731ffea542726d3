package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mgpai22/xls2ass/internal/timestamp"
)

var leadingTagsRegex = regexp.MustCompile(`^(\{[^}]*\})+`)

// OpenASS reads an existing ASS/SSA file so new events can be appended.
func OpenASS(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASS file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return ReadASS(file)
}

// section being read and the column layout of its Format line
type assSection struct {
	name    string
	columns []string
}

// ReadASS parses script info, styles and dialogue events. Comment lines,
// fonts, graphics and unknown sections are dropped. A Default style is
// added when the file has none.
func ReadASS(r io.Reader) (*Document, error) {
	doc := &Document{
		Info:   NewScriptInfo(),
		Styles: newEmptyStyleTable(),
	}

	scanner := bufio.NewScanner(NewDecodingReader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var section assSection
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, ";") {
			continue
		}

		if strings.HasPrefix(trimmedLine, "[") &&
			strings.HasSuffix(trimmedLine, "]") {
			section = assSection{
				name: strings.ToLower(
					strings.TrimSuffix(strings.TrimPrefix(trimmedLine, "["), "]"),
				),
			}
			continue
		}

		key, value, ok := strings.Cut(trimmedLine, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch section.name {
		case "script info":
			if key != "!" {
				doc.Info.Set(key, value)
			}

		case "v4+ styles", "v4 styles":
			switch key {
			case "Format":
				section.columns = splitFormatLine(value)
			case "Style":
				if section.columns == nil {
					return nil, fmt.Errorf("style at line %d precedes Format line", lineNum)
				}
				style, err := parseStyleLine(value, section.columns)
				if err != nil {
					return nil, fmt.Errorf("failed to parse Style at line %d: %w", lineNum, err)
				}
				if err := doc.Styles.Add(style); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
			}

		case "events":
			switch key {
			case "Format":
				section.columns = splitFormatLine(value)
				if indexOf(section.columns, "text") == -1 {
					return nil, fmt.Errorf(
						"ASS file missing Text column in Format line",
					)
				}
			case "Dialogue":
				if section.columns == nil {
					return nil, fmt.Errorf(
						"ASS file missing Format line in [Events] section",
					)
				}
				event, err := parseDialogueLine(value, section.columns)
				if err != nil {
					return nil, fmt.Errorf(
						"failed to parse Dialogue at line %d: %w",
						lineNum,
						err,
					)
				}
				doc.Events = append(doc.Events, event)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}

	if _, ok := doc.Info.Get("ScriptType"); !ok {
		return nil, fmt.Errorf("not an ASS file: missing ScriptType in [Script Info]")
	}
	if _, ok := doc.Styles.Find(DefaultStyleName); !ok {
		doc.Styles.insert(NewStyle(DefaultStyleName, false))
	}

	return doc, nil
}

func newEmptyStyleTable() *StyleTable {
	return &StyleTable{
		index: make(map[string]int),
		top:   make(map[string]bool),
	}
}

func splitFormatLine(value string) []string {
	columns := strings.Split(value, ",")
	for i, col := range columns {
		columns[i] = strings.ToLower(strings.TrimSpace(col))
	}
	return columns
}

func indexOf(columns []string, name string) int {
	for i, col := range columns {
		if col == name {
			return i
		}
	}
	return -1
}

func parseStyleLine(value string, columns []string) (Style, error) {
	parts := splitASSFields(value, len(columns))
	if len(parts) < len(columns) {
		return Style{}, fmt.Errorf(
			"expected %d fields, got %d",
			len(columns),
			len(parts),
		)
	}

	s := NewStyle("", false)
	var err error
	for i, col := range columns {
		v := strings.TrimSpace(parts[i])
		switch col {
		case "name":
			s.Name = v
		case "fontname":
			s.FontName = v
		case "fontsize":
			s.FontSize, err = parseFloatField(col, v)
		case "primarycolour":
			s.PrimaryColour = v
		case "secondarycolour":
			s.SecondaryColour = v
		case "outlinecolour", "tertiarycolour":
			s.OutlineColour = v
		case "backcolour":
			s.BackColour = v
		case "bold":
			s.Bold = v != "0"
		case "italic":
			s.Italic = v != "0"
		case "underline":
			s.Underline = v != "0"
		case "strikeout":
			s.StrikeOut = v != "0"
		case "scalex":
			s.ScaleX, err = parseFloatField(col, v)
		case "scaley":
			s.ScaleY, err = parseFloatField(col, v)
		case "spacing":
			s.Spacing, err = parseFloatField(col, v)
		case "angle":
			s.Angle, err = parseFloatField(col, v)
		case "borderstyle":
			s.BorderStyle, err = parseIntField(col, v)
		case "outline":
			s.Outline, err = parseFloatField(col, v)
		case "shadow":
			s.Shadow, err = parseFloatField(col, v)
		case "alignment":
			s.Alignment, err = parseIntField(col, v)
		case "marginl":
			s.MarginL, err = parseIntField(col, v)
		case "marginr":
			s.MarginR, err = parseIntField(col, v)
		case "marginv":
			s.MarginV, err = parseIntField(col, v)
		case "encoding":
			s.Encoding, err = parseIntField(col, v)
		}
		if err != nil {
			return Style{}, err
		}
	}
	if s.Name == "" {
		return Style{}, fmt.Errorf("style without a name")
	}
	return s, nil
}

func parseDialogueLine(value string, columns []string) (Event, error) {
	parts := splitASSFields(value, len(columns))
	if len(parts) < len(columns) {
		return Event{}, fmt.Errorf(
			"expected %d fields, got %d",
			len(columns),
			len(parts),
		)
	}

	var e Event
	var err error
	for i, col := range columns {
		v := parts[i]
		if col != "text" {
			v = strings.TrimSpace(v)
		}
		switch col {
		case "layer":
			e.Layer, err = parseIntField(col, v)
		case "start":
			e.Start, err = timestamp.Parse(v, timestamp.Options{})
		case "end":
			e.End, err = timestamp.Parse(v, timestamp.Options{})
		case "style":
			e.Style = v
		case "name", "actor":
			e.Name = v
		case "marginl":
			e.MarginL, err = parseIntField(col, v)
		case "marginr":
			e.MarginR, err = parseIntField(col, v)
		case "marginv":
			e.MarginV, err = parseIntField(col, v)
		case "effect":
			e.Effect = v
		case "text":
			e.Text = v
		}
		if err != nil {
			return Event{}, err
		}
	}
	return e, nil
}

func parseIntField(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func parseFloatField(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return f, nil
}

// splits into numFields fields; the last one keeps any further commas
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}

	parts := make([]string, 0, numFields)
	remaining := content

	for i := 0; i < numFields-1; i++ {
		idx := strings.Index(remaining, ",")
		if idx == -1 {
			parts = append(parts, remaining)
			remaining = ""
			break
		}
		parts = append(parts, remaining[:idx])
		remaining = remaining[idx+1:]
	}

	parts = append(parts, remaining)

	return parts
}

// SplitLeadingTags separates override blocks such as {\i1} at the start
// of text from the rest.
func SplitLeadingTags(text string) (string, string) {
	match := leadingTagsRegex.FindString(text)
	if match == "" {
		return "", text
	}
	return match, text[len(match):]
}
