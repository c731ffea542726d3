package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/xls2ass/internal/timestamp"
)

// Advanced SubStation Alpha format
type ASSWriter struct{}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

var overrideTagRegex = regexp.MustCompile(`\{[^}]*\}`)

// cue text and voice names are markup in WebVTT
var vttEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatASS:
		return &ASSWriter{}, nil
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ParseFormat accepts a format name with or without the leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatASS, FormatSRT, FormatVTT:
		return f, nil
	case "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// writes the document as ASS
func (w *ASSWriter) Write(doc *Document, out io.Writer) error {
	bw := bufio.NewWriter(out)

	// script info section
	bw.WriteString("[Script Info]\n")
	for _, key := range doc.Info.Keys() {
		value, _ := doc.Info.Get(key)
		fmt.Fprintf(bw, "%s: %s\n", key, value)
	}
	bw.WriteString("\n")

	// v4+ styles section
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	for _, s := range doc.Styles.All() {
		bw.WriteString(formatStyleLine(s))
		bw.WriteString("\n")
	}
	bw.WriteString("\n")

	// events section
	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, e := range doc.Events {
		fmt.Fprintf(bw, "Dialogue: %d,%s,%s,%s,%s,%d,%d,%d,%s,%s\n",
			e.Layer,
			formatASSTime(e.Start),
			formatASSTime(e.End),
			fieldValue(e.Style),
			fieldValue(e.Name),
			e.MarginL,
			e.MarginR,
			e.MarginV,
			fieldValue(e.Effect),
			escapeASSText(e.Text))
	}

	return bw.Flush()
}

func formatStyleLine(s Style) string {
	fields := []string{
		fieldValue(s.Name),
		fieldValue(s.FontName),
		formatNumber(s.FontSize),
		s.PrimaryColour,
		s.SecondaryColour,
		s.OutlineColour,
		s.BackColour,
		formatFlag(s.Bold),
		formatFlag(s.Italic),
		formatFlag(s.Underline),
		formatFlag(s.StrikeOut),
		formatNumber(s.ScaleX),
		formatNumber(s.ScaleY),
		formatNumber(s.Spacing),
		formatNumber(s.Angle),
		strconv.Itoa(s.BorderStyle),
		formatNumber(s.Outline),
		formatNumber(s.Shadow),
		strconv.Itoa(s.Alignment),
		strconv.Itoa(s.MarginL),
		strconv.Itoa(s.MarginR),
		strconv.Itoa(s.MarginV),
		strconv.Itoa(s.Encoding),
	}
	return "Style: " + strings.Join(fields, ",")
}

// writes the document as SRT, dropping styles and override tags
func (w *SRTWriter) Write(doc *Document, out io.Writer) error {
	bw := bufio.NewWriter(out)
	for i, e := range doc.Events {
		// index (1-based)
		fmt.Fprintf(bw, "%d\n", i+1)

		// timestamps: 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(bw, "%s --> %s\n",
			formatSRTTime(e.Start),
			formatSRTTime(e.End))

		bw.WriteString(plainText(e.Text))
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

// writes the document as WebVTT, keeping the actor as a voice span
func (w *VTTWriter) Write(doc *Document, out io.Writer) error {
	bw := bufio.NewWriter(out)

	// VTT header
	bw.WriteString("WEBVTT\n\n")

	for i, e := range doc.Events {
		// optional cue identifier
		fmt.Fprintf(bw, "%d\n", i+1)

		// timestamps: 00:00:00.000 --> 00:00:00.000
		fmt.Fprintf(bw, "%s --> %s\n",
			formatVTTTime(e.Start),
			formatVTTTime(e.End))

		if e.Name != "" {
			fmt.Fprintf(bw, "<v %s>", vttEscaper.Replace(e.Name))
		}
		bw.WriteString(vttEscaper.Replace(plainText(e.Text)))
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

// WriteFile serializes doc into path, creating parent directories.
func WriteFile(doc *Document, path string, format Format, enc Encoding) error {
	writer, err := NewWriter(format)
	if err != nil {
		return err
	}

	if err := ensureDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", format, err)
	}
	defer func() {
		_ = file.Close()
	}()

	encoded, err := NewEncodingWriter(file, enc)
	if err != nil {
		return err
	}
	if err := writer.Write(doc, encoded); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	if err := encoded.Close(); err != nil {
		return fmt.Errorf("failed to encode %s file: %w", format, err)
	}

	return file.Close()
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func formatASSTime(d time.Duration) string {
	return timestamp.Format(clamp(d))
}

func formatSRTTime(d time.Duration) string {
	d = clamp(d)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	d = clamp(d)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ASS writes true as -1
func formatFlag(b bool) string {
	if b {
		return "-1"
	}
	return "0"
}

// commas separate fields, so they cannot appear inside one
func fieldValue(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	return escapeASSText(s)
}

func escapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\\N")
	text = strings.ReplaceAll(text, "\r", "\\N")
	text = strings.ReplaceAll(text, "\n", "\\N")
	return text
}

// ASS text without override tags, hard breaks as newlines
func plainText(text string) string {
	text = overrideTagRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\\N", "\n")
	text = strings.ReplaceAll(text, "\\n", "\n")
	text = strings.ReplaceAll(text, "\\h", " ")
	return text
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	default:
		return FormatASS
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	default:
		return ".ass"
	}
}
