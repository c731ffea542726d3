package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mgpai22/xls2ass/internal/convert"
	"github.com/mgpai22/xls2ass/internal/logging"
	"github.com/mgpai22/xls2ass/internal/subtitle"
)

const sampleCSV = "In,Out,Text,Character,Track,Italic\n" +
	"00:00:01:00,00:00:02:12,Hello,ALICE,Main,\n" +
	"00:00:03:00,00:00:04:00,Sign text,,Signs,x\n" +
	"00:00:05:00,00:00:06:00,Bye,BOB,Main,\n"

// resetFlags puts every flag back to its default; rootCmd is shared
// between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestConvertCommand(t *testing.T) {
	input := writeTemp(t, "reel1.csv", sampleCSV)

	out, err := executeCommand(t, "convert", input,
		"--start-col", "A",
		"--end-col", "B",
		"--dialogue-col", "C",
		"--actor-col", "D",
		"--track-col", "E",
		"--italics-col", "F",
		"--top-tracks", "Signs",
		"--title", "Reel 1",
	)
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}

	outputPath := strings.TrimSuffix(input, ".csv") + ".ass"
	doc, err := subtitle.OpenASS(outputPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(doc.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(doc.Events))
	}
	if got := doc.Events[1].Text; got != `{\i1}Sign text` {
		t.Errorf("italic event text = %q", got)
	}
	if doc.Events[0].Name != "ALICE" || doc.Events[0].Style != "Main" {
		t.Errorf("unexpected first event %+v", doc.Events[0])
	}
	signs, ok := doc.Styles.Find("Signs")
	if !ok || signs.Alignment != 8 {
		t.Errorf("expected top aligned Signs style, got %+v", signs)
	}
	if title, _ := doc.Info.Get("Title"); title != "Reel 1" {
		t.Errorf("unexpected title %q", title)
	}

	for _, want := range []string{"Events: 3", "Style Main: 2", "Style Signs: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestConvertToStdout(t *testing.T) {
	input := writeTemp(t, "reel1.csv", sampleCSV)

	out, err := executeCommand(t, "convert", input,
		"--start-col", "0",
		"--end-col", "1",
		"--dialogue-col", "2",
		"--format", "srt",
		"--encoding", "utf-8",
		"--shift", "0:00:01.00",
		"-o", "-",
	)
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "1\n00:00:02,000 --> 00:00:03,500\nHello\n") {
		t.Errorf("unexpected srt output:\n%s", out)
	}
}

func TestConvertAppendTo(t *testing.T) {
	input := writeTemp(t, "reel2.csv", sampleCSV)
	existing := filepath.Join(t.TempDir(), "show.ass")

	doc := subtitle.NewDocument()
	doc.Append(subtitle.Event{Style: subtitle.DefaultStyleName, Text: "Already here"})
	if err := subtitle.WriteFile(doc, existing, subtitle.FormatASS, subtitle.EncodingUTF8BOM); err != nil {
		t.Fatal(err)
	}

	if out, err := executeCommand(t, "convert", input,
		"--start-col", "A", "--dialogue-col", "C", "--append-to", existing,
	); err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}

	merged, err := subtitle.OpenASS(existing)
	if err != nil {
		t.Fatalf("failed to read merged script: %v", err)
	}
	if len(merged.Events) != 4 || merged.Events[0].Text != "Already here" {
		t.Errorf("expected original event followed by 3 new ones, got %d events", len(merged.Events))
	}
}

func TestConvertWritesLanguage(t *testing.T) {
	input := writeTemp(t, "reel1.csv", sampleCSV)

	if out, err := executeCommand(t, "-l", "English", "convert", input,
		"--start-col", "A", "--end-col", "B", "--dialogue-col", "C",
	); err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}

	doc, err := subtitle.OpenASS(strings.TrimSuffix(input, ".csv") + ".ass")
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if got, _ := doc.Info.Get("Language"); got != "English" {
		t.Errorf("Language = %q, want English", got)
	}
}

func TestConvertFormatFromOutputExtension(t *testing.T) {
	input := writeTemp(t, "reel1.csv", sampleCSV)
	dir := t.TempDir()

	tests := []struct {
		name   string
		output string
		extra  []string
		prefix string
	}{
		{"srt extension", "out.srt", nil, "1\n00:00:01,000 --> 00:00:02,500\nHello"},
		{"vtt extension", "out.vtt", nil, "WEBVTT"},
		{"explicit format wins", "out.srt", []string{"--format", "vtt"}, "WEBVTT"},
		{"unknown extension", "out.txt", nil, "[Script Info]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, tt.name, tt.output)
			args := append([]string{"convert", input,
				"--start-col", "A", "--end-col", "B", "--dialogue-col", "C",
				"--encoding", "utf-8", "-o", output,
			}, tt.extra...)
			if out, err := executeCommand(t, args...); err != nil {
				t.Fatalf("convert failed: %v\n%s", err, out)
			}
			data, err := os.ReadFile(output)
			if err != nil {
				t.Fatalf("failed to read output: %v", err)
			}
			if !strings.HasPrefix(string(data), tt.prefix) {
				t.Errorf("output should start with %q, got:\n%s", tt.prefix, data)
			}
		})
	}
}

func TestWarnMissingFFmpeg(t *testing.T) {
	logger = logging.NewNop()
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv("HOME", cache)
	t.Setenv("PATH", "")

	t.Setenv("XLS2ASS_FFMPEG_PATH", "")
	t.Setenv("XLS2ASS_FFPROBE_PATH", "")
	if !warnMissingFFmpeg() {
		t.Error("expected a download warning with nothing installed")
	}

	t.Setenv("XLS2ASS_FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("XLS2ASS_FFPROBE_PATH", "/opt/ffmpeg/bin/ffprobe")
	if warnMissingFFmpeg() {
		t.Error("expected no warning when the environment names both binaries")
	}
}

func TestConvertErrors(t *testing.T) {
	input := writeTemp(t, "reel1.csv", sampleCSV)
	t.Setenv("GEMINI_API_KEY", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"convert", filepath.Join(t.TempDir(), "nope.csv"), "--start-col", "A", "--dialogue-col", "C"}, "not found"},
		{"no columns", []string{"convert", input}, "start or dialogue"},
		{"bad column", []string{"convert", input, "--start-col", "A1", "--dialogue-col", "C"}, "start column"},
		{"sheet and all sheets", []string{"convert", input, "--start-col", "A", "--dialogue-col", "C", "--sheet", "x", "--all-sheets"}, "cannot be used together"},
		{"bad format", []string{"convert", input, "--start-col", "A", "--dialogue-col", "C", "--format", "txt"}, "unsupported format"},
		{"append to srt", []string{"convert", input, "--start-col", "A", "--dialogue-col", "C", "--format", "srt", "--append-to", "x.ass"}, "requires ass"},
		{"unknown sheet", []string{"convert", input, "--start-col", "A", "--dialogue-col", "C", "--sheet", "Reel 9"}, "Reel 9"},
		{"translate without key", []string{"convert", input, "--start-col", "A", "--dialogue-col", "C", "--translate-to", "ja"}, "GEMINI_API_KEY"},
		{"bad timestamp", []string{"convert", input, "--start-col", "C", "--dialogue-col", "C"}, "row 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestSheetsCommand(t *testing.T) {
	input := writeTemp(t, "reel1.csv", sampleCSV)

	out, err := executeCommand(t, "sheets", input, "--rows", "2")
	if err != nil {
		t.Fatalf("sheets failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"reel1.csv (csv), 1 worksheet(s)",
		"[reel1] 4 rows x 6 columns",
		"A: In",
		"C: Text",
		"Suggested: --start-col A --end-col B --dialogue-col C --actor-col D --track-col E --italics-col F",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Bye") {
		t.Errorf("preview should stop after 2 rows:\n%s", out)
	}
}

func TestLicenseCommand(t *testing.T) {
	out, err := executeCommand(t, "license")
	if err != nil {
		t.Fatalf("license failed: %v", err)
	}
	if !strings.Contains(out, "MIT License") {
		t.Errorf("unexpected license output:\n%s", out)
	}
}

func TestTranslatedPath(t *testing.T) {
	tests := []struct {
		path, target string
		overlay      bool
		want         string
	}{
		{"reel1.ass", "ja", false, "reel1.ja.ass"},
		{"out/reel1.ass", "Brazilian Portuguese", false, "out/reel1.brazilian-portuguese.ass"},
		{"reel1.ass", "es", true, "reel1.es.overlay.ass"},
	}
	for _, tt := range tests {
		if got := translatedPath(tt.path, tt.target, tt.overlay); got != tt.want {
			t.Errorf("translatedPath(%q, %q, %v) = %q, want %q", tt.path, tt.target, tt.overlay, got, tt.want)
		}
	}
}

func TestEmbedOutputPath(t *testing.T) {
	got, err := embedOutputPath("trailer.mp4", "")
	if err != nil || got != "trailer.subs.mkv" {
		t.Errorf("embedOutputPath default = %q, %v", got, err)
	}
	if _, err := embedOutputPath("trailer.mkv", "trailer.mkv"); err == nil {
		t.Error("expected error when output would overwrite the input")
	}
}

func TestSuggestionFlags(t *testing.T) {
	s := convert.Suggestion{Timecode: false}
	s.Columns.Start = convert.Col(0)
	s.Columns.Dialogue = convert.Col(27)
	if got := suggestionFlags(s); got != "--start-col A --dialogue-col AB --timecode=false" {
		t.Errorf("suggestionFlags = %q", got)
	}
	if got := suggestionFlags(convert.Suggestion{Timecode: true}); got != "(nothing recognised)" {
		t.Errorf("empty suggestion = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"a longer cell", 8, "a lon..."},
		{"two\nlines", 20, `two\nlines`},
		{"日本語のテキスト", 5, "日本..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
