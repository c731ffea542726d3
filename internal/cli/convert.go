package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/xls2ass/internal/convert"
	"github.com/mgpai22/xls2ass/internal/sheet"
	"github.com/mgpai22/xls2ass/internal/subtitle"
	"github.com/mgpai22/xls2ass/internal/video"
)

var convertCmd = &cobra.Command{
	Use:   "convert [spreadsheet]",
	Short: "Convert spreadsheet rows into an ASS script",
	Long: `Convert the rows of one or more worksheets into subtitle events.

Columns are given as zero-based numbers (0, 1, 2) or spreadsheet letters
(A, B, AB). At least a start or a dialogue column is needed; a missing
end column makes every event end where it starts.

Examples:
  xls2ass convert reel1.xlsx --start-col A --end-col B --dialogue-col C
  xls2ass convert list.xls --sheet "Reel 2" --start-col 0 --dialogue-col 3 \
      --track-col 4 --top-tracks Signs --framerate 23.976
  xls2ass convert script.csv --start-col A --dialogue-col B --timecode=false \
      --shift -0:00:10.00 -o - --format srt`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.StringArray("sheet", nil, "Worksheet to convert (repeatable, default first sheet)")
	flags.Bool("all-sheets", false, "Convert every worksheet in order")

	flags.String("start-col", "", "Column holding start timestamps")
	flags.String("end-col", "", "Column holding end timestamps")
	flags.String("dialogue-col", "", "Column holding dialogue text")
	flags.String("actor-col", "", "Column holding the speaking character")
	flags.String("track-col", "", "Column naming the track; each track gets a style")
	flags.String("italics-col", "", "Column whose non-blank cells make the line italic")

	flags.Bool("headers", true, "First row of each sheet is a header")
	flags.Bool("timecode", true, "Timestamps carry frames (H:MM:SS:FF) instead of decimals")
	flags.Float64("framerate", 24, "Frames per second for timecode timestamps")
	flags.String("framerate-from", "", "Read the framerate from this video file")
	flags.String("shift", "", "Offset added to every timestamp (H:MM:SS.CC, may be negative)")
	flags.Float64("scale", 0, "Multiply every timestamp by this factor after shifting")
	flags.StringSlice("top-tracks", nil, "Tracks whose styles are placed at the top of the screen")
	flags.Bool("skip-blank-rows", false, "Ignore rows whose cells are all blank")
	flags.Bool("skip-invalid-rows", false, "Skip rows with unreadable timestamps instead of failing")

	flags.String("format", string(subtitle.FormatASS), "Output format (ass, srt, vtt)")
	flags.String("encoding", string(subtitle.EncodingUTF8BOM), "Output encoding (utf-8-bom, utf-8, utf-16le)")
	flags.String("append-to", "", "Add the converted events to this existing ASS script")
	flags.String("title", "", "Script title written to [Script Info]")
	flags.String("embed-into", "", "Also mux the result into a Matroska copy of this video")

	addTranslationFlags(flags)
}

// convert.Config from the command's flags
func configFromFlags(cmd *cobra.Command) convert.Config {
	flags := cmd.Flags()
	cfg := convert.DefaultConfig()

	cfg.StartCol, _ = flags.GetString("start-col")
	cfg.EndCol, _ = flags.GetString("end-col")
	cfg.DialogueCol, _ = flags.GetString("dialogue-col")
	cfg.ActorCol, _ = flags.GetString("actor-col")
	cfg.TrackCol, _ = flags.GetString("track-col")
	cfg.ItalicsCol, _ = flags.GetString("italics-col")
	cfg.HasHeaders, _ = flags.GetBool("headers")
	cfg.Timecode, _ = flags.GetBool("timecode")

	if framerate, _ := flags.GetFloat64("framerate"); flags.Changed("framerate") {
		cfg.Framerate = strconv.FormatFloat(framerate, 'g', -1, 64)
	}
	cfg.Shift, _ = flags.GetString("shift")
	if scale, _ := flags.GetFloat64("scale"); flags.Changed("scale") {
		cfg.Scale = strconv.FormatFloat(scale, 'g', -1, 64)
	}

	cfg.TopTracks, _ = flags.GetStringSlice("top-tracks")
	cfg.SkipBlankRows, _ = flags.GetBool("skip-blank-rows")
	cfg.SkipInvalidRows, _ = flags.GetBool("skip-invalid-rows")
	return cfg
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	flags := cmd.Flags()

	sheetNames, _ := flags.GetStringArray("sheet")
	allSheets, _ := flags.GetBool("all-sheets")
	framerateFrom, _ := flags.GetString("framerate-from")
	formatStr, _ := flags.GetString("format")
	encStr, _ := flags.GetString("encoding")
	appendTo, _ := flags.GetString("append-to")
	title, _ := flags.GetString("title")
	embedInto, _ := flags.GetString("embed-into")
	outputPath, _ := flags.GetString("output")

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("spreadsheet not found: %s", inputPath)
	}
	if allSheets && len(sheetNames) > 0 {
		return errors.New("--sheet and --all-sheets cannot be used together")
	}

	if !flags.Changed("format") && outputPath != "" && outputPath != "-" {
		formatStr = string(subtitle.GetFormatFromExtension(outputPath))
	}
	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	enc, err := subtitle.ParseEncoding(encStr)
	if err != nil {
		return err
	}
	if appendTo != "" && format != subtitle.FormatASS {
		return errors.New("--append-to requires ass output")
	}
	if embedInto != "" && outputPath == "-" {
		return errors.New("--embed-into needs an output file, not stdout")
	}

	ts, translating, err := translationFromFlags(cmd)
	if err != nil {
		return err
	}

	if framerateFrom != "" || embedInto != "" {
		warnMissingFFmpeg()
	}

	cfg := configFromFlags(cmd)
	if framerateFrom != "" {
		if flags.Changed("framerate") {
			return errors.New("--framerate and --framerate-from cannot be used together")
		}
		info, err := video.NewProcessor().GetInfo(ctx, framerateFrom)
		if err != nil {
			return fmt.Errorf("failed to read framerate: %w", err)
		}
		if info.FrameRate <= 0 {
			return fmt.Errorf("no framerate found in %s", framerateFrom)
		}
		cfg.Framerate = strconv.FormatFloat(info.FrameRate, 'g', -1, 64)
		logger.Infow("Using video framerate", "video", framerateFrom, "framerate", info.FrameRate)
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	skipped := 0
	opts.OnSkip = func(e *convert.RowError) {
		skipped++
		logger.Warnw("Skipping row", "sheet", e.Sheet, "row", e.Row, "column", e.Column.String(), "error", e.Err)
	}

	if outputPath == "" {
		base := appendTo
		if base == "" {
			base = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + subtitle.GetExtensionForFormat(format)
		}
		outputPath = base
	}

	logger.Infow("Loading spreadsheet", "input", inputPath)
	wb, err := sheet.Open(inputPath)
	if err != nil {
		return err
	}
	logger.Debugw("Loaded spreadsheet", "format", wb.Format, "sheets", wb.Names())

	if allSheets {
		sheetNames = wb.Names()
	}

	var doc *subtitle.Document
	if appendTo != "" {
		if doc, err = subtitle.OpenASS(appendTo); err != nil {
			return fmt.Errorf("failed to read %s: %w", appendTo, err)
		}
		logger.Infow("Appending to existing script", "path", appendTo, "events", len(doc.Events))
	}

	doc, err = convert.ConvertWorkbook(wb, sheetNames, opts, doc)
	if err != nil {
		return err
	}
	if title != "" {
		doc.Info.Set("Title", title)
	}
	if language, _ := flags.GetString("language"); language != "" {
		doc.Info.Set("Language", language)
	}

	if translating {
		if err := translateDocument(ctx, doc, ts); err != nil {
			return err
		}
	}

	if outputPath == "-" {
		writer, err := subtitle.NewWriter(format)
		if err != nil {
			return err
		}
		out, err := subtitle.NewEncodingWriter(cmd.OutOrStdout(), enc)
		if err != nil {
			return err
		}
		if err := writer.Write(doc, out); err != nil {
			return err
		}
		return out.Close()
	}

	if err := subtitle.WriteFile(doc, outputPath, format, enc); err != nil {
		return err
	}

	if embedInto != "" {
		embedded, err := embedOutputPath(embedInto, "")
		if err != nil {
			return err
		}
		logger.Infow("Embedding subtitles", "video", embedInto, "output", embedded)
		if err := video.NewProcessor().EmbedSubtitles(ctx, embedInto, outputPath, embedded, video.EmbedOptions{
			Title: title,
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Video with subtitles: %s\n", embedded)
	}

	printSummary(cmd, outputPath, doc, skipped)
	return nil
}

func printSummary(cmd *cobra.Command, outputPath string, doc *subtitle.Document, skipped int) {
	stats := doc.Stats()
	absOutput, _ := filepath.Abs(outputPath)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subtitles written: %s\n", absOutput)
	fmt.Fprintf(out, "  Events: %d\n", stats.Events)
	fmt.Fprintf(out, "  Duration: %s\n", stats.Duration)
	for _, c := range stats.PerStyle {
		fmt.Fprintf(out, "  Style %s: %d\n", c.Style, c.Events)
	}
	if stats.Untimed > 0 {
		fmt.Fprintf(out, "  Untimed events: %d\n", stats.Untimed)
	}
	if stats.Overlaps > 0 {
		fmt.Fprintf(out, "  Overlapping events: %d\n", stats.Overlaps)
	}
	if skipped > 0 {
		fmt.Fprintf(out, "  Skipped rows: %d\n", skipped)
	}
}
