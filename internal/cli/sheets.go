package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mgpai22/xls2ass/internal/convert"
	"github.com/mgpai22/xls2ass/internal/sheet"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets [spreadsheet]",
	Short: "List worksheets and preview their columns",
	Long: `List the worksheets of a spreadsheet with the first rows of each,
labelled by column letter and header, and suggest which columns hold
start times, end times and dialogue.`,
	Args: cobra.ExactArgs(1),
	RunE: runSheets,
}

func init() {
	rootCmd.AddCommand(sheetsCmd)

	sheetsCmd.Flags().StringArray("sheet", nil, "Only show this worksheet (repeatable)")
	sheetsCmd.Flags().Bool("headers", true, "First row of each sheet is a header")
	sheetsCmd.Flags().Int("rows", 5, "Number of rows to preview")
	sheetsCmd.Flags().Int("width", 30, "Truncate cells to this many characters")
}

func runSheets(cmd *cobra.Command, args []string) error {
	path := args[0]
	names, _ := cmd.Flags().GetStringArray("sheet")
	hasHeader, _ := cmd.Flags().GetBool("headers")
	rows, _ := cmd.Flags().GetInt("rows")
	width, _ := cmd.Flags().GetInt("width")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("spreadsheet not found: %s", path)
	}

	wb, err := sheet.Open(path)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = wb.Names()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s), %d worksheet(s)\n", wb.Name, wb.Format, len(wb.Sheets))

	for _, name := range names {
		ws, err := wb.Sheet(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\n[%s] %d rows x %d columns\n", ws.Name, len(ws.Rows), ws.Width())
		if ws.Width() == 0 {
			continue
		}

		p := ws.Preview(rows, hasHeader)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		cells := make([]string, len(p.Labels))
		for i, label := range p.Labels {
			cells[i] = fmt.Sprintf("%s: %s", convert.Col(i).Letter(), truncate(label, width))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
		for _, row := range p.Rows {
			for i := range cells {
				cells[i] = ""
				if i < len(row) {
					cells[i] = truncate(row[i], width)
				}
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		s := convert.Suggest(ws, hasHeader, 0)
		fmt.Fprintf(out, "Suggested: %s\n", suggestionFlags(s))
	}

	return nil
}

// renders a suggestion as convert flags
func suggestionFlags(s convert.Suggestion) string {
	var parts []string
	add := func(flag string, c convert.Column) {
		if c.IsSet() {
			parts = append(parts, fmt.Sprintf("--%s %s", flag, c.Letter()))
		}
	}
	add("start-col", s.Columns.Start)
	add("end-col", s.Columns.End)
	add("dialogue-col", s.Columns.Dialogue)
	add("actor-col", s.Columns.Actor)
	add("track-col", s.Columns.Track)
	add("italics-col", s.Columns.Italics)
	if !s.Timecode {
		parts = append(parts, "--timecode=false")
	}
	if len(parts) == 0 {
		return "(nothing recognised)"
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\r", ""), "\n", `\n`)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
