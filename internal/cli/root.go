package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/xls2ass/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xls2ass",
	Short: "Convert subtitle spreadsheets into ASS scripts",
	Long: `xls2ass turns subtitle spreadsheets (xlsx, xls, xlsb, csv) into
Advanced SubStation Alpha scripts.

Each row becomes one dialogue event. Start and end timestamps may use
timecode frames (H:MM:SS:FF) or decimal fractions (H:MM:SS.CC), and a
track column gives every track its own style.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language of the dialogue (e.g., en, English)")
}
