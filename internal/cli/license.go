package cli

import (
	_ "embed"
	"fmt"

	"github.com/spf13/cobra"
)

//go:embed license.txt
var licenseText string

var licenseCmd = &cobra.Command{
	Use:     "license",
	Aliases: []string{"licence"},
	Short:   "Print license information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), licenseText)
	},
}

func init() {
	rootCmd.AddCommand(licenseCmd)
}
