package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spherical/figure-extractor/cmd/figure-extractor/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.Message("figure-extractor %s (%s %s/%s)", buildVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
