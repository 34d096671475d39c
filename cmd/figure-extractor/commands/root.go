// Package commands implements the figure-extractor CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/figure-extractor/cmd/figure-extractor/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool

	buildVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "figure-extractor",
	Short: "Document enrichment webhook and figure cropping tools",
	Long: `figure-extractor analyzes documents with Azure Document Intelligence,
crops every detected figure out of the source PDF or image and stores the
crops with their metadata. It runs as a custom-skill webhook (serve) or
from the command line (crop, enrich).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.InitUI(noColor, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// SetVersion records the build version reported by the version command and
// the health endpoint.
func SetVersion(v string) {
	if v != "" {
		buildVersion = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
