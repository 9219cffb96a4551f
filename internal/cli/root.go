package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/provgraph/provgraph/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"  _ __  _ __ _____   ____ _ _ __ __ _ _ __ | |__\n" +
		" | '_ \\| '__/ _ \\ \\ / / _` | '__/ _` | '_ \\| '_ \\\n" +
		" | |_) | | | (_) \\ V / (_| | | | (_| | |_) | | | |\n" +
		" | .__/|_|  \\___/ \\_/ \\__, |_|  \\__,_| .__/|_| |_|\n" +
		" |_|                  |___/          |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "provgraph",
	Short: "provgraph - PROV-O provenance and lineage engine",
	Long:  color.CyanString(logo) + "\nRecord and query who did what, when, and what it produced.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
