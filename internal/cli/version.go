package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the provgraph version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("provgraph " + version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
