package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var lineageJSON bool

var lineageCmd = &cobra.Command{
	Use:   "lineage <entity-id>",
	Short: "Show the ancestor chain of an entity, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE:  runLineage,
}

func init() {
	lineageCmd.Flags().BoolVar(&lineageJSON, "json", false, "Output machine-readable JSON")
	rootCmd.AddCommand(lineageCmd)
}

func runLineage(cmd *cobra.Command, args []string) error {
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	chain, err := svc.GetLineage(args[0])
	if err != nil {
		return err
	}

	if lineageJSON {
		return printJSON(chain)
	}

	if len(chain) == 0 {
		fmt.Println("No entity found.")
		return nil
	}
	for i, e := range chain {
		arrow := "  "
		if i > 0 {
			arrow = "⤷ "
		}
		fmt.Printf("%s%s  %s  %s%s\n",
			arrow,
			e.GeneratedAt.Format("2006-01-02 15:04:05"),
			color.CyanString(e.EntityType),
			e.ID,
			invalidatedMark(&e),
		)
	}
	return nil
}
