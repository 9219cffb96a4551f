package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var agentsJSON bool

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List recorded agents",
	RunE:  runAgents,
}

func init() {
	agentsCmd.Flags().BoolVar(&agentsJSON, "json", false, "Output machine-readable JSON")
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	agents, err := svc.ListAgents()
	if err != nil {
		return err
	}

	if agentsJSON {
		return printJSON(agents)
	}

	if len(agents) == 0 {
		fmt.Println("No agents recorded.")
		return nil
	}
	for _, a := range agents {
		fmt.Printf("%-14s %-28s %s\n", color.CyanString(a.AgentType), a.Name, a.ID)
	}
	return nil
}
