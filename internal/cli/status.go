package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database location and record counts",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output machine-readable JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, cfg, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Stats()
	if err != nil {
		return err
	}

	if statusJSON {
		return printJSON(stats)
	}

	fmt.Println(color.CyanString("Database: ") + cfg.Paths.Database)
	fmt.Printf("Agents:        %d\n", stats.Agents)
	fmt.Printf("Activities:    %d (%d active, %d failed)\n", stats.Activities, stats.ActiveActivities, stats.FailedActivities)
	fmt.Printf("Entities:      %d (%d invalidated)\n", stats.Entities, stats.InvalidatedEntities)
	fmt.Printf("Relationships: %d\n", stats.Relationships)
	return nil
}
