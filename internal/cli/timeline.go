package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provgraph/provgraph/internal/provenance"
)

var (
	timelineJSON               bool
	timelineExperiment         string
	timelineUser               string
	timelineActivityType       string
	timelineTerm               string
	timelineDocuments          []string
	timelineLimit              int
	timelineIncludeInvalidated bool
	timelineNoTermUpstream     bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the filtered provenance timeline, newest first",
	RunE:  runTimeline,
}

func init() {
	timelineCmd.Flags().BoolVar(&timelineJSON, "json", false, "Output machine-readable JSON")
	timelineCmd.Flags().StringVar(&timelineExperiment, "experiment", "", "Filter by experiment id")
	timelineCmd.Flags().StringVar(&timelineUser, "user", "", "Filter by associated agent id")
	timelineCmd.Flags().StringVar(&timelineActivityType, "activity-type", "", "Filter by activity type")
	timelineCmd.Flags().StringVar(&timelineTerm, "term", "", "Filter by term id")
	timelineCmd.Flags().StringSliceVar(&timelineDocuments, "document", nil, "Filter by document id (repeatable)")
	timelineCmd.Flags().IntVar(&timelineLimit, "limit", 0, "Maximum entries (0 = config default)")
	timelineCmd.Flags().BoolVar(&timelineIncludeInvalidated, "include-invalidated", false, "Include invalidated entities")
	timelineCmd.Flags().BoolVar(&timelineNoTermUpstream, "no-term-upstream", false, "Disable the one-hop upstream expansion for term filters")
	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	svc, cfg, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	limit := timelineLimit
	if limit <= 0 {
		limit = cfg.Query.TimelineLimit
	}
	include := timelineIncludeInvalidated
	if !cmd.Flags().Changed("include-invalidated") {
		include = svc.ShowInvalidated()
	}

	filter := provenance.TimelineFilter{
		ExperimentID:       timelineExperiment,
		UserID:             timelineUser,
		ActivityType:       timelineActivityType,
		TermID:             timelineTerm,
		DocumentIDs:        timelineDocuments,
		Limit:              limit,
		IncludeInvalidated: include,
		SkipTermUpstream:   timelineNoTermUpstream,
	}
	entries, err := svc.GetTimeline(filter)
	if err != nil {
		return err
	}

	if timelineJSON {
		return printJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No activities match.")
		return nil
	}
	for _, e := range entries {
		actor := "-"
		if e.Agent != nil {
			actor = e.Agent.Name
		}
		fmt.Printf("%s  %s  %s  %s\n",
			e.Activity.StartedAt.Format("2006-01-02 15:04:05"),
			color.CyanString(e.Activity.ActivityType),
			statusColor(e.Activity.Status),
			actor,
		)
		for _, ent := range e.GeneratedEntities {
			fmt.Printf("    generated %s %s%s\n", ent.EntityType, ent.ID, invalidatedMark(&ent))
		}
		for _, ent := range e.UsedEntities {
			fmt.Printf("    used      %s %s\n", ent.EntityType, ent.ID)
		}
		for _, ent := range e.DerivedFromEntities {
			fmt.Printf("    from      %s %s%s\n", ent.EntityType, ent.ID, invalidatedMark(&ent))
		}
	}
	return nil
}

func statusColor(status string) string {
	switch status {
	case provenance.StatusCompleted:
		return color.GreenString(status)
	case provenance.StatusFailed:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}

func invalidatedMark(e *provenance.Entity) string {
	if e.Invalidated() {
		return color.RedString(" (invalidated)")
	}
	return ""
}
