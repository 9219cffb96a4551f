package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provgraph/provgraph/internal/provenance"
)

var (
	graphJSON               bool
	graphExperiment         string
	graphDocument           string
	graphTerm               string
	graphActivityType       string
	graphLimit              int
	graphIncludeInvalidated bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Project the filtered provenance graph as nodes and edges",
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().BoolVar(&graphJSON, "json", false, "Output machine-readable JSON")
	graphCmd.Flags().StringVar(&graphExperiment, "experiment", "", "Filter by experiment id")
	graphCmd.Flags().StringVar(&graphDocument, "document", "", "Filter by document id (pins the upload origin)")
	graphCmd.Flags().StringVar(&graphTerm, "term", "", "Filter by term id")
	graphCmd.Flags().StringVar(&graphActivityType, "activity-type", "", "Filter by activity type")
	graphCmd.Flags().IntVar(&graphLimit, "limit", 0, "Activity window size (0 = config default)")
	graphCmd.Flags().BoolVar(&graphIncludeInvalidated, "include-invalidated", false, "Include invalidated entities")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	svc, cfg, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	limit := graphLimit
	if limit <= 0 {
		limit = cfg.Query.GraphActivityLimit
	}
	g, err := svc.GetGraphData(provenance.GraphFilter{
		ExperimentID:       graphExperiment,
		DocumentID:         graphDocument,
		TermID:             graphTerm,
		ActivityType:       graphActivityType,
		Limit:              limit,
		IncludeInvalidated: graphIncludeInvalidated,
	})
	if err != nil {
		return err
	}

	if graphJSON {
		return printJSON(g)
	}

	fmt.Printf("%d nodes (%d entities, %d activities, %d agents), %d edges\n",
		len(g.Nodes), g.Stats.EntityCount, g.Stats.ActivityCount, g.Stats.AgentCount, g.Stats.EdgeCount)
	for _, n := range g.Nodes {
		mark := ""
		if n.IsOrigin {
			mark = color.GreenString(" [origin]")
		}
		if n.Invalidated {
			mark += color.RedString(" [invalidated]")
		}
		fmt.Printf("  %-8s %-24s %s%s\n", n.Kind, n.Label, n.ID, mark)
	}
	for _, e := range g.Edges {
		fmt.Printf("  %s -%s-> %s\n", e.Source, color.CyanString(e.Label), e.Target)
	}
	return nil
}
