package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provgraph/provgraph/internal/provenance"
)

var (
	deleteJSON     bool
	deleteMode     string
	deleteEntityID string
	deleteDocument string
	deleteTerm     string
	deleteExp      string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Purge or invalidate provenance records",
	Long: "Purge removes entities and every relationship touching them; " +
		"invalidate stamps them for audit while keeping the rows. " +
		"Without --mode the purge_on_delete setting decides.",
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteJSON, "json", false, "Output machine-readable JSON")
	deleteCmd.Flags().StringVar(&deleteMode, "mode", "", "Deletion mode: purge or invalidate (default from settings)")
	deleteCmd.Flags().StringVar(&deleteEntityID, "entity", "", "Delete a single entity by id")
	deleteCmd.Flags().StringVar(&deleteDocument, "document", "", "Delete a document family (comma-separated ids allowed)")
	deleteCmd.Flags().StringVar(&deleteTerm, "term", "", "Delete all records of a term")
	deleteCmd.Flags().StringVar(&deleteExp, "experiment", "", "Delete all records of an experiment")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	mode := provenance.DeleteMode(deleteMode)
	switch mode {
	case provenance.ModeDefault, provenance.ModePurge, provenance.ModeInvalidate:
	default:
		return fmt.Errorf("unknown mode %q (want purge or invalidate)", deleteMode)
	}

	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	var result *provenance.DeleteResult
	switch {
	case deleteEntityID != "":
		result, err = svc.DeleteOrInvalidateEntity(deleteEntityID, mode)
	case deleteDocument != "":
		result, err = svc.DeleteDocumentFamily(splitCSV(deleteDocument), mode)
	case deleteTerm != "":
		result, err = svc.DeleteTermRecords(deleteTerm, mode)
	case deleteExp != "":
		result, err = svc.DeleteExperimentRecords(deleteExp, mode)
	default:
		return fmt.Errorf("one of --entity, --document, --term, --experiment is required")
	}
	if err != nil {
		return err
	}

	if deleteJSON {
		return printJSON(result)
	}

	if !result.OK {
		fmt.Println(color.RedString("failed: ") + result.Reason)
		return nil
	}
	if result.Mode == provenance.ModePurge {
		fmt.Printf("Purged %d entities and %d relationships.\n", result.EntitiesDeleted, result.RelationshipsDeleted)
	} else {
		fmt.Printf("Invalidated %d entities.\n", result.EntitiesInvalidated)
	}
	return nil
}
