package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provgraph/provgraph/internal/provenance"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change engine settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting (purge_on_delete, show_invalidated)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Printf("%s = %v\n", provenance.SettingPurgeOnDelete, svc.PurgeOnDelete())
	fmt.Printf("%s = %v\n", provenance.SettingShowInvalidated, svc.ShowInvalidated())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	switch key {
	case provenance.SettingPurgeOnDelete, provenance.SettingShowInvalidated:
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if value != "true" && value != "false" {
		return fmt.Errorf("value must be true or false")
	}

	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.SetSetting(key, value); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}
