package main

import (
	"fmt"
	"log/slog"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/realm"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the realm file",
	Long: `Delete the realm file and its auxiliary files. Fails while any other
process has the realm open.

Examples:
  realm delete --name old.realm
  realm delete --yes`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

var deleteYes bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, _ []string) error {
	rc, err := realmConfig(cmd)
	if err != nil {
		return err
	}

	if !deleteYes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete realm '%s'", rc.Name()),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	if err := realm.DeleteRealm(rc); err != nil {
		return err
	}

	slog.Info("realm deleted", "name", rc.Name())
	return nil
}
