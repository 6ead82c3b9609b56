package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/realm"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the configured realm",
	Long: `Open the configured realm, creating it if needed and reconciling its
schema, then close it again.

Examples:
  # Open default.realm in the current directory
  realm open

  # Open a named realm
  realm open --name my-realm`,
	Args: cobra.NoArgs,
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, _ []string) error {
	return withRealm(cmd, func(r *realm.Realm) error {
		slog.Info("Successfully opened realm: " + r.Configuration().Name())
		return nil
	})
}
