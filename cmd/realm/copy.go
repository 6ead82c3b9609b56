package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/realm"
)

var copyCmd = &cobra.Command{
	Use:   "copy <dest>",
	Short: "Write a compacted copy of the realm",
	Long: `Write a compacted copy of the realm to a new file. The destination
must not exist. Postgres realms cannot be copied.

Examples:
  realm copy backup/default.realm
  realm --in-memory copy snapshot.realm`,
	Args: cobra.ExactArgs(1),
	RunE: runCopy,
}

func init() {
	rootCmd.AddCommand(copyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
	dest := args[0]

	return withRealm(cmd, func(r *realm.Realm) error {
		if err := r.WriteCopyTo(cmd.Context(), dest); err != nil {
			return err
		}
		slog.Info("realm copied", "name", r.Configuration().Name(), "dest", dest)
		return nil
	})
}
