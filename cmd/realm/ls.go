package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/realm/config"
	"github.com/sagarc03/realm/filesystem"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List realm files in the realm directory",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	formatter, err := getFormatter(cmd)
	if err != nil {
		return err
	}

	dir, err := filesystem.Open(cfg.Realm.Directory)
	if err != nil {
		return err
	}
	defer func() { _ = dir.Close() }()

	entries, err := dir.List(cmd.Context())
	if err != nil {
		return err
	}

	return formatter.FormatRealms(cmd.OutOrStdout(), entries)
}
