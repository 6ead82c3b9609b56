package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/realm"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show realm name, location, schema version and object counts",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	formatter, err := getFormatter(cmd)
	if err != nil {
		return err
	}

	return withRealm(cmd, func(r *realm.Realm) error {
		info, err := r.Info(cmd.Context())
		if err != nil {
			return err
		}
		return formatter.FormatInfo(cmd.OutOrStdout(), info)
	})
}
