package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/realm"
	"github.com/sagarc03/realm/config"
)

func loadConfig(cmd *cobra.Command, _ []string) error {
	configFiles, _ := cmd.Flags().GetStringSlice("config")

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return err
	}

	setupLogging(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(config.WithContext(ctx, cfg))

	return nil
}

// realmConfig builds the realm configuration for the CLI's models.
func realmConfig(cmd *cobra.Command) (realm.Configuration, error) {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return realm.Configuration{}, err
	}

	rc, err := cfg.RealmBuilder(slog.Default(), models()...).Build()
	if err != nil {
		return realm.Configuration{}, fmt.Errorf("build realm configuration: %w", err)
	}

	return rc, nil
}

// withRealm opens the configured realm for the duration of fn.
func withRealm(cmd *cobra.Command, fn func(*realm.Realm) error) error {
	rc, err := realmConfig(cmd)
	if err != nil {
		return err
	}

	return realm.With(cmd.Context(), rc, fn)
}
