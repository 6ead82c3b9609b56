package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "realm",
	Short:   "Open and inspect realms",
	Long: `realm opens named, schema-typed object stores backed by an embedded
SQLite file or a PostgreSQL schema, and manages the frogs stored in them.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable (default: ./realm.yaml)")
	rootCmd.PersistentFlags().String("name", "", "realm name (default: default.realm, env: REALM_REALM_NAME)")
	rootCmd.PersistentFlags().String("dir", "", "directory holding realm files (default: ., env: REALM_REALM_DIRECTORY)")
	rootCmd.PersistentFlags().Uint64("schema-version", 0, "schema version (env: REALM_REALM_SCHEMA_VERSION)")
	rootCmd.PersistentFlags().Bool("in-memory", false, "open an in-memory realm (env: REALM_REALM_IN_MEMORY)")
	rootCmd.PersistentFlags().String("db-type", "", "backend: sqlite, postgres (default: sqlite, env: REALM_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "postgres connection string (env: REALM_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: REALM_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format: text, json, yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
