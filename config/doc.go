// Package config provides configuration loading and validation for the realm CLI.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (REALM_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"realm.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Build the realm configuration for the CLI's types
//	rc, err := cfg.RealmBuilder(logger, schema.MustFor[Frog]()).Build()
//
// # Environment Variables
//
// All config keys map to environment variables with REALM_ prefix:
//   - realm.name → REALM_REALM_NAME
//   - realm.schema_version → REALM_REALM_SCHEMA_VERSION
//   - database.type → REALM_DATABASE_TYPE
//
// # Configuration Structure
//
// The Config struct contains:
//   - Realm: name, directory, schema_version, in_memory, delete_if_migration_needed
//   - Database: backend type (sqlite or postgres) and the postgres DSN
//   - Env: dev or prod, selecting the log handler
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Realm name must be a valid file name
//   - Database type must be sqlite or postgres; postgres needs a DSN and cannot be in memory
//   - Log level must be debug, info, warn, or error
package config
