package config_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/realm/config"
	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/schema"
)

type Frog struct {
	Name string `realm:"name,primarykey"`
	Age  int
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Load with no config files should use defaults
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "default.realm", cfg.Realm.Name)
	assert.Equal(t, ".", cfg.Realm.Directory)
	assert.Equal(t, uint64(0), cfg.Realm.SchemaVersion)
	assert.False(t, cfg.Realm.InMemory)
	assert.False(t, cfg.Realm.DeleteIfMigrationNeeded)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 5709, cfg.Server.Port)
	assert.False(t, cfg.Server.AllowWrites)
	assert.False(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 300, cfg.CORS.MaxAge)
}

func TestLoad_ConfigFile(t *testing.T) {
	configPath := writeConfig(t, "realm.yaml", `
realm:
  name: frogs.realm
  directory: /tmp/realms
  schema_version: 4
  delete_if_migration_needed: true
database:
  type: postgres
  dsn: postgres://localhost/test
server:
  port: 8080
  allow_writes: true
cors:
  enabled: true
  allowed_origins:
    - https://frogs.example.com
log:
  level: debug
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.AllowWrites)
	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://frogs.example.com"}, cfg.CORS.AllowedOrigins)

	assert.Equal(t, "frogs.realm", cfg.Realm.Name)
	assert.Equal(t, "/tmp/realms", cfg.Realm.Directory)
	assert.Equal(t, uint64(4), cfg.Realm.SchemaVersion)
	assert.True(t, cfg.Realm.DeleteIfMigrationNeeded)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	basePath := writeConfig(t, "base.yaml", `
realm:
  name: frogs.realm
  directory: ./data
log:
  level: info
`)
	overridePath := writeConfig(t, "override.yaml", `
realm:
  name: toads.realm
`)

	// Load with merge (later files override earlier)
	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "toads.realm", cfg.Realm.Name)

	// Preserved values from base
	assert.Equal(t, "./data", cfg.Realm.Directory)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "invalid realm name",
			content: `
realm:
  name: a/b.realm
`,
		},
		{
			name: "invalid database type",
			content: `
database:
  type: mysql
`,
		},
		{
			name: "postgres without dsn",
			content: `
database:
  type: postgres
`,
		},
		{
			name: "postgres in memory",
			content: `
realm:
  in_memory: true
database:
  type: postgres
  dsn: postgres://localhost/test
`,
		},
		{
			name: "invalid log level",
			content: `
log:
  level: loud
`,
		},
		{
			name: "invalid port",
			content: `
server:
  port: 70000
`,
		},
		{
			name: "invalid env",
			content: `
env: staging
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "realm.yaml", tt.content)

			_, err := config.Load([]string{configPath}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// Set environment variables
	t.Setenv("REALM_REALM_NAME", "env.realm")
	t.Setenv("REALM_REALM_SCHEMA_VERSION", "9")
	t.Setenv("REALM_DATABASE_TYPE", "postgres")
	t.Setenv("REALM_DATABASE_DSN", "postgres://env/db")
	t.Setenv("REALM_ENV", "prod")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "env.realm", cfg.Realm.Name)
	assert.Equal(t, uint64(9), cfg.Realm.SchemaVersion)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.True(t, cfg.IsProd())
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("REALM_REALM_NAME", "env.realm")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("name", "", "")
	flags.Bool("in-memory", false, "")
	flags.String("dir", "", "")
	require.NoError(t, flags.Parse([]string{"--name", "flag.realm", "--in-memory"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, "flag.realm", cfg.Realm.Name)
	assert.True(t, cfg.Realm.InMemory)
	assert.Equal(t, ".", cfg.Realm.Directory, "unset flags do not override defaults")
}

func TestContext(t *testing.T) {
	t.Parallel()

	_, err := config.FromContext(context.Background())
	assert.Error(t, err)

	cfg := &config.Config{}
	got, err := config.FromContext(config.WithContext(context.Background(), cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestConfig_RealmBuilder(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Realm: config.RealmConfig{
			Name:                    "frogs.realm",
			Directory:               t.TempDir(),
			SchemaVersion:           2,
			InMemory:                true,
			DeleteIfMigrationNeeded: true,
		},
		Database: database.Config{Type: database.TypeSQLite},
	}

	rc, err := cfg.RealmBuilder(slog.Default(), schema.MustFor[Frog]()).Build()
	require.NoError(t, err)

	assert.Equal(t, "frogs.realm", rc.Name())
	assert.Equal(t, uint64(2), rc.SchemaVersion())
	assert.True(t, rc.InMemory())
	assert.True(t, rc.DeleteRealmIfMigrationNeeded())
	assert.Equal(t, "sqlite", rc.Backend())

	cfg.Realm.InMemory = false
	cfg.Database.Type = "postgres"
	cfg.Database.DSN = "postgres://localhost/db"

	rc, err = cfg.RealmBuilder(slog.Default(), schema.MustFor[Frog]()).Build()
	require.NoError(t, err)
	assert.Equal(t, "postgres", rc.Backend())
}
