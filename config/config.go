package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/realm"
	"github.com/sagarc03/realm/database"
	realmhttp "github.com/sagarc03/realm/http"
	"github.com/sagarc03/realm/schema"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for the realm CLI.
type Config struct {
	Env      string               `mapstructure:"env" validate:"omitempty,oneof=dev development prod production"`
	Realm    RealmConfig          `mapstructure:"realm"`
	Database database.Config      `mapstructure:"database"`
	Server   ServerConfig         `mapstructure:"server"`
	CORS     realmhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig            `mapstructure:"log"`
}

// ServerConfig holds the realm browser server configuration.
type ServerConfig struct {
	Port        int  `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowWrites bool `mapstructure:"allow_writes"`
}

// RealmConfig selects and describes the realm to open.
type RealmConfig struct {
	Name                    string `mapstructure:"name" validate:"required,realmname"`
	Directory               string `mapstructure:"directory" validate:"required"`
	SchemaVersion           uint64 `mapstructure:"schema_version"`
	InMemory                bool   `mapstructure:"in_memory"`
	DeleteIfMigrationNeeded bool   `mapstructure:"delete_if_migration_needed"`
}

// IsProd reports whether the CLI runs in a production environment.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// RealmBuilder returns a realm builder for types preset from the configuration.
func (c *Config) RealmBuilder(logger *slog.Logger, types ...schema.Type) *realm.Builder {
	b := realm.NewBuilder(types...).
		Name(c.Realm.Name).
		Directory(c.Realm.Directory).
		SchemaVersion(c.Realm.SchemaVersion).
		Logger(logger)

	if c.Realm.InMemory {
		b = b.InMemory()
	}
	if c.Realm.DeleteIfMigrationNeeded {
		b = b.DeleteRealmIfMigrationNeeded()
	}
	if c.Database.Type == database.TypePostgres {
		b = b.Postgres(c.Database.DSN)
	}

	return b
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"name":           "realm.name",
	"dir":            "realm.directory",
	"schema-version": "realm.schema_version",
	"in-memory":      "realm.in_memory",
	"db-type":        "database.type",
	"db-dsn":         "database.dsn",
	"log-level":      "log.level",
	"port":           "server.port",
	"allow-writes":   "server.allow_writes",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("realm.name", realm.DefaultName)
	v.SetDefault("realm.directory", ".")
	v.SetDefault("realm.schema_version", 0)
	v.SetDefault("realm.in_memory", false)
	v.SetDefault("realm.delete_if_migration_needed", false)

	v.SetDefault("database.type", database.TypeSQLite)
	v.SetDefault("database.dsn", "")

	v.SetDefault("server.port", 5709)
	v.SetDefault("server.allow_writes", false)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// newValidator returns a validator that knows realm names and backend rules.
func newValidator() (*validator.Validate, error) {
	validate := validator.New()

	err := validate.RegisterValidation("realmname", func(fl validator.FieldLevel) bool {
		return realm.IsValidName(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register realmname validation: %w", err)
	}

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg, ok := sl.Current().Interface().(Config)
		if !ok {
			return
		}
		if cfg.Database.Type != database.TypePostgres {
			return
		}
		if cfg.Database.DSN == "" {
			sl.ReportError(cfg.Database.DSN, "Database.DSN", "DSN", "required_for_postgres", "")
		}
		if cfg.Realm.InMemory {
			sl.ReportError(cfg.Realm.InMemory, "Realm.InMemory", "InMemory", "excluded_for_postgres", "")
		}
	}, Config{})

	return validate, nil
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("realm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("REALM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate, err := newValidator()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
