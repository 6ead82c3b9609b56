package realm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/schema"
)

// DefaultName is the realm name used when none is configured.
const DefaultName = "default.realm"

const (
	// namespacePrefix prefixes the postgres schema that holds one realm.
	namespacePrefix    = "realm_"
	maxNamespaceLength = 63
	namespaceHashBytes = 8
)

// Configuration describes one realm. It is immutable once built; the zero
// value is not usable and is rejected by Open.
type Configuration struct {
	name          string
	directory     string
	schema        *schema.Set
	schemaVersion uint64
	inMemory      bool
	deleteIfDirty bool
	backend       string
	dsn           string
	logger        *slog.Logger
}

// Name returns the realm name.
func (c Configuration) Name() string {
	return c.name
}

// Directory returns the directory holding the realm file.
func (c Configuration) Directory() string {
	return c.directory
}

// Path returns the realm file path. It is empty for in-memory and postgres realms.
func (c Configuration) Path() string {
	if c.inMemory || c.backend != database.TypeSQLite {
		return ""
	}
	return filepath.Join(c.directory, c.name)
}

// Schema returns the realm's types in declaration order.
func (c Configuration) Schema() []schema.Type {
	return c.schema.Types()
}

// SchemaVersion returns the configured schema version.
func (c Configuration) SchemaVersion() uint64 {
	return c.schemaVersion
}

// InMemory reports whether the realm lives only in memory.
func (c Configuration) InMemory() bool {
	return c.inMemory
}

// DeleteRealmIfMigrationNeeded reports whether Open may discard stored data
// that cannot be migrated.
func (c Configuration) DeleteRealmIfMigrationNeeded() bool {
	return c.deleteIfDirty
}

// Backend returns the storage backend: "sqlite" or "postgres".
func (c Configuration) Backend() string {
	return c.backend
}

// Namespace returns the postgres schema that holds the realm's tables.
// Names that are not already lowercase identifiers, or that are too long,
// keep a readable prefix and get a hash of the full name appended, so
// distinct names map to distinct schemas.
func (c Configuration) Namespace() string {
	var b strings.Builder
	for _, r := range strings.ToLower(c.name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}

	body := b.String()
	if body == c.name && len(namespacePrefix)+len(body) <= maxNamespaceLength {
		return namespacePrefix + body
	}

	sum := sha256.Sum256([]byte(c.name))
	suffix := "_" + hex.EncodeToString(sum[:namespaceHashBytes])
	if keep := maxNamespaceLength - len(namespacePrefix) - len(suffix); len(body) > keep {
		body = body[:keep]
	}
	return namespacePrefix + body + suffix
}

func (c Configuration) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Builder assembles a Configuration. Its methods may be chained; errors are
// reported by Build.
type Builder struct {
	types []schema.Type
	cfg   Configuration
}

// NewBuilder starts a configuration for a realm holding types.
func NewBuilder(types ...schema.Type) *Builder {
	return &Builder{
		types: types,
		cfg: Configuration{
			name:      DefaultName,
			directory: ".",
			backend:   database.TypeSQLite,
		},
	}
}

// Name sets the realm name, which is also its file name.
func (b *Builder) Name(name string) *Builder {
	b.cfg.name = name
	return b
}

// Directory sets the directory holding the realm file.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.directory = dir
	return b
}

// SchemaVersion sets the schema version. Raising it allows additive migration.
func (b *Builder) SchemaVersion(version uint64) *Builder {
	b.cfg.schemaVersion = version
	return b
}

// InMemory keeps the realm in memory; nothing is written to disk.
func (b *Builder) InMemory() *Builder {
	b.cfg.inMemory = true
	return b
}

// DeleteRealmIfMigrationNeeded lets Open discard stored data whose schema
// cannot be migrated.
func (b *Builder) DeleteRealmIfMigrationNeeded() *Builder {
	b.cfg.deleteIfDirty = true
	return b
}

// Postgres stores the realm in a PostgreSQL schema reached through dsn.
func (b *Builder) Postgres(dsn string) *Builder {
	b.cfg.backend = database.TypePostgres
	b.cfg.dsn = dsn
	return b
}

// Logger sets the logger used by the realm. Defaults to slog.Default().
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.cfg.logger = logger
	return b
}

// Build validates the settings and returns the immutable configuration.
func (b *Builder) Build() (Configuration, error) {
	set, err := schema.NewSet(b.types...)
	if err != nil {
		return Configuration{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	if !IsValidName(b.cfg.name) {
		return Configuration{}, fmt.Errorf("%w: invalid realm name %q", ErrInvalidConfiguration, b.cfg.name)
	}

	if b.cfg.directory == "" {
		return Configuration{}, fmt.Errorf("%w: empty directory", ErrInvalidConfiguration)
	}

	if b.cfg.backend == database.TypePostgres {
		if b.cfg.dsn == "" {
			return Configuration{}, fmt.Errorf("%w: empty postgres dsn", ErrInvalidConfiguration)
		}
		if b.cfg.inMemory {
			return Configuration{}, fmt.Errorf("%w: postgres realms cannot be in memory", ErrInvalidConfiguration)
		}
	}

	cfg := b.cfg
	cfg.schema = set
	return cfg, nil
}
