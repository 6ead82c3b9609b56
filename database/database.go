package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sagarc03/realm/schema"
)

var (
	// ErrNotFound is returned when an object id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a primary key or unique constraint.
	ErrConflict = errors.New("conflict")
	// ErrUnsupported is returned when a backend cannot perform an operation.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrSchemaMismatch is returned when stored tables do not match the expected schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidQuery is returned for malformed conditions or cursors.
	ErrInvalidQuery = errors.New("invalid query")
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Metadata keys stored in the realm_metadata table.
const (
	MetadataTable         = "realm_metadata"
	MetadataRealmName     = "realm_name"
	MetadataSchemaVersion = "schema_version"
	MetadataCreatedAt     = "created_at"
)

// Config holds the configuration for connecting to a realm backend.
type Config struct {
	// Type specifies the backend type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name: a file path or ":memory:" for sqlite, a connection string for postgres
	DSN string `mapstructure:"dsn"`
	// Namespace is the postgres schema holding the realm's tables; ignored by sqlite
	Namespace string `mapstructure:"namespace"`
}

// Row is one stored object: its hidden id and canonical values in field order.
type Row struct {
	ID     string
	Values []any
}

// Op is a condition operator.
type Op int

const (
	// OpEqual matches column = value, or IS NULL for a nil value.
	OpEqual Op = iota
	// OpPrefix matches string columns starting with value.
	OpPrefix
)

// Condition filters rows on one column. Value must be canonical for the column's kind.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

// ListQuery selects rows ordered by id. A Limit of zero or less returns every match.
type ListQuery struct {
	Where  []Condition
	Limit  int
	Cursor string
}

// ListResult is one page of rows. NextCursor is empty on the last page.
type ListResult struct {
	Rows       []Row
	NextCursor string
}

// Tx is a read or write transaction scoped to one Read or Write call.
type Tx interface {
	Insert(ctx context.Context, t schema.Type, row Row) error
	Update(ctx context.Context, t schema.Type, row Row) error
	Get(ctx context.Context, t schema.Type, id string) (Row, error)
	Delete(ctx context.Context, t schema.Type, id string) error
	DeleteAll(ctx context.Context, t schema.Type) (int64, error)
	List(ctx context.Context, t schema.Type, q ListQuery) (ListResult, error)
	Count(ctx context.Context, t schema.Type, where []Condition) (int64, error)
}

// Database is an open connection to a realm backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates missing tables and adds missing columns. Existing data is kept.
	Migrate(ctx context.Context, types []schema.Type) error
	// Validate checks stored tables against types; mismatches wrap ErrSchemaMismatch.
	Validate(ctx context.Context, types []schema.Type) error
	// Drop removes every class table and the metadata table.
	Drop(ctx context.Context) error
	// Metadata returns the realm metadata; empty for a fresh realm.
	Metadata(ctx context.Context) (map[string]string, error)
	// SetMetadata stores one metadata entry.
	SetMetadata(ctx context.Context, key, value string) error
	// Read runs fn in a transaction that is always rolled back.
	Read(ctx context.Context, fn func(Tx) error) error
	// Write runs fn in a transaction committed only when fn returns nil.
	Write(ctx context.Context, fn func(Tx) error) error
	// CopyTo writes a compacted copy of the realm to path.
	CopyTo(ctx context.Context, path string) error
	// Close releases the connection.
	Close() error
}

// Opener opens a backend connection.
type Opener func(ctx context.Context, cfg Config) (Database, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// Register makes a backend available to Connect under name.
// It panics if called twice with the same name or with a nil opener.
func Register(name string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()

	if open == nil {
		panic("database: register opener is nil")
	}
	if _, dup := openers[name]; dup {
		panic("database: register called twice for backend " + name)
	}
	openers[name] = open
}

// Backends returns the sorted names of registered backends.
func Backends() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()

	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connect opens a connection to the configured backend.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	openersMu.RLock()
	open, ok := openers[cfg.Type]
	openersMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Type, err)
	}

	return db, nil
}

// CheckConditions checks that every condition names a column of t (or the id
// column) and that prefix conditions target string columns.
func CheckConditions(t schema.Type, where []Condition) error {
	for _, c := range where {
		if c.Column == schema.IDColumn {
			if c.Op != OpEqual {
				return fmt.Errorf("%w: condition on %s: only equality is supported", ErrInvalidQuery, schema.IDColumn)
			}
			continue
		}

		f, ok := t.Field(c.Column)
		if !ok {
			return fmt.Errorf("%w: unknown column %s for %s", ErrInvalidQuery, c.Column, t.Name)
		}

		switch c.Op {
		case OpEqual:
		case OpPrefix:
			if f.Kind != schema.String {
				return fmt.Errorf("%w: condition on %s: prefix requires a string column", ErrInvalidQuery, c.Column)
			}
			if _, ok := c.Value.(string); !ok {
				return fmt.Errorf("%w: condition on %s: prefix value must be a string", ErrInvalidQuery, c.Column)
			}
		default:
			return fmt.Errorf("%w: condition on %s: unknown operator %d", ErrInvalidQuery, c.Column, c.Op)
		}
	}
	return nil
}
