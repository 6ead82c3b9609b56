// Package sqlite implements the realm storage backend on SQLite.
//
// Realm files are opened in WAL mode with a busy timeout so that readers in
// other processes do not block the writer. The connection pool is limited to
// one connection: SQLite allows a single writer, and in-memory realms only
// exist for the lifetime of their connection.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/database/internal"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const filePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

func init() {
	database.Register(database.TypeSQLite, func(ctx context.Context, cfg database.Config) (database.Database, error) {
		return Connect(ctx, cfg.DSN)
	})
}

// store provides SQLite database operations.
type store struct {
	db *sql.DB
}

// Connect opens the SQLite database at dsn, a file path or MemoryDSN.
func Connect(ctx context.Context, dsn string) (*store, error) {
	if dsn == "" {
		return nil, errors.New("connect sqlite: empty dsn")
	}

	db, err := sql.Open("sqlite", driverDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &store{db: db}, nil
}

func driverDSN(dsn string) string {
	if dsn == MemoryDSN || strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?" + filePragmas
}

// Ping verifies the database connection is alive.
func (s *store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Metadata returns every realm_metadata entry, or an empty map for a fresh file.
func (s *store) Metadata(ctx context.Context) (map[string]string, error) {
	meta := make(map[string]string)

	exists, err := tableExists(ctx, s.db, database.MetadataTable)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if !exists {
		return meta, nil
	}

	query := fmt.Sprintf(`SELECT key, value FROM %s`, internal.QuoteIdentifier(database.MetadataTable))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("metadata: scan: %w", err)
		}
		meta[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata: rows: %w", err)
	}

	return meta, nil
}

// SetMetadata stores one metadata entry, creating the table if needed.
func (s *store) SetMetadata(ctx context.Context, key, value string) error {
	if err := createMetadataTable(ctx, s.db); err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is a constant
		`INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		internal.QuoteIdentifier(database.MetadataTable))

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}

	return nil
}

// Read runs fn in a transaction that is always rolled back.
func (s *store) Read(ctx context.Context, fn func(database.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(&repo{tx: tx})
}

// Write runs fn in a transaction committed only when fn returns nil.
func (s *store) Write(ctx context.Context, fn func(database.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}

	if err := fn(&repo{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// CopyTo writes a vacuumed copy of the database to path, which must not exist.
func (s *store) CopyTo(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("copy to %s: %w", path, err)
	}
	return nil
}

// Close closes the database connection.
func (s *store) Close() error {
	return s.db.Close()
}
