// Package postgres implements the realm storage backend on PostgreSQL.
//
// Every realm is isolated in its own Postgres schema (the namespace), so one
// server database can host many realms side by side.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/schema"
)

func init() {
	database.Register(database.TypePostgres, func(ctx context.Context, cfg database.Config) (database.Database, error) {
		return Connect(ctx, cfg.DSN, cfg.Namespace)
	})
}

type store struct {
	pool      *pgxpool.Pool
	namespace string
}

// Connect establishes a connection pool to PostgreSQL for the realm stored in namespace.
func Connect(ctx context.Context, dsn, namespace string) (*store, error) {
	if dsn == "" {
		return nil, errors.New("connect postgres: empty dsn")
	}
	if !schema.IsValidIdentifier(namespace) {
		return nil, fmt.Errorf("connect postgres: invalid namespace: %q", namespace)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &store{
		pool:      pool,
		namespace: namespace,
	}, nil
}

func (s *store) table(name string) string {
	return pgx.Identifier{s.namespace, name}.Sanitize()
}

// Ping verifies the database connection is alive.
func (s *store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Metadata returns every realm_metadata entry, or an empty map for a fresh namespace.
func (s *store) Metadata(ctx context.Context) (map[string]string, error) {
	meta := make(map[string]string)

	exists, err := tableExists(ctx, s.pool, s.namespace, database.MetadataTable)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if !exists {
		return meta, nil
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT key, value FROM %s`, s.table(database.MetadataTable)))
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	defer rows.Close()

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

// SetMetadata stores one metadata entry, creating the namespace and table if needed.
func (s *store) SetMetadata(ctx context.Context, key, value string) error {
	if err := s.createMetadataTable(ctx); err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		s.table(database.MetadataTable))

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}

	return nil
}

// Read runs fn in a read-only transaction.
func (s *store) Read(ctx context.Context, fn func(database.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	return fn(&repo{tx: tx, store: s})
}

// Write runs fn in a transaction committed only when fn returns nil.
func (s *store) Write(ctx context.Context, fn func(database.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&repo{tx: tx, store: s})
	})
}

// CopyTo is not available for server-side realms.
func (s *store) CopyTo(_ context.Context, _ string) error {
	return fmt.Errorf("copy postgres realm: %w", database.ErrUnsupported)
}

// Close closes the database connection pool.
func (s *store) Close() error {
	s.pool.Close()
	return nil
}
