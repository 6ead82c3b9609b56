package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/schema"
)

func columnType(k schema.Kind) string {
	switch k {
	case schema.Int:
		return "bigint"
	case schema.Float:
		return "double precision"
	case schema.Bool:
		return "boolean"
	case schema.Time:
		return "timestamp with time zone"
	case schema.Bytes:
		return "bytea"
	default:
		return "text"
	}
}

func defaultLiteral(k schema.Kind) string {
	switch k {
	case schema.Int:
		return "0"
	case schema.Float:
		return "0"
	case schema.Bool:
		return "FALSE"
	case schema.Time:
		return "'0001-01-01 00:00:00+00'"
	case schema.Bytes:
		return `'\x'::bytea`
	default:
		return "''"
	}
}

func columnDefinition(f schema.Field) string {
	def := pgx.Identifier{f.Column}.Sanitize() + " " + strings.ToUpper(columnType(f.Kind))
	if !f.Nullable {
		def += " NOT NULL"
	}
	return def
}

// Migrate creates the namespace, the metadata table and every class table,
// adding columns missing from tables created by an older schema.
func (s *store) Migrate(ctx context.Context, types []schema.Type) error {
	if err := s.createMetadataTable(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, t := range types {
		if err := s.createClassTable(ctx, t); err != nil {
			return fmt.Errorf("migrate up %s: %w", t.Table, err)
		}
	}

	return nil
}

// Drop removes the realm's namespace with every table in it.
func (s *store) Drop(ctx context.Context) error {
	sql := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pgx.Identifier{s.namespace}.Sanitize())
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	return nil
}

func (s *store) createMetadataTable(ctx context.Context) error {
	sql := fmt.Sprintf(`
		CREATE SCHEMA IF NOT EXISTS %s;

		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`, pgx.Identifier{s.namespace}.Sanitize(), s.table(database.MetadataTable))

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}
	return nil
}

func (s *store) createClassTable(ctx context.Context, t schema.Type) error {
	quotedTable := s.table(t.Table)

	columns := []string{pgx.Identifier{schema.IDColumn}.Sanitize() + " TEXT PRIMARY KEY"}
	for _, f := range t.Fields {
		columns = append(columns, columnDefinition(f))
	}

	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, quotedTable, strings.Join(columns, ", "))
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	for _, f := range t.Fields {
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s`, quotedTable, columnDefinition(f))
		if !f.Nullable {
			alter += " DEFAULT " + defaultLiteral(f.Kind)
		}
		if _, err := s.pool.Exec(ctx, alter); err != nil {
			return fmt.Errorf("add column %s: %w", f.Column, err)
		}
	}

	if pk, ok := t.PrimaryKey(); ok {
		indexName := pgx.Identifier{uniqueIndexName(t, pk)}.Sanitize()
		sql = fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)`,
			indexName, quotedTable, pgx.Identifier{pk.Column}.Sanitize())

		if _, err := s.pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create primary key index: %w", err)
		}
	}

	return nil
}

func uniqueIndexName(t schema.Type, pk schema.Field) string {
	return fmt.Sprintf("uniq_%s_%s", t.Table, pk.Column)
}
