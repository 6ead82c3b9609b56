package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/database/internal"
	"github.com/sagarc03/realm/schema"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns one migration per class table
func getTableMigrations(types []schema.Type) []TableMigration {
	migrations := make([]TableMigration, 0, len(types))

	for _, t := range types {
		migrations = append(migrations, TableMigration{
			TableName: t.Table,
			Up:        createClassTable(t),
			Down:      dropTable(t.Table),
		})
	}

	return migrations
}

// Migrate creates the metadata table and every class table, adding columns
// that are missing from tables created by an older schema.
func (s *store) Migrate(ctx context.Context, types []schema.Type) error {
	if err := createMetadataTable(ctx, s.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, migration := range getTableMigrations(types) {
		if err := migration.Up(ctx, s.db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// Drop removes every class table and the metadata table.
func (s *store) Drop(ctx context.Context) error {
	tables, err := classTables(ctx, s.db)
	if err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	tables = append(tables, database.MetadataTable)

	for i := len(tables) - 1; i >= 0; i-- {
		if err := dropTable(tables[i])(ctx, s.db); err != nil {
			return fmt.Errorf("drop %s: %w", tables[i], err)
		}
	}

	return nil
}

func columnType(k schema.Kind) string {
	switch k {
	case schema.Int, schema.Bool:
		return "integer"
	case schema.Float:
		return "real"
	case schema.Bytes:
		return "blob"
	default:
		return "text"
	}
}

func defaultLiteral(k schema.Kind) string {
	switch k {
	case schema.Int, schema.Bool:
		return "0"
	case schema.Float:
		return "0.0"
	case schema.Bytes:
		return "X''"
	case schema.Time:
		return "'0001-01-01T00:00:00Z'"
	default:
		return "''"
	}
}

func columnDefinition(f schema.Field) string {
	def := internal.QuoteIdentifier(f.Column) + " " + strings.ToUpper(columnType(f.Kind))
	if !f.Nullable {
		def += " NOT NULL"
	}
	return def
}

func createMetadataTable(ctx context.Context, db *sql.DB) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL
		)
	`, internal.QuoteIdentifier(database.MetadataTable))

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}
	return nil
}

func createClassTable(t schema.Type) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := internal.QuoteIdentifier(t.Table)

		columns := []string{internal.QuoteIdentifier(schema.IDColumn) + " TEXT NOT NULL PRIMARY KEY"}
		for _, f := range t.Fields {
			columns = append(columns, columnDefinition(f))
		}

		createTableSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, quotedTable, strings.Join(columns, ", "))
		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		actual, err := tableColumns(ctx, db, t.Table)
		if err != nil {
			return err
		}

		// SQLite requires a default for NOT NULL columns added to a populated table
		for _, f := range t.Fields {
			if _, ok := actual[f.Column]; ok {
				continue
			}

			alterSQL := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s`, quotedTable, columnDefinition(f))
			if !f.Nullable {
				alterSQL += " DEFAULT " + defaultLiteral(f.Kind)
			}

			if _, err := db.ExecContext(ctx, alterSQL); err != nil {
				return fmt.Errorf("add column %s: %w", f.Column, err)
			}
		}

		if pk, ok := t.PrimaryKey(); ok {
			indexName := internal.QuoteIdentifier(uniqueIndexName(t, pk))
			indexSQL := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)`,
				indexName, quotedTable, internal.QuoteIdentifier(pk.Column))

			if _, err := db.ExecContext(ctx, indexSQL); err != nil {
				return fmt.Errorf("create primary key index: %w", err)
			}
		}

		return nil
	}
}

func uniqueIndexName(t schema.Type, pk schema.Field) string {
	return fmt.Sprintf("uniq_%s_%s", t.Table, pk.Column)
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := internal.QuoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}

func classTables(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name LIKE ? ESCAPE '\' ORDER BY name`

	rows, err := db.QueryContext(ctx, query, internal.EscapeLikePattern(schema.TablePrefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("list class tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list class tables: scan: %w", err)
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list class tables: rows: %w", err)
	}

	return tables, nil
}
