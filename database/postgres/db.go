package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/schema"
)

type columnInfo struct {
	name       string
	dataType   string
	isNullable bool
}

// Validate checks that every class table matches the expected structure.
func (s *store) Validate(ctx context.Context, types []schema.Type) error {
	for _, validation := range getTableValidations(types) {
		if err := validateTableSchema(ctx, s.pool, s.namespace, validation.tableName, validation.expectedSchema); err != nil {
			return fmt.Errorf("validate schema %s: %w", validation.tableName, err)
		}
		if err := validateUniqueIndex(ctx, s.pool, s.namespace, validation.tableName, validation.uniqueIndex); err != nil {
			return fmt.Errorf("validate schema %s: %w", validation.tableName, err)
		}
	}

	return nil
}

func validateTableSchema(ctx context.Context, pool *pgxpool.Pool, namespace, tableName string, expectedSchema map[string]columnInfo) error {
	if !schema.IsValidIdentifier(tableName) {
		return fmt.Errorf("validate table schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, pool, namespace, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}

	if !exists {
		return fmt.Errorf("validate table schema: %w: table %s does not exist", database.ErrSchemaMismatch, tableName)
	}

	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := pool.Query(ctx, query, namespace, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: query columns: %w", err)
	}
	defer rows.Close()

	actualColumns := make(map[string]columnInfo)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return fmt.Errorf("validate table schema: scan column: %w", err)
		}
		actualColumns[name] = columnInfo{
			name:       name,
			dataType:   strings.ToLower(dataType),
			isNullable: nullable == "YES",
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate table schema: rows error: %w", err)
	}

	var missingColumns []string
	var mismatchedColumns []string

	for colName, expected := range expectedSchema {
		actual, exists := actualColumns[colName]
		if !exists {
			missingColumns = append(missingColumns, colName)
			continue
		}

		if actual.dataType != expected.dataType {
			mismatchedColumns = append(mismatchedColumns,
				fmt.Sprintf("%s: expected %s, got %s", colName, expected.dataType, actual.dataType))
		}

		if actual.isNullable != expected.isNullable {
			mismatchedColumns = append(mismatchedColumns,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", colName, expected.isNullable, actual.isNullable))
		}
	}

	if len(missingColumns) > 0 || len(mismatchedColumns) > 0 {
		var errMsg strings.Builder
		fmt.Fprintf(&errMsg, "table %s schema validation failed:\n", tableName)

		if len(missingColumns) > 0 {
			fmt.Fprintf(&errMsg, "  missing columns: %s\n", strings.Join(missingColumns, ", "))
		}

		if len(mismatchedColumns) > 0 {
			fmt.Fprintf(&errMsg, "  mismatched columns:\n")
			for _, msg := range mismatchedColumns {
				fmt.Fprintf(&errMsg, "    - %s\n", msg)
			}
		}

		return fmt.Errorf("%w: %s", database.ErrSchemaMismatch, errMsg.String())
	}

	return nil
}

// validateUniqueIndex checks that the primary key's unique index exists.
// An empty indexName means the type has no primary key.
func validateUniqueIndex(ctx context.Context, pool *pgxpool.Pool, namespace, tableName, indexName string) error {
	if indexName == "" {
		return nil
	}

	// Postgres truncates identifiers to 63 bytes.
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = $1 AND tablename = $2 AND indexname = left($3, 63)
				AND indexdef LIKE 'CREATE UNIQUE INDEX%'
		)
	`
	if err := pool.QueryRow(ctx, query, namespace, tableName, indexName).Scan(&exists); err != nil {
		return fmt.Errorf("check unique index: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: table %s: missing unique index %s", database.ErrSchemaMismatch, tableName, indexName)
	}

	return nil
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, namespace, tableName string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`
	if err := pool.QueryRow(ctx, query, namespace, tableName).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return exists, nil
}

type tableValidation struct {
	tableName      string
	expectedSchema map[string]columnInfo
	uniqueIndex    string
}

func getTableValidations(types []schema.Type) []tableValidation {
	validations := make([]tableValidation, 0, len(types))

	for _, t := range types {
		expected := map[string]columnInfo{
			schema.IDColumn: {schema.IDColumn, "text", false},
		}
		for _, f := range t.Fields {
			expected[f.Column] = columnInfo{f.Column, columnType(f.Kind), f.Nullable}
		}

		var uniqueIndex string
		if pk, ok := t.PrimaryKey(); ok {
			uniqueIndex = uniqueIndexName(t, pk)
		}

		validations = append(validations, tableValidation{
			tableName:      t.Table,
			expectedSchema: expected,
			uniqueIndex:    uniqueIndex,
		})
	}

	return validations
}
