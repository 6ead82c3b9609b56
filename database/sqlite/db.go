package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/database/internal"
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
		if err := validateTableSchema(ctx, s.db, validation.tableName, validation.expectedSchema); err != nil {
			return fmt.Errorf("validate schema %s: %w", validation.tableName, err)
		}
		if err := validateUniqueIndex(ctx, s.db, validation.tableName, validation.uniqueIndex); err != nil {
			return fmt.Errorf("validate schema %s: %w", validation.tableName, err)
		}
	}

	return nil
}

func validateTableSchema(ctx context.Context, db *sql.DB, tableName string, expectedSchema map[string]columnInfo) error {
	if !schema.IsValidIdentifier(tableName) {
		return fmt.Errorf("validate table schema: invalid table name: %s", tableName)
	}

	exists, err := tableExists(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
	}

	if !exists {
		return fmt.Errorf("validate table schema: %w: table %s does not exist", database.ErrSchemaMismatch, tableName)
	}

	actualColumns, err := tableColumns(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("validate table schema: %w", err)
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
func validateUniqueIndex(ctx context.Context, db *sql.DB, tableName, indexName string) error {
	if indexName == "" {
		return nil
	}

	var unique int
	query := `SELECT "unique" FROM pragma_index_list(?) WHERE name = ?`
	err := db.QueryRowContext(ctx, query, tableName, indexName).Scan(&unique)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: table %s: missing unique index %s", database.ErrSchemaMismatch, tableName, indexName)
	}
	if err != nil {
		return fmt.Errorf("check unique index: %w", err)
	}
	if unique != 1 {
		return fmt.Errorf("%w: table %s: index %s is not unique", database.ErrSchemaMismatch, tableName, indexName)
	}

	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]columnInfo, error) {
	// SQLite uses PRAGMA table_info to get column information
	query := fmt.Sprintf(`PRAGMA table_info(%s)`, internal.QuoteIdentifier(tableName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]columnInfo)
	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull int
		var dfltValue sql.NullString
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = columnInfo{
			name:       name,
			dataType:   strings.ToLower(dataType),
			isNullable: notNull == 0,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return columns, nil
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	err := db.QueryRowContext(ctx, query, tableName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
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
