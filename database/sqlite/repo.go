package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/database/internal"
	"github.com/sagarc03/realm/schema"
)

type repo struct {
	tx *sql.Tx
}

func (r *repo) Insert(ctx context.Context, t schema.Type, row database.Row) error {
	args, err := rowArgs(t, row)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: identifiers are validated
		`INSERT INTO %s (%s) VALUES (%s)`,
		internal.QuoteIdentifier(t.Table),
		selectColumns(t),
		strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", "))

	if _, err = r.tx.ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("insert %s: %w", t.Name, database.ErrConflict)
		}
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}

	return nil
}

func (r *repo) Update(ctx context.Context, t schema.Type, row database.Row) error {
	args, err := rowArgs(t, row)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.Name, err)
	}

	assignments := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		assignments[i] = internal.QuoteIdentifier(f.Column) + " = ?"
	}

	query := fmt.Sprintf( //nolint:gosec // G201: identifiers are validated
		`UPDATE %s SET %s WHERE %s = ?`,
		internal.QuoteIdentifier(t.Table),
		strings.Join(assignments, ", "),
		internal.QuoteIdentifier(schema.IDColumn))

	// rowArgs puts the id first; UPDATE binds it last
	args = append(args[1:], args[0])

	result, err := r.tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("update %s: %w", t.Name, database.ErrConflict)
		}
		return fmt.Errorf("update %s: %w", t.Name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", t.Name, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update %s: %w", t.Name, database.ErrNotFound)
	}

	return nil
}

func (r *repo) Get(ctx context.Context, t schema.Type, id string) (database.Row, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: identifiers are validated
		`SELECT %s FROM %s WHERE %s = ?`,
		selectColumns(t),
		internal.QuoteIdentifier(t.Table),
		internal.QuoteIdentifier(schema.IDColumn))

	row, err := scanRow(t, r.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Row{}, fmt.Errorf("get %s: %w", t.Name, database.ErrNotFound)
		}
		return database.Row{}, fmt.Errorf("get %s: %w", t.Name, err)
	}

	return row, nil
}

func (r *repo) Delete(ctx context.Context, t schema.Type, id string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: identifiers are validated
		`DELETE FROM %s WHERE %s = ?`,
		internal.QuoteIdentifier(t.Table),
		internal.QuoteIdentifier(schema.IDColumn))

	result, err := r.tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: rows affected: %w", t.Name, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete %s: %w", t.Name, database.ErrNotFound)
	}

	return nil
}

func (r *repo) DeleteAll(ctx context.Context, t schema.Type) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s`, internal.QuoteIdentifier(t.Table)) //nolint:gosec // table name is validated

	result, err := r.tx.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", t.Name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all %s: rows affected: %w", t.Name, err)
	}

	return rowsAffected, nil
}

func (r *repo) List(ctx context.Context, t schema.Type, q database.ListQuery) (database.ListResult, error) {
	after, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return database.ListResult{}, fmt.Errorf("list %s: %w: %w", t.Name, database.ErrInvalidQuery, err)
	}

	whereSQL, args, err := buildWhere(t, q.Where)
	if err != nil {
		return database.ListResult{}, fmt.Errorf("list %s: %w", t.Name, err)
	}

	if after != "" {
		whereSQL = appendClause(whereSQL, internal.QuoteIdentifier(schema.IDColumn)+" > ?")
		args = append(args, after)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: identifiers are validated
		`SELECT %s FROM %s%s ORDER BY %s`,
		selectColumns(t),
		internal.QuoteIdentifier(t.Table),
		whereSQL,
		internal.QuoteIdentifier(schema.IDColumn))

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit+1)
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return database.ListResult{}, fmt.Errorf("list %s: %w", t.Name, err)
	}
	defer func() { _ = rows.Close() }()

	var items []database.Row
	for rows.Next() {
		row, scanErr := scanRow(t, rows)
		if scanErr != nil {
			return database.ListResult{}, fmt.Errorf("list %s: %w", t.Name, scanErr)
		}
		items = append(items, row)
	}

	if err := rows.Err(); err != nil {
		return database.ListResult{}, fmt.Errorf("list %s: rows: %w", t.Name, err)
	}

	var nextCursor string
	if q.Limit > 0 && len(items) > q.Limit {
		// Cursor points to the last item of the current page
		nextCursor = internal.EncodeCursor(items[q.Limit-1].ID)
		items = items[:q.Limit]
	}

	return database.ListResult{Rows: items, NextCursor: nextCursor}, nil
}

func (r *repo) Count(ctx context.Context, t schema.Type, where []database.Condition) (int64, error) {
	whereSQL, args, err := buildWhere(t, where)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, internal.QuoteIdentifier(t.Table), whereSQL) //nolint:gosec // identifiers are validated

	var n int64
	if err := r.tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	return n, nil
}

func selectColumns(t schema.Type) string {
	cols := make([]string, 0, len(t.Fields)+1)
	cols = append(cols, internal.QuoteIdentifier(schema.IDColumn))
	for _, f := range t.Fields {
		cols = append(cols, internal.QuoteIdentifier(f.Column))
	}
	return strings.Join(cols, ", ")
}

func rowArgs(t schema.Type, row database.Row) ([]any, error) {
	if row.ID == "" {
		return nil, errors.New("empty object id")
	}
	if len(row.Values) != len(t.Fields) {
		return nil, fmt.Errorf("expected %d values, got %d", len(t.Fields), len(row.Values))
	}

	args := make([]any, 0, len(row.Values)+1)
	args = append(args, row.ID)
	for _, v := range row.Values {
		args = append(args, toSQLite(v))
	}
	return args, nil
}

func buildWhere(t schema.Type, where []database.Condition) (string, []any, error) {
	if err := database.CheckConditions(t, where); err != nil {
		return "", nil, err
	}

	var whereSQL string
	var args []any

	for _, c := range where {
		col := internal.QuoteIdentifier(c.Column)

		switch {
		case c.Op == database.OpPrefix:
			// instr is case sensitive, unlike LIKE
			whereSQL = appendClause(whereSQL, "instr("+col+", ?) = 1")
			args = append(args, c.Value)
		case c.Value == nil:
			whereSQL = appendClause(whereSQL, col+" IS NULL")
		default:
			whereSQL = appendClause(whereSQL, col+" = ?")
			args = append(args, toSQLite(c.Value))
		}
	}

	return whereSQL, args, nil
}

func appendClause(whereSQL, clause string) string {
	if whereSQL == "" {
		return " WHERE " + clause
	}
	return whereSQL + " AND " + clause
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(t schema.Type, s scanner) (database.Row, error) {
	raw := make([]any, len(t.Fields)+1)
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}

	if err := s.Scan(dest...); err != nil {
		return database.Row{}, err
	}

	id, ok := raw[0].(string)
	if !ok {
		return database.Row{}, fmt.Errorf("scan: unexpected id type %T", raw[0])
	}

	values := make([]any, len(t.Fields))
	for i, f := range t.Fields {
		v, err := fromSQLite(f.Kind, raw[i+1])
		if err != nil {
			return database.Row{}, fmt.Errorf("scan %s: %w", f.Column, err)
		}
		values[i] = v
	}

	return database.Row{ID: id, Values: values}, nil
}

func toSQLite(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

func fromSQLite(k schema.Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch k {
	case schema.String:
		switch val := v.(type) {
		case string:
			return val, nil
		case []byte:
			return string(val), nil
		}
	case schema.Int:
		if n, ok := v.(int64); ok {
			return n, nil
		}
	case schema.Float:
		switch val := v.(type) {
		case float64:
			return val, nil
		case int64:
			return float64(val), nil
		}
	case schema.Bool:
		if n, ok := v.(int64); ok {
			return n != 0, nil
		}
	case schema.Time:
		if s, ok := v.(string); ok {
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("parse time: %w", err)
			}
			return ts.UTC(), nil
		}
	case schema.Bytes:
		switch val := v.(type) {
		case []byte:
			return append([]byte{}, val...), nil
		case string:
			return []byte(val), nil
		}
	}

	return nil, fmt.Errorf("unexpected %T for %s column", v, k)
}

func isConstraintViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
