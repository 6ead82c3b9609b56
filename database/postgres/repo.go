package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/database/internal"
	"github.com/sagarc03/realm/schema"
)

const uniqueViolation = "23505"

type repo struct {
	tx    pgx.Tx
	store *store
}

// args collects positional parameters and hands out their placeholders.
type args struct {
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

func (r *repo) Insert(ctx context.Context, t schema.Type, row database.Row) error {
	if err := checkRow(t, row); err != nil {
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}

	var a args
	placeholders := []string{a.add(row.ID)}
	for _, v := range row.Values {
		placeholders = append(placeholders, a.add(v))
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		r.store.table(t.Table), selectColumns(t), strings.Join(placeholders, ", "))

	if _, err := r.tx.Exec(ctx, query, a.values...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", t.Name, database.ErrConflict)
		}
		return fmt.Errorf("insert %s: %w", t.Name, err)
	}

	return nil
}

func (r *repo) Update(ctx context.Context, t schema.Type, row database.Row) error {
	if err := checkRow(t, row); err != nil {
		return fmt.Errorf("update %s: %w", t.Name, err)
	}

	var a args
	assignments := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		assignments[i] = pgx.Identifier{f.Column}.Sanitize() + " = " + a.add(row.Values[i])
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = %s`,
		r.store.table(t.Table),
		strings.Join(assignments, ", "),
		pgx.Identifier{schema.IDColumn}.Sanitize(),
		a.add(row.ID))

	tag, err := r.tx.Exec(ctx, query, a.values...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update %s: %w", t.Name, database.ErrConflict)
		}
		return fmt.Errorf("update %s: %w", t.Name, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: %w", t.Name, database.ErrNotFound)
	}

	return nil
}

func (r *repo) Get(ctx context.Context, t schema.Type, id string) (database.Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		selectColumns(t), r.store.table(t.Table), pgx.Identifier{schema.IDColumn}.Sanitize())

	row, err := scanRow(t, r.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Row{}, fmt.Errorf("get %s: %w", t.Name, database.ErrNotFound)
		}
		return database.Row{}, fmt.Errorf("get %s: %w", t.Name, err)
	}

	return row, nil
}

func (r *repo) Delete(ctx context.Context, t schema.Type, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		r.store.table(t.Table), pgx.Identifier{schema.IDColumn}.Sanitize())

	tag, err := r.tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", t.Name, database.ErrNotFound)
	}

	return nil
}

func (r *repo) DeleteAll(ctx context.Context, t schema.Type) (int64, error) {
	tag, err := r.tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, r.store.table(t.Table)))
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", t.Name, err)
	}
	return tag.RowsAffected(), nil
}

func (r *repo) List(ctx context.Context, t schema.Type, q database.ListQuery) (database.ListResult, error) {
	after, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return database.ListResult{}, fmt.Errorf("list %s: %w: %w", t.Name, database.ErrInvalidQuery, err)
	}

	var a args
	whereSQL, err := buildWhere(t, q.Where, &a)
	if err != nil {
		return database.ListResult{}, fmt.Errorf("list %s: %w", t.Name, err)
	}

	idColumn := pgx.Identifier{schema.IDColumn}.Sanitize()
	if after != "" {
		whereSQL = appendClause(whereSQL, idColumn+" > "+a.add(after))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s`,
		selectColumns(t), r.store.table(t.Table), whereSQL, idColumn)

	if q.Limit > 0 {
		query += " LIMIT " + a.add(q.Limit+1)
	}

	rows, err := r.tx.Query(ctx, query, a.values...)
	if err != nil {
		return database.ListResult{}, fmt.Errorf("list %s: %w", t.Name, err)
	}
	defer rows.Close()

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
		nextCursor = internal.EncodeCursor(items[q.Limit-1].ID)
		items = items[:q.Limit]
	}

	return database.ListResult{Rows: items, NextCursor: nextCursor}, nil
}

func (r *repo) Count(ctx context.Context, t schema.Type, where []database.Condition) (int64, error) {
	var a args
	whereSQL, err := buildWhere(t, where, &a)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.store.table(t.Table), whereSQL)

	var n int64
	if err := r.tx.QueryRow(ctx, query, a.values...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	return n, nil
}

func selectColumns(t schema.Type) string {
	cols := make([]string, 0, len(t.Fields)+1)
	cols = append(cols, pgx.Identifier{schema.IDColumn}.Sanitize())
	for _, f := range t.Fields {
		cols = append(cols, pgx.Identifier{f.Column}.Sanitize())
	}
	return strings.Join(cols, ", ")
}

func checkRow(t schema.Type, row database.Row) error {
	if row.ID == "" {
		return errors.New("empty object id")
	}
	if len(row.Values) != len(t.Fields) {
		return fmt.Errorf("expected %d values, got %d", len(t.Fields), len(row.Values))
	}
	return nil
}

func buildWhere(t schema.Type, where []database.Condition, a *args) (string, error) {
	if err := database.CheckConditions(t, where); err != nil {
		return "", err
	}

	var whereSQL string
	for _, c := range where {
		col := pgx.Identifier{c.Column}.Sanitize()

		switch {
		case c.Op == database.OpPrefix:
			whereSQL = appendClause(whereSQL, col+` LIKE `+a.add(internal.EscapeLikePattern(c.Value.(string)))+` || '%' ESCAPE '\'`)
		case c.Value == nil:
			whereSQL = appendClause(whereSQL, col+" IS NULL")
		default:
			whereSQL = appendClause(whereSQL, col+" = "+a.add(c.Value))
		}
	}

	return whereSQL, nil
}

func appendClause(whereSQL, clause string) string {
	if whereSQL == "" {
		return " WHERE " + clause
	}
	return whereSQL + " AND " + clause
}

func scanRow(t schema.Type, row pgx.Row) (database.Row, error) {
	raw := make([]any, len(t.Fields)+1)
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}

	if err := row.Scan(dest...); err != nil {
		return database.Row{}, err
	}

	id, ok := raw[0].(string)
	if !ok {
		return database.Row{}, fmt.Errorf("scan: unexpected id type %T", raw[0])
	}

	values := make([]any, len(t.Fields))
	for i, f := range t.Fields {
		v, err := fromPostgres(f.Kind, raw[i+1])
		if err != nil {
			return database.Row{}, fmt.Errorf("scan %s: %w", f.Column, err)
		}
		values[i] = v
	}

	return database.Row{ID: id, Values: values}, nil
}

func fromPostgres(k schema.Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch k {
	case schema.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.Int:
		if n, ok := v.(int64); ok {
			return n, nil
		}
	case schema.Float:
		if x, ok := v.(float64); ok {
			return x, nil
		}
	case schema.Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.Time:
		if ts, ok := v.(time.Time); ok {
			return ts.UTC(), nil
		}
	case schema.Bytes:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	}

	return nil, fmt.Errorf("unexpected %T for %s column", v, k)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
