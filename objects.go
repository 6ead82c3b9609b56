package realm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/schema"
)

// ObjectID identifies one stored object. Ids are time-ordered UUIDs.
type ObjectID string

// Object is a stored value together with its id.
type Object[T any] struct {
	ID    ObjectID
	Value T
}

// Reader is anything objects can be read from: a *Realm, a *ReadTx or a *WriteTx.
// Inside (*Realm).Read or (*Realm).Write pass the transaction, never the realm.
type Reader interface {
	view(ctx context.Context, fn func(database.Tx) error) error
	schemaSet() *schema.Set
}

// ReadTx is a read transaction. It is only valid inside the function passed
// to (*Realm).Read.
type ReadTx struct {
	realm *Realm
	tx    database.Tx
}

func (t *ReadTx) view(_ context.Context, fn func(database.Tx) error) error {
	return fn(t.tx)
}

func (t *ReadTx) schemaSet() *schema.Set {
	return t.realm.schemaSet()
}

// WriteTx is a write transaction. It is only valid inside the function
// passed to (*Realm).Write.
type WriteTx struct {
	ReadTx
}

// Condition filters objects on one field.
type Condition struct {
	field string
	op    database.Op
	value any
}

// Equal matches objects whose field equals value. A nil value matches null
// fields. field is the Go field name or the column name.
func Equal(field string, value any) Condition {
	return Condition{field: field, op: database.OpEqual, value: value}
}

// HasPrefix matches objects whose string field starts with prefix.
func HasPrefix(field, prefix string) Condition {
	return Condition{field: field, op: database.OpPrefix, value: prefix}
}

// Query selects a page of objects ordered by id. A Limit of zero or less
// returns every match.
type Query struct {
	Where  []Condition
	Limit  int
	Cursor string
}

// Results is one page of objects. NextCursor is empty on the last page.
type Results[T any] struct {
	Items      []Object[T]
	NextCursor string
}

func typeOf[T any](r Reader) (schema.Type, error) {
	rt := reflect.TypeFor[T]()
	t, ok := r.schemaSet().Lookup(rt)
	if !ok {
		return schema.Type{}, fmt.Errorf("%w: %s", ErrTypeNotInSchema, rt)
	}
	return t, nil
}

func resolveField(t schema.Type, name string) (schema.Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name || f.Column == name {
			return f, true
		}
	}
	return schema.Field{}, false
}

func conditions(t schema.Type, where []Condition) ([]database.Condition, error) {
	out := make([]database.Condition, 0, len(where))
	for _, c := range where {
		f, ok := resolveField(t, c.field)
		if !ok {
			return nil, fmt.Errorf("query %s: %w: unknown field %s", t.Name, ErrInvalidQuery, c.field)
		}

		value := c.value
		if c.op == database.OpEqual {
			v, err := f.Normalize(c.value)
			if err != nil {
				return nil, fmt.Errorf("query %s: %w: %w", t.Name, ErrInvalidQuery, err)
			}
			value = v
		}

		out = append(out, database.Condition{Column: f.Column, Op: c.op, Value: value})
	}

	if err := database.CheckConditions(t, out); err != nil {
		return nil, fmt.Errorf("query %s: %w", t.Name, err)
	}
	return out, nil
}

func decode[T any](t schema.Type, row database.Row) (Object[T], error) {
	obj := Object[T]{ID: ObjectID(row.ID)}
	if err := t.Decode(row.Values, &obj.Value); err != nil {
		return Object[T]{}, fmt.Errorf("decode %s %s: %w", t.Name, row.ID, err)
	}
	return obj, nil
}

// Get returns the object of type T with the given id, or ErrNotFound.
func Get[T any](ctx context.Context, r Reader, id ObjectID) (T, error) {
	var zero T

	t, err := typeOf[T](r)
	if err != nil {
		return zero, err
	}

	row, err := getRow(ctx, r, t, id)
	if err != nil {
		return zero, err
	}

	obj, err := decode[T](t, row)
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", t.Name, id, err)
	}

	return obj.Value, nil
}

func getRow(ctx context.Context, r Reader, t schema.Type, id ObjectID) (database.Row, error) {
	var row database.Row
	err := r.view(ctx, func(tx database.Tx) error {
		var err error
		row, err = tx.Get(ctx, t, string(id))
		return err
	})
	if err != nil {
		return database.Row{}, fmt.Errorf("get %s %s: %w", t.Name, id, err)
	}
	return row, nil
}

// FindByPrimaryKey returns the object of type T whose primary key equals key,
// or ErrNotFound.
func FindByPrimaryKey[T any](ctx context.Context, r Reader, key any) (Object[T], error) {
	t, err := typeOf[T](r)
	if err != nil {
		return Object[T]{}, err
	}

	pk, ok := t.PrimaryKey()
	if !ok {
		return Object[T]{}, fmt.Errorf("find %s by primary key: %w: no primary key", t.Name, ErrUnsupported)
	}

	res, err := Find[T](ctx, r, Query{Where: []Condition{Equal(pk.Column, key)}, Limit: 1})
	if err != nil {
		return Object[T]{}, err
	}
	if len(res.Items) == 0 {
		return Object[T]{}, fmt.Errorf("find %s by primary key %v: %w", t.Name, key, ErrNotFound)
	}

	return res.Items[0], nil
}

// Find returns one page of objects of type T matching q.
func Find[T any](ctx context.Context, r Reader, q Query) (Results[T], error) {
	t, err := typeOf[T](r)
	if err != nil {
		return Results[T]{}, err
	}

	page, err := listRows(ctx, r, t, q)
	if err != nil {
		return Results[T]{}, err
	}

	res := Results[T]{
		Items:      make([]Object[T], 0, len(page.Rows)),
		NextCursor: page.NextCursor,
	}
	for _, row := range page.Rows {
		obj, err := decode[T](t, row)
		if err != nil {
			return Results[T]{}, fmt.Errorf("find %s: %w", t.Name, err)
		}
		res.Items = append(res.Items, obj)
	}

	return res, nil
}

func listRows(ctx context.Context, r Reader, t schema.Type, q Query) (database.ListResult, error) {
	where, err := conditions(t, q.Where)
	if err != nil {
		return database.ListResult{}, err
	}

	var page database.ListResult
	err = r.view(ctx, func(tx database.Tx) error {
		var err error
		page, err = tx.List(ctx, t, database.ListQuery{Where: where, Limit: q.Limit, Cursor: q.Cursor})
		return err
	})
	if err != nil {
		return database.ListResult{}, fmt.Errorf("find %s: %w", t.Name, err)
	}

	return page, nil
}

// All returns every object of type T in id order.
func All[T any](ctx context.Context, r Reader) ([]Object[T], error) {
	res, err := Find[T](ctx, r, Query{})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Count returns the number of objects of type T matching where.
func Count[T any](ctx context.Context, r Reader, where ...Condition) (int64, error) {
	t, err := typeOf[T](r)
	if err != nil {
		return 0, err
	}

	conds, err := conditions(t, where)
	if err != nil {
		return 0, err
	}

	var n int64
	err = r.view(ctx, func(tx database.Tx) error {
		n, err = tx.Count(ctx, t, conds)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	return n, nil
}

// Insert stores v as a new object and returns its id. A duplicate primary
// key fails with ErrConflict.
func Insert[T any](ctx context.Context, tx *WriteTx, v *T) (ObjectID, error) {
	t, err := typeOf[T](tx)
	if err != nil {
		return "", err
	}

	values, err := t.Encode(v)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", t.Name, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("insert %s: generate id: %w", t.Name, err)
	}

	if err := tx.tx.Insert(ctx, t, database.Row{ID: id.String(), Values: values}); err != nil {
		return "", fmt.Errorf("insert %s: %w", t.Name, err)
	}

	return ObjectID(id.String()), nil
}

// Update replaces the object with the given id by v.
func Update[T any](ctx context.Context, tx *WriteTx, id ObjectID, v *T) error {
	t, err := typeOf[T](tx)
	if err != nil {
		return err
	}

	values, err := t.Encode(v)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", t.Name, id, err)
	}

	if err := tx.tx.Update(ctx, t, database.Row{ID: string(id), Values: values}); err != nil {
		return fmt.Errorf("update %s %s: %w", t.Name, id, err)
	}

	return nil
}

// Delete removes the object of type T with the given id.
func Delete[T any](ctx context.Context, tx *WriteTx, id ObjectID) error {
	t, err := typeOf[T](tx)
	if err != nil {
		return err
	}
	return deleteRow(ctx, tx, t, id)
}

func deleteRow(ctx context.Context, tx *WriteTx, t schema.Type, id ObjectID) error {
	if err := tx.tx.Delete(ctx, t, string(id)); err != nil {
		return fmt.Errorf("delete %s %s: %w", t.Name, id, err)
	}
	return nil
}

// DeleteAll removes every object of type T and returns how many were removed.
func DeleteAll[T any](ctx context.Context, tx *WriteTx) (int64, error) {
	t, err := typeOf[T](tx)
	if err != nil {
		return 0, err
	}

	n, err := tx.tx.DeleteAll(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", t.Name, err)
	}

	return n, nil
}
