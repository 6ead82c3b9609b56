package realm

import (
	"context"
	"fmt"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/schema"
)

// DynamicObject is an object read by class name, without its Go type.
// Fields are keyed by column name and hold canonical values.
type DynamicObject struct {
	ID     ObjectID       `json:"id"`
	Class  string         `json:"class"`
	Fields map[string]any `json:"fields"`
}

// DynamicResults is one page of dynamic objects.
type DynamicResults struct {
	Items      []DynamicObject `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func classOf(r Reader, class string) (schema.Type, error) {
	t, ok := r.schemaSet().ByName(class)
	if !ok {
		return schema.Type{}, fmt.Errorf("%w: %s", ErrTypeNotInSchema, class)
	}
	return t, nil
}

func dynamicObject(t schema.Type, row database.Row) DynamicObject {
	fields := make(map[string]any, len(t.Fields))
	for i, f := range t.Fields {
		fields[f.Column] = row.Values[i]
	}
	return DynamicObject{ID: ObjectID(row.ID), Class: t.Name, Fields: fields}
}

// GetDynamic returns the object of the named class with the given id.
func GetDynamic(ctx context.Context, r Reader, class string, id ObjectID) (DynamicObject, error) {
	t, err := classOf(r, class)
	if err != nil {
		return DynamicObject{}, err
	}

	row, err := getRow(ctx, r, t, id)
	if err != nil {
		return DynamicObject{}, err
	}

	return dynamicObject(t, row), nil
}

// FindDynamic returns one page of objects of the named class matching q.
func FindDynamic(ctx context.Context, r Reader, class string, q Query) (DynamicResults, error) {
	t, err := classOf(r, class)
	if err != nil {
		return DynamicResults{}, err
	}

	page, err := listRows(ctx, r, t, q)
	if err != nil {
		return DynamicResults{}, err
	}

	res := DynamicResults{
		Items:      make([]DynamicObject, 0, len(page.Rows)),
		NextCursor: page.NextCursor,
	}
	for _, row := range page.Rows {
		res.Items = append(res.Items, dynamicObject(t, row))
	}

	return res, nil
}

// DeleteDynamic removes the object of the named class with the given id.
func DeleteDynamic(ctx context.Context, tx *WriteTx, class string, id ObjectID) error {
	t, err := classOf(tx, class)
	if err != nil {
		return err
	}
	return deleteRow(ctx, tx, t, id)
}
