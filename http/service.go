package http

import (
	"context"

	"github.com/sagarc03/realm"
)

// Field describes one column of a class.
type Field struct {
	Name       string `json:"name"`
	Column     string `json:"column"`
	Kind       string `json:"kind"`
	Nullable   bool   `json:"nullable,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
}

// Class describes one schema type of the served realm.
type Class struct {
	Name   string  `json:"name"`
	Table  string  `json:"table"`
	Fields []Field `json:"fields"`
}

// RealmService serves a single open realm.
type RealmService struct {
	realm *realm.Realm
}

// NewRealmService wraps r. The caller keeps ownership of r and closes it.
func NewRealmService(r *realm.Realm) *RealmService {
	return &RealmService{realm: r}
}

func (s *RealmService) Info(ctx context.Context) (realm.Info, error) {
	return s.realm.Info(ctx)
}

func (s *RealmService) Classes() []Class {
	types := s.realm.Configuration().Schema()
	classes := make([]Class, 0, len(types))
	for _, t := range types {
		c := Class{Name: t.Name, Table: t.Table, Fields: make([]Field, 0, len(t.Fields))}
		for _, f := range t.Fields {
			c.Fields = append(c.Fields, Field{
				Name:       f.Name,
				Column:     f.Column,
				Kind:       f.Kind.String(),
				Nullable:   f.Nullable,
				PrimaryKey: f.PrimaryKey,
			})
		}
		classes = append(classes, c)
	}
	return classes
}

func (s *RealmService) List(ctx context.Context, class string, q realm.Query) (realm.DynamicResults, error) {
	return realm.FindDynamic(ctx, s.realm, class, q)
}

func (s *RealmService) Get(ctx context.Context, class string, id realm.ObjectID) (realm.DynamicObject, error) {
	return realm.GetDynamic(ctx, s.realm, class, id)
}

func (s *RealmService) Delete(ctx context.Context, class string, id realm.ObjectID) error {
	return s.realm.Write(ctx, func(tx *realm.WriteTx) error {
		return realm.DeleteDynamic(ctx, tx, class, id)
	})
}
