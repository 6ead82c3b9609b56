package schema

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrEmptySet is returned when a schema set has no types.
var ErrEmptySet = errors.New("schema set is empty")

// Set is an immutable collection of types with unique names and tables.
type Set struct {
	types  []Type
	byGo   map[reflect.Type]int
	byName map[string]int
}

// NewSet validates types and returns them as a Set.
func NewSet(types ...Type) (*Set, error) {
	if len(types) == 0 {
		return nil, ErrEmptySet
	}

	s := &Set{
		types:  make([]Type, 0, len(types)),
		byGo:   make(map[reflect.Type]int, len(types)),
		byName: make(map[string]int, len(types)),
	}
	tables := make(map[string]string, len(types))

	for _, t := range types {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate type name %s", ErrInvalidType, t.Name)
		}
		if other, dup := tables[t.Table]; dup {
			return nil, fmt.Errorf("%w: types %s and %s share table %s", ErrInvalidType, other, t.Name, t.Table)
		}

		tables[t.Table] = t.Name
		s.byName[t.Name] = len(s.types)
		if t.goType != nil {
			s.byGo[t.goType] = len(s.types)
		}
		s.types = append(s.types, t)
	}

	return s, nil
}

// Types returns a copy of the types in declaration order.
func (s *Set) Types() []Type {
	if s == nil {
		return nil
	}
	out := make([]Type, len(s.types))
	copy(out, s.types)
	return out
}

// Len returns the number of types.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.types)
}

// Lookup finds the type registered for a Go struct type.
func (s *Set) Lookup(rt reflect.Type) (Type, bool) {
	if s == nil {
		return Type{}, false
	}
	i, ok := s.byGo[rt]
	if !ok {
		return Type{}, false
	}
	return s.types[i], true
}

// ByName finds a type by its name.
func (s *Set) ByName(name string) (Type, bool) {
	if s == nil {
		return Type{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Type{}, false
	}
	return s.types[i], true
}
