package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// IDColumn is the hidden object id column present in every class table.
const IDColumn = "_id"

// TablePrefix is prepended to the snake_case type name to form the table name.
const TablePrefix = "class_"

var (
	// ErrInvalidType is returned when a type descriptor is malformed.
	ErrInvalidType = errors.New("invalid schema type")
	// ErrUnsupportedField is returned when a struct field has no matching Kind.
	ErrUnsupportedField = errors.New("unsupported field type")
)

// Kind is the storage kind of a field.
type Kind int

const (
	String Kind = iota + 1
	Int
	Float
	Bool
	Time
	Bytes
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsValid reports whether k is one of the declared kinds.
func (k Kind) IsValid() bool {
	return k >= String && k <= Bytes
}

// Zero returns the canonical zero value of the kind.
func (k Kind) Zero() any {
	switch k {
	case String:
		return ""
	case Int:
		return int64(0)
	case Float:
		return float64(0)
	case Bool:
		return false
	case Time:
		return time.Time{}.UTC()
	case Bytes:
		return []byte{}
	default:
		return nil
	}
}

// Field describes one persisted struct field.
type Field struct {
	Name       string
	Column     string
	Kind       Kind
	Nullable   bool
	PrimaryKey bool

	index []int
}

// Type describes one object class.
type Type struct {
	Name   string
	Table  string
	Fields []Field

	goType reflect.Type
}

// GoType returns the struct type the descriptor was derived from, or nil for
// hand-built descriptors.
func (t Type) GoType() reflect.Type {
	return t.goType
}

// PrimaryKey returns the primary key field, if the type declares one.
func (t Type) PrimaryKey() (Field, bool) {
	for _, f := range t.Fields {
		if f.PrimaryKey {
			return f, true
		}
	}
	return Field{}, false
}

// Field looks a field up by column name.
func (t Type) Field(column string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the column names in field order.
func (t Type) Columns() []string {
	cols := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		cols[i] = f.Column
	}
	return cols
}

var validIdentifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidIdentifier checks if a table or column name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name) && len(name) <= 63
}

// Validate checks the descriptor is usable by a storage backend.
func (t Type) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("validate type: %w: empty name", ErrInvalidType)
	}

	if !IsValidIdentifier(t.Table) {
		return fmt.Errorf("validate type %s: %w: invalid table name: %s", t.Name, ErrInvalidType, t.Table)
	}

	if len(t.Fields) == 0 {
		return fmt.Errorf("validate type %s: %w: no persisted fields", t.Name, ErrInvalidType)
	}

	seen := make(map[string]struct{}, len(t.Fields))
	primaryKeys := 0

	for _, f := range t.Fields {
		if !IsValidIdentifier(f.Column) {
			return fmt.Errorf("validate type %s: %w: invalid column name: %s", t.Name, ErrInvalidType, f.Column)
		}
		if f.Column == IDColumn {
			return fmt.Errorf("validate type %s: %w: column %s is reserved", t.Name, ErrInvalidType, IDColumn)
		}
		if _, dup := seen[f.Column]; dup {
			return fmt.Errorf("validate type %s: %w: duplicate column: %s", t.Name, ErrInvalidType, f.Column)
		}
		seen[f.Column] = struct{}{}

		if !f.Kind.IsValid() {
			return fmt.Errorf("validate type %s: %w: column %s has invalid kind", t.Name, ErrInvalidType, f.Column)
		}

		if f.PrimaryKey {
			primaryKeys++
			if f.Kind != String && f.Kind != Int {
				return fmt.Errorf("validate type %s: %w: primary key %s must be string or int", t.Name, ErrInvalidType, f.Column)
			}
			if f.Nullable {
				return fmt.Errorf("validate type %s: %w: primary key %s cannot be nullable", t.Name, ErrInvalidType, f.Column)
			}
		}
	}

	if primaryKeys > 1 {
		return fmt.Errorf("validate type %s: %w: more than one primary key", t.Name, ErrInvalidType)
	}

	return nil
}

// For derives a Type from the struct type T.
func For[T any]() (Type, error) {
	return Of(reflect.TypeFor[T]())
}

// MustFor is like For but panics if T cannot be described.
func MustFor[T any]() Type {
	t, err := For[T]()
	if err != nil {
		panic(err)
	}
	return t
}

var timeType = reflect.TypeFor[time.Time]()

// Of derives a Type from a struct type or a pointer to one.
func Of(rt reflect.Type) (Type, error) {
	if rt == nil {
		return Type{}, fmt.Errorf("schema of nil: %w", ErrInvalidType)
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct || rt == timeType {
		return Type{}, fmt.Errorf("schema of %s: %w: not a struct", rt, ErrInvalidType)
	}
	if rt.Name() == "" {
		return Type{}, fmt.Errorf("schema of %s: %w: anonymous struct", rt, ErrInvalidType)
	}

	t := Type{
		Name:   rt.Name(),
		Table:  TablePrefix + snakeCase(rt.Name()),
		goType: rt,
	}

	for i := range rt.NumField() {
		sf := rt.Field(i)
		tag := sf.Tag.Get("realm")
		if tag == "-" || !sf.IsExported() {
			continue
		}
		if sf.Anonymous {
			return Type{}, fmt.Errorf("schema of %s: %w: embedded field %s", rt.Name(), ErrUnsupportedField, sf.Name)
		}

		column, opts := parseTag(tag)
		if column == "" {
			column = snakeCase(sf.Name)
		}

		kind, nullable, err := kindOf(sf.Type)
		if err != nil {
			return Type{}, fmt.Errorf("schema of %s: field %s: %w", rt.Name(), sf.Name, err)
		}

		t.Fields = append(t.Fields, Field{
			Name:       sf.Name,
			Column:     column,
			Kind:       kind,
			Nullable:   nullable,
			PrimaryKey: opts["primarykey"],
			index:      sf.Index,
		})
	}

	if err := t.Validate(); err != nil {
		return Type{}, fmt.Errorf("schema of %s: %w", rt.Name(), err)
	}

	return t, nil
}

func parseTag(tag string) (string, map[string]bool) {
	parts := strings.Split(tag, ",")
	opts := make(map[string]bool, len(parts))
	for _, p := range parts[1:] {
		opts[strings.TrimSpace(p)] = true
	}
	return strings.TrimSpace(parts[0]), opts
}

func kindOf(rt reflect.Type) (Kind, bool, error) {
	if rt.Kind() == reflect.Pointer {
		elem := rt.Elem()
		if elem.Kind() == reflect.Pointer || isBytes(elem) {
			return 0, false, fmt.Errorf("%w: %s", ErrUnsupportedField, rt)
		}
		kind, _, err := kindOf(elem)
		return kind, true, err
	}

	if rt == timeType {
		return Time, false, nil
	}
	if isBytes(rt) {
		return Bytes, true, nil
	}

	switch rt.Kind() {
	case reflect.String:
		return String, false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int, false, nil
	case reflect.Float32, reflect.Float64:
		return Float, false, nil
	case reflect.Bool:
		return Bool, false, nil
	default:
		return 0, false, fmt.Errorf("%w: %s", ErrUnsupportedField, rt)
	}
}

func isBytes(rt reflect.Type) bool {
	return rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8
}

// snakeCase converts a Go identifier to snake_case, keeping acronyms together
// (HTTPServer -> http_server, FrogID -> frog_id).
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
