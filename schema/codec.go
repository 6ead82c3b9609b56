package schema

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// Encode returns the canonical column values of v in field order.
// v must be a value of, or pointer to, the type the descriptor was derived from.
func (t Type) Encode(v any) ([]any, error) {
	rv, err := t.structValue(v, false)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t.Name, err)
	}

	values := make([]any, len(t.Fields))
	for i, f := range t.Fields {
		val, err := f.Normalize(rv.FieldByIndex(f.index).Interface())
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t.Name, err)
		}
		values[i] = val
	}

	return values, nil
}

// Decode fills dst, a pointer to the descriptor's struct type, from canonical
// column values in field order.
func (t Type) Decode(values []any, dst any) error {
	rv, err := t.structValue(dst, true)
	if err != nil {
		return fmt.Errorf("decode %s: %w", t.Name, err)
	}

	if len(values) != len(t.Fields) {
		return fmt.Errorf("decode %s: expected %d values, got %d", t.Name, len(t.Fields), len(values))
	}

	for i, f := range t.Fields {
		if err := f.set(rv.FieldByIndex(f.index), values[i]); err != nil {
			return fmt.Errorf("decode %s: %w", t.Name, err)
		}
	}

	return nil
}

func (t Type) structValue(v any, mustPointer bool) (reflect.Value, error) {
	if t.goType == nil {
		return reflect.Value{}, fmt.Errorf("%w: descriptor has no Go type", ErrInvalidType)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil pointer", ErrInvalidType)
		}
		rv = rv.Elem()
	} else if mustPointer {
		return reflect.Value{}, fmt.Errorf("%w: destination must be a pointer", ErrInvalidType)
	}

	if rv.Type() != t.goType {
		return reflect.Value{}, fmt.Errorf("%w: got %s, want %s", ErrInvalidType, rv.Type(), t.goType)
	}

	return rv, nil
}

// Normalize converts a Go value to the canonical value of the field's kind.
// It accepts the field's own Go type as well as any compatible value, which
// lets query conditions be written with untyped constants.
func (f Field) Normalize(v any) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv = reflect.Value{}
			break
		}
		rv = rv.Elem()
	}

	if !rv.IsValid() || (f.Kind == Bytes && rv.Kind() == reflect.Slice && rv.IsNil()) {
		if !f.Nullable {
			return nil, fmt.Errorf("field %s: nil value for non-nullable %s", f.Column, f.Kind)
		}
		return nil, nil
	}

	switch f.Kind {
	case String:
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case Int:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u := rv.Uint()
			if u > math.MaxInt64 {
				return nil, fmt.Errorf("field %s: value %d overflows int64", f.Column, u)
			}
			return int64(u), nil
		}
	case Float:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		}
	case Bool:
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	case Time:
		if rv.Type() == timeType {
			return rv.Interface().(time.Time).UTC(), nil
		}
	case Bytes:
		if isBytes(rv.Type()) {
			return append([]byte{}, rv.Bytes()...), nil
		}
	}

	return nil, fmt.Errorf("field %s: cannot use %s as %s", f.Column, rv.Type(), f.Kind)
}

func (f Field) set(fv reflect.Value, val any) error {
	if val == nil {
		if !f.Nullable {
			return fmt.Errorf("field %s: null value for non-nullable %s", f.Column, f.Kind)
		}
		fv.SetZero()
		return nil
	}

	target := fv
	var ptr reflect.Value
	if fv.Kind() == reflect.Pointer {
		ptr = reflect.New(fv.Type().Elem())
		target = ptr.Elem()
	}

	mismatch := func() error {
		return fmt.Errorf("field %s: cannot store %T in %s", f.Column, val, target.Type())
	}

	switch f.Kind {
	case String:
		s, ok := val.(string)
		if !ok {
			return mismatch()
		}
		target.SetString(s)
	case Int:
		n, ok := val.(int64)
		if !ok {
			return mismatch()
		}
		switch target.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if n < 0 || target.OverflowUint(uint64(n)) {
				return fmt.Errorf("field %s: value %d overflows %s", f.Column, n, target.Type())
			}
			target.SetUint(uint64(n))
		default:
			if target.OverflowInt(n) {
				return fmt.Errorf("field %s: value %d overflows %s", f.Column, n, target.Type())
			}
			target.SetInt(n)
		}
	case Float:
		x, ok := val.(float64)
		if !ok {
			return mismatch()
		}
		target.SetFloat(x)
	case Bool:
		b, ok := val.(bool)
		if !ok {
			return mismatch()
		}
		target.SetBool(b)
	case Time:
		ts, ok := val.(time.Time)
		if !ok {
			return mismatch()
		}
		target.Set(reflect.ValueOf(ts.UTC()))
	case Bytes:
		b, ok := val.([]byte)
		if !ok {
			return mismatch()
		}
		target.SetBytes(append([]byte{}, b...))
	default:
		return mismatch()
	}

	if ptr.IsValid() {
		fv.Set(ptr)
	}

	return nil
}
