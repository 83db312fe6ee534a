package toml

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// ErrUnknownKey is wrapped by UnmarshalStrict when the input has keys with no matching field
var ErrUnknownKey = errors.New("toml: unknown key")

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// Unmarshal parses TOML data into the value pointed to by v.
// Struct fields match on the `toml` tag, falling back to the field name.
// Keys with no matching field are ignored
func Unmarshal(data []byte, v any) error {
	_, err := unmarshal(data, v)
	return err
}

// UnmarshalStrict is Unmarshal that fails on keys no field consumed
func UnmarshalStrict(data []byte, v any) error {
	unknown, err := unmarshal(data, v)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(unknown, ", "))
	}
	return nil
}

func unmarshal(data []byte, v any) ([]string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("toml: target must be a non-nil pointer, got %T", v)
	}
	tree, err := parse(data)
	if err != nil {
		return nil, err
	}
	d := &decoder{}
	if err := d.value(tree, rv.Elem(), ""); err != nil {
		return nil, err
	}
	return d.unknown, nil
}

type decoder struct {
	unknown []string
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func (d *decoder) value(data any, rv reflect.Value, path string) error {
	if rv.Kind() != reflect.Pointer && rv.CanAddr() && rv.Addr().Type().Implements(textUnmarshalerType) {
		s, ok := data.(string)
		if !ok {
			return typeError(path, data, rv)
		}
		if err := rv.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("toml: %s: %w", path, err)
		}
		return nil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.value(data, rv.Elem(), path)

	case reflect.Struct:
		m, ok := data.(map[string]any)
		if !ok {
			return typeError(path, data, rv)
		}
		return d.structFields(m, rv, path)

	case reflect.Map:
		m, ok := data.(map[string]any)
		if !ok || rv.Type().Key().Kind() != reflect.String {
			return typeError(path, data, rv)
		}
		if rv.IsNil() {
			rv.Set(reflect.MakeMapWithSize(rv.Type(), len(m)))
		}
		for k, v := range m {
			elem := reflect.New(rv.Type().Elem()).Elem()
			if err := d.value(v, elem, join(path, k)); err != nil {
				return err
			}
			rv.SetMapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()), elem)
		}

	case reflect.Slice:
		arr, ok := data.([]any)
		if !ok {
			return typeError(path, data, rv)
		}
		s := reflect.MakeSlice(rv.Type(), len(arr), len(arr))
		for i, v := range arr {
			if err := d.value(v, s.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		rv.Set(s)

	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return typeError(path, data, rv)
		}
		rv.Set(reflect.ValueOf(data))

	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return typeError(path, data, rv)
		}
		rv.SetString(s)

	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return typeError(path, data, rv)
		}
		rv.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := data.(int64)
		if !ok {
			return typeError(path, data, rv)
		}
		if rv.OverflowInt(n) {
			return fmt.Errorf("toml: %s: %d overflows %s", path, n, rv.Type())
		}
		rv.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := data.(int64)
		if !ok {
			return typeError(path, data, rv)
		}
		if n < 0 || rv.OverflowUint(uint64(n)) {
			return fmt.Errorf("toml: %s: %d out of range for %s", path, n, rv.Type())
		}
		rv.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		var f float64
		switch v := data.(type) {
		case float64:
			f = v
		case int64:
			f = float64(v)
		default:
			return typeError(path, data, rv)
		}
		if rv.Kind() == reflect.Float32 && !math.IsInf(f, 0) && !math.IsNaN(f) && rv.OverflowFloat(f) {
			return fmt.Errorf("toml: %s: %g overflows float32", path, f)
		}
		rv.SetFloat(f)

	default:
		return fmt.Errorf("toml: %s: unsupported target type %s", path, rv.Type())
	}
	return nil
}

func (d *decoder) structFields(m map[string]any, rv reflect.Value, path string) error {
	typ := rv.Type()
	seen := make([]string, 0, len(m))
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name := fieldKey(f)
		if name == "-" {
			continue
		}
		v, ok := m[name]
		if !ok {
			continue
		}
		seen = append(seen, name)
		if err := d.value(v, rv.Field(i), join(path, name)); err != nil {
			return err
		}
	}
	for k := range m {
		if !slices.Contains(seen, k) {
			d.unknown = append(d.unknown, join(path, k))
		}
	}
	return nil
}

// fieldKey returns the TOML key of a struct field
func fieldKey(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func typeError(path string, data any, rv reflect.Value) error {
	return fmt.Errorf("toml: %s: cannot decode %s into %s", path, tomlType(data), rv.Type())
}

func tomlType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int64:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "table"
	}
	return fmt.Sprintf("%T", v)
}
