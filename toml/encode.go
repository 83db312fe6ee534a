package toml

import (
	"bytes"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// Marshal returns the TOML encoding of a struct.
//
// Fields are written in declaration order: scalars and arrays first, then
// nested structs as [tables]. A `comment` struct tag is written as a
// comment line above the key. Nil pointers are skipped
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("toml: cannot marshal nil pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("toml: root must be a struct, got %s", rv.Kind())
	}

	var buf bytes.Buffer
	if err := encodeTable(&buf, rv, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type field struct {
	key     string
	comment string
	val     reflect.Value
}

func encodeTable(buf *bytes.Buffer, rv reflect.Value, prefix string) error {
	var scalars, tables []field
	typ := rv.Type()
	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		key := fieldKey(f)
		if key == "-" {
			continue
		}
		val := rv.Field(i)
		if val.Kind() == reflect.Pointer || val.Kind() == reflect.Map {
			if val.IsNil() {
				continue
			}
		}
		if val.Kind() == reflect.Pointer {
			val = val.Elem()
		}
		fd := field{key: key, comment: f.Tag.Get("comment"), val: val}
		if val.Kind() == reflect.Struct && !val.Type().Implements(textMarshalerType) {
			tables = append(tables, fd)
		} else {
			scalars = append(scalars, fd)
		}
	}

	for _, f := range scalars {
		writeComment(buf, f.comment)
		buf.WriteString(quoteKey(f.key))
		buf.WriteString(" = ")
		if err := encodeValue(buf, f.val); err != nil {
			return fmt.Errorf("toml: %s: %w", join(prefix, f.key), err)
		}
		buf.WriteByte('\n')
	}

	for _, f := range tables {
		name := join(prefix, quoteKey(f.key))
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		writeComment(buf, f.comment)
		buf.WriteString("[" + name + "]\n")
		if err := encodeTable(buf, f.val, name); err != nil {
			return err
		}
	}
	return nil
}

func writeComment(buf *bytes.Buffer, c string) {
	if c == "" {
		return
	}
	for line := range strings.SplitSeq(c, "\n") {
		buf.WriteString("# " + line + "\n")
	}
}

func encodeValue(buf *bytes.Buffer, v reflect.Value) error {
	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return err
		}
		buf.WriteString(quoteString(string(text)))
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.String:
		buf.WriteString(quoteString(v.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		buf.WriteString(formatFloat(v.Float()))
	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := range v.Len() {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := encodeValue(buf, v.Index(i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type %s", v.Type().Key())
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		buf.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(" " + quoteKey(k.String()) + " = ")
			if err := encodeValue(buf, v.MapIndex(k)); err != nil {
				return err
			}
		}
		buf.WriteString(" }")
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return fmt.Errorf("nil value")
		}
		return encodeValue(buf, v.Elem())
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// quoteKey quotes keys the lexer would not read back as a single bare key
func quoteKey(s string) string {
	if s == "" || looksNumeric(s) || s == "true" || s == "false" {
		return quoteString(s)
	}
	for i := 0; i < len(s); i++ {
		if !isBareChar(s[i]) {
			return quoteString(s)
		}
	}
	return s
}
