package value

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Kind classifies a value graph node
type Kind int

const (
	Null Kind = iota
	Boolean
	Number
	String
	Date
	List
	MapKind
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Date:
		return "date"
	case List:
		return "list"
	case MapKind:
		return "map"
	case Object:
		return "object"
	}
	return "unknown"
}

var timeType = reflect.TypeOf(time.Time{})

// KindOf reports the value graph kind of v.
// Pointers are followed; a nil pointer is Null.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case string:
		return String
	case json.Number:
		return Number
	case time.Time, *time.Time:
		if t, ok := v.(*time.Time); ok && t == nil {
			return Null
		}
		return Date
	case *Map:
		if v.(*Map) == nil {
			return Null
		}
		return MapKind
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Null
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Boolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return Number
	case reflect.String:
		return String
	case reflect.Slice:
		if rv.IsNil() {
			return Null
		}
		return List
	case reflect.Array:
		return List
	case reflect.Map:
		if rv.IsNil() {
			return Null
		}
		return Object
	case reflect.Struct:
		if rv.Type() == timeType {
			return Date
		}
		return Object
	}
	return Null
}

// Float converts a Number node to float64
func Float(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Int converts an integer Number node to int64 without going through float64.
// Unsigned values above math.MaxInt64 and floats report false.
func Int(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		return i, err == nil
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u), true
		}
	}
	return 0, false
}

// Time converts a Date node to time.Time
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

// Len returns the number of entries of a List, Map or Object node
func Len(v any) int {
	switch KindOf(v) {
	case List:
		return reflect.Indirect(reflect.ValueOf(v)).Len()
	case MapKind:
		return v.(*Map).Len()
	case Object:
		return len(Fields(v))
	}
	return 0
}

// Items returns the entries of a List node
func Items(v any) []any {
	if items, ok := v.([]any); ok {
		return items
	}
	if KindOf(v) != List {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// Field is one key/value entry of a Map or Object node
type Field struct {
	Key   string
	Value any
}

// Fields returns the entries of a Map or Object node in iteration order.
// Map nodes keep insertion order, plain Go maps are sorted by key and
// structs follow field declaration order.
func Fields(v any) []Field {
	if m, ok := v.(*Map); ok {
		return m.Fields()
	}
	if m, ok := v.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, len(keys))
		for i, k := range keys {
			fields[i] = Field{Key: k, Value: m[k]}
		}
		return fields
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		fields := make([]Field, len(keys))
		for i, k := range keys {
			fields[i] = Field{Key: k.String(), Value: rv.MapIndex(k).Interface()}
		}
		return fields
	case reflect.Struct:
		if rv.Type() == timeType {
			return nil
		}
		typ := rv.Type()
		var fields []Field
		for i := 0; i < rv.NumField(); i++ {
			sf := typ.Field(i)
			if !sf.IsExported() {
				continue
			}
			name := fieldName(sf)
			if name == "-" {
				continue
			}
			fields = append(fields, Field{Key: name, Value: rv.Field(i).Interface()})
		}
		return fields
	}
	return nil
}

// Get looks up a single key of a Map or Object node.
// Struct fields match either their json tag name or their Go name.
func Get(v any, key string) (any, bool) {
	switch m := v.(type) {
	case *Map:
		if m == nil {
			return nil, false
		}
		return m.Get(key)
	case map[string]any:
		val, ok := m[key]
		return val, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Struct:
		typ := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			sf := typ.Field(i)
			if !sf.IsExported() {
				continue
			}
			if sf.Name == key || fieldName(sf) == key {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}

// fieldName uses the json tag name if available, otherwise the field name
func fieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return sf.Name
	}
	return tag
}
