// Package format converts between value graph values and display text.
package format

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/livefir/databind/internal/dates"
	"github.com/livefir/databind/internal/value"
)

// Formatter converts a value to display text and back
type Formatter interface {
	Format(v any) (string, error)
	Parse(s string) (any, error)
}

// Func adapts a pair of functions to a Formatter. A nil ParseFunc returns the text unchanged.
type Func struct {
	FormatFunc func(v any) (string, error)
	ParseFunc  func(s string) (any, error)
}

func (f Func) Format(v any) (string, error) {
	return f.FormatFunc(v)
}

func (f Func) Parse(s string) (any, error) {
	if f.ParseFunc == nil {
		return s, nil
	}
	return f.ParseFunc(s)
}

// Text is the default formatter.
// Dates render as RFC3339, numbers in their shortest form and nil as "".
type Text struct{}

func (Text) Format(v any) (string, error) {
	return String(v), nil
}

func (Text) Parse(s string) (any, error) {
	return s, nil
}

// String renders any value graph node as plain text
func String(v any) string {
	switch value.KindOf(v) {
	case value.Null:
		return ""
	case value.Number:
		if n, ok := v.(json.Number); ok {
			return n.String()
		}
		rv := reflect.Indirect(reflect.ValueOf(v))
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return strconv.FormatUint(rv.Uint(), 10)
		case reflect.Float32:
			return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
		case reflect.Float64:
			return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
		}
	case value.Date:
		t, _ := value.Time(v)
		return t.Format(time.RFC3339)
	case value.List:
		items := value.Items(v)
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = String(item)
		}
		return strings.Join(parts, ",")
	case value.MapKind, value.Object:
		data, err := json.Marshal(v)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}

// Time formats dates with a Go layout and parses partial ISO8601 or the layout itself
type Time struct {
	Layout string
}

func (t Time) Format(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	tm, ok := value.Time(v)
	if !ok {
		return "", fmt.Errorf("expected a date, got %T", v)
	}
	return tm.Format(t.Layout), nil
}

func (t Time) Parse(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if tm, err := time.Parse(t.Layout, s); err == nil {
		return tm, nil
	}
	return dates.Parse(s)
}

// Upper upper-cases text
type Upper struct{}

func (Upper) Format(v any) (string, error) { return strings.ToUpper(String(v)), nil }
func (Upper) Parse(s string) (any, error)  { return s, nil }

// Lower lower-cases text
type Lower struct{}

func (Lower) Format(v any) (string, error) { return strings.ToLower(String(v)), nil }
func (Lower) Parse(s string) (any, error)  { return s, nil }

// Trim strips surrounding whitespace in both directions
type Trim struct{}

func (Trim) Format(v any) (string, error) { return strings.TrimSpace(String(v)), nil }
func (Trim) Parse(s string) (any, error)  { return strings.TrimSpace(s), nil }
