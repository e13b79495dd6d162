package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/livefir/databind/internal/dates"
	"github.com/livefir/databind/internal/value"
)

// Processor implements the comparison behind one opcode
type Processor interface {
	// AcceptsNullOperand reports whether a statement may omit its operand
	AcceptsNullOperand() bool
	// AcceptValue reports whether the resolved value has a type this processor compares
	AcceptValue(v any) bool
	Evaluate(v any, operand string) bool
}

// DefaultProcessors returns a fresh processor set for every opcode that has one
func DefaultProcessors() map[Opcode]Processor {
	return map[Opcode]Processor{
		OpNotEmpty:    NotEmpty{},
		OpEquals:      Equals{},
		OpLessThan:    LessThan{},
		OpGreaterThan: GreaterThan{},
	}
}

// NotEmpty is true for non-empty aggregates and truthy scalars
type NotEmpty struct{}

func (NotEmpty) AcceptsNullOperand() bool { return true }
func (NotEmpty) AcceptValue(any) bool     { return true }

func (NotEmpty) Evaluate(v any, _ string) bool {
	return Truthy(v)
}

// Truthy follows loose truthiness: nil, false, 0, NaN, "" and empty
// lists, maps and objects are false; everything else is true.
func Truthy(v any) bool {
	switch value.KindOf(v) {
	case value.Null:
		return false
	case value.Boolean:
		b, ok := v.(bool)
		if !ok {
			return fmt.Sprint(v) == "true"
		}
		return b
	case value.Number:
		f, _ := value.Float(v)
		return f != 0 && !math.IsNaN(f)
	case value.String:
		return fmt.Sprint(v) != ""
	case value.Date:
		return true
	case value.List, value.MapKind, value.Object:
		return value.Len(v) > 0
	}
	return false
}

// Equals compares the value to the operand text
type Equals struct{}

func (Equals) AcceptsNullOperand() bool { return false }
func (Equals) AcceptValue(any) bool     { return true }

func (Equals) Evaluate(v any, operand string) bool {
	switch value.KindOf(v) {
	case value.Null:
		return operand == "null"
	case value.Boolean:
		return fmt.Sprint(v) == operand
	case value.Date:
		t, _ := value.Time(v)
		return dates.Match(t, operand)
	case value.Number:
		if i, ok := value.Int(v); ok {
			if o, err := strconv.ParseInt(strings.TrimSpace(operand), 10, 64); err == nil {
				return i == o
			}
		}
		f, _ := value.Float(v)
		o, err := strconv.ParseFloat(strings.TrimSpace(operand), 64)
		if err != nil {
			return false
		}
		return f == o
	case value.String:
		return fmt.Sprint(v) == operand
	}
	return displayString(v) == operand
}

// LessThan is a strict numeric or chronological comparison
type LessThan struct{}

func (LessThan) AcceptsNullOperand() bool { return false }
func (LessThan) AcceptValue(v any) bool   { return orderable(v) }

func (LessThan) Evaluate(v any, operand string) bool {
	c, ok := compare(v, operand)
	return ok && c < 0
}

// GreaterThan is a strict numeric or chronological comparison
type GreaterThan struct{}

func (GreaterThan) AcceptsNullOperand() bool { return false }
func (GreaterThan) AcceptValue(v any) bool   { return orderable(v) }

func (GreaterThan) Evaluate(v any, operand string) bool {
	c, ok := compare(v, operand)
	return ok && c > 0
}

func orderable(v any) bool {
	k := value.KindOf(v)
	return k == value.Number || k == value.Date
}

// compare returns the sign of v - operand
func compare(v any, operand string) (int, bool) {
	switch value.KindOf(v) {
	case value.Number:
		f, _ := value.Float(v)
		o, err := strconv.ParseFloat(strings.TrimSpace(operand), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		switch {
		case f < o:
			return -1, true
		case f > o:
			return 1, true
		}
		return 0, true
	case value.Date:
		t, _ := value.Time(v)
		o, err := dates.Parse(operand)
		if err != nil {
			return 0, false
		}
		return t.Compare(o), true
	}
	return 0, false
}

// displayString mirrors how aggregates stringify for loose equality:
// lists join their items with commas.
func displayString(v any) string {
	switch value.KindOf(v) {
	case value.List:
		items := value.Items(v)
		parts := make([]string, len(items))
		for i, item := range items {
			if item != nil {
				parts[i] = displayString(item)
			}
		}
		return strings.Join(parts, ",")
	case value.Date:
		t, _ := value.Time(v)
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
