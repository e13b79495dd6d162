package expr

import (
	"regexp"

	"github.com/livefir/databind/internal/dates"
	"github.com/livefir/databind/internal/value"
)

var (
	booleanOperand = regexp.MustCompile(`^(true|false)$`)
	numberOperand  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
)

// ValidOperand checks that operand is lexically compatible with the runtime
// type of v. Only boolean, number and date values constrain the operand.
func ValidOperand(v any, operand string) bool {
	if operand == "" {
		return false
	}
	switch value.KindOf(v) {
	case value.Boolean:
		return booleanOperand.MatchString(operand)
	case value.Number:
		return numberOperand.MatchString(operand)
	case value.Date:
		return dates.Valid(operand)
	}
	return true
}
