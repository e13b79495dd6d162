// Package expr implements the conditional expressions used by data-if.
//
// An expression is one or more statements separated by ';':
//
//	[!]propertyPath[(=|<|>)operand]
//
// A statement without an operator tests that the value is not empty.
// All statements must hold for the expression to be true.
package expr

import "strings"

// Opcode selects the comparison a statement performs
type Opcode int

const (
	OpNone Opcode = iota
	OpInvalid
	OpNotEmpty
	OpEquals
	OpLessThan
	OpGreaterThan
)

func (o Opcode) String() string {
	switch o {
	case OpNone:
		return "NONE"
	case OpInvalid:
		return "INVALID"
	case OpNotEmpty:
		return "NOT_EMPTY"
	case OpEquals:
		return "EQUALS"
	case OpLessThan:
		return "LESS_THAN"
	case OpGreaterThan:
		return "GREATER_THAN"
	}
	return "UNKNOWN"
}

// Statement is one parsed clause of a conditional expression
type Statement struct {
	Not     bool
	Path    string
	Op      Opcode
	Operand *string
}

func (s Statement) String() string {
	var b strings.Builder
	if s.Not {
		b.WriteByte('!')
	}
	b.WriteString(s.Path)
	switch s.Op {
	case OpEquals:
		b.WriteByte('=')
	case OpLessThan:
		b.WriteByte('<')
	case OpGreaterThan:
		b.WriteByte('>')
	}
	if s.Operand != nil {
		b.WriteString(*s.Operand)
	}
	return b.String()
}

type lexState int

const (
	stateStatement lexState = iota
	statePath
	stateAfterPath
	stateOperand
)

const (
	separator = ';'
	negation  = '!'
)

func isPathChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '.' || c == '_' || c == '$' || c == '-'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func opcodeFor(c byte) Opcode {
	switch c {
	case '=':
		return OpEquals
	case '<':
		return OpLessThan
	case '>':
		return OpGreaterThan
	}
	return OpInvalid
}

// Parse splits expression into statements. It never fails: malformed input
// produces statements that evaluate to false.
func Parse(expression string) []Statement {
	var (
		statements []Statement
		current    Statement
		path       strings.Builder
		operand    strings.Builder
		state      = stateStatement
		negated    bool // a '!' was read for the current statement
	)

	finish := func() {
		current.Path = strings.TrimSpace(path.String())
		switch state {
		case statePath, stateAfterPath:
			if current.Op == OpNone {
				current.Op = OpNotEmpty
			}
		case stateOperand:
			if op := strings.TrimSpace(operand.String()); op != "" {
				current.Operand = &op
			}
		}
		if current.Path == "" {
			current.Op = OpInvalid
		}
		statements = append(statements, current)
		current = Statement{}
		negated = false
		path.Reset()
		operand.Reset()
		state = stateStatement
	}

	// invalid emits the current statement as OpInvalid and skips to the next separator
	invalid := func(i int) int {
		for i+1 < len(expression) && expression[i+1] != separator {
			i++
		}
		current.Op = OpInvalid
		current.Path = strings.TrimSpace(path.String())
		statements = append(statements, current)
		current = Statement{}
		negated = false
		path.Reset()
		state = stateStatement
		return i
	}

	for i := 0; i < len(expression); i++ {
		c := expression[i]
		switch state {
		case stateStatement:
			switch {
			case isSpace(c):
			case c == separator:
				if negated {
					finish()
				}
			case c == negation:
				current.Not = !current.Not
				negated = true
			default:
				state = statePath
				i--
			}

		case statePath:
			switch {
			case isPathChar(c):
				path.WriteByte(c)
			case c == separator:
				finish()
			case isSpace(c):
				state = stateAfterPath
			case opcodeFor(c) != OpInvalid:
				current.Op = opcodeFor(c)
				state = stateOperand
			default:
				i = invalid(i)
			}

		case stateAfterPath:
			switch {
			case isSpace(c):
			case c == separator:
				finish()
			case opcodeFor(c) != OpInvalid:
				current.Op = opcodeFor(c)
				state = stateOperand
			default:
				// a path cannot contain whitespace
				i = invalid(i)
			}

		case stateOperand:
			if c == separator {
				finish()
				continue
			}
			operand.WriteByte(c)
		}
	}

	if state != stateStatement || negated {
		finish()
	}
	return statements
}
