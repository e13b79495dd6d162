package expr

import (
	"fmt"
	"log"

	"github.com/livefir/databind/internal/content"
	"github.com/livefir/databind/internal/metrics"
	"github.com/livefir/databind/internal/value"
)

// Evaluator evaluates conditional expressions against a scope.
// Processors are built once per evaluator and reused for every call.
type Evaluator struct {
	processors map[Opcode]Processor
	logger     *log.Logger
	metrics    *metrics.Collector
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithLogger sets the logger that receives warnings about malformed expressions
func WithLogger(logger *log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithMetrics records evaluations and warnings on collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Evaluator) {
		e.metrics = collector
	}
}

// WithProcessor replaces the processor used for op
func WithProcessor(op Opcode, p Processor) Option {
	return func(e *Evaluator) {
		e.processors[op] = p
	}
}

// NewEvaluator creates an evaluator with the default processors
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		processors: DefaultProcessors(),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reports whether every statement of expression holds for scope.
// Statements are checked in order and evaluation stops at the first false one.
// Malformed statements evaluate to false and log a warning.
func (e *Evaluator) Evaluate(scope any, expression string) bool {
	e.metrics.IncrementExpressionEvaluated()

	for _, st := range Parse(expression) {
		ok, err := e.statement(scope, st)
		if err != nil {
			e.metrics.IncrementExpressionWarning()
			if e.logger != nil {
				e.logger.Printf("Warning: conditional expression %q: %v", expression, err)
			}
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

func (e *Evaluator) statement(scope any, st Statement) (bool, error) {
	if st.Op == OpNone {
		return true, nil
	}
	if st.Op == OpInvalid {
		return false, fmt.Errorf("statement %q: invalid operator", st)
	}

	p, ok := e.processors[st.Op]
	if !ok {
		return false, fmt.Errorf("statement %q: no processor for %s", st, st.Op)
	}

	// absent and null values take the same path
	v := content.Lookup(scope, st.Path)

	if st.Operand == nil && !p.AcceptsNullOperand() {
		return false, fmt.Errorf("statement %q: %s requires an operand", st, st.Op)
	}
	if !p.AcceptValue(v) {
		return false, fmt.Errorf("statement %q: %s cannot compare a %s value", st, st.Op, value.KindOf(v))
	}

	operand := ""
	if st.Operand != nil {
		operand = *st.Operand
		if !ValidOperand(v, operand) {
			return false, fmt.Errorf("statement %q: operand %q does not match %s value", st, operand, value.KindOf(v))
		}
	}

	result := p.Evaluate(v, operand)
	if st.Not {
		result = !result
	}
	return result, nil
}

// Check reports statements of expression that can never evaluate,
// independent of any scope.
func (e *Evaluator) Check(expression string) []error {
	var errs []error
	for _, st := range Parse(expression) {
		switch {
		case st.Op == OpInvalid:
			errs = append(errs, fmt.Errorf("statement %q: invalid operator", st))
		case st.Op == OpNone:
		default:
			p, ok := e.processors[st.Op]
			if !ok {
				errs = append(errs, fmt.Errorf("statement %q: no processor for %s", st, st.Op))
				continue
			}
			if st.Operand == nil && !p.AcceptsNullOperand() {
				errs = append(errs, fmt.Errorf("statement %q: %s requires an operand", st, st.Op))
			}
		}
	}
	return errs
}
