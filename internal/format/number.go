package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/livefir/databind/internal/value"
)

// Number renders numbers with locale grouping and decimal separators
type Number struct {
	Tag     language.Tag
	Percent bool
}

// NewNumber creates a locale-aware number formatter from a BCP 47 tag
func NewNumber(locale string, percent bool) (*Number, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Number{Tag: tag, Percent: percent}, nil
}

func (n *Number) Format(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	f, ok := value.Float(v)
	if !ok {
		return "", fmt.Errorf("expected a number, got %T", v)
	}
	p := message.NewPrinter(n.Tag)
	if n.Percent {
		return p.Sprintf("%v", number.Percent(f)), nil
	}
	return p.Sprintf("%v", number.Decimal(f)), nil
}

func (n *Number) Parse(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	decimal := n.decimalSeparator()
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == decimal:
			b.WriteByte('.')
		case r == '-' || r == '−':
			b.WriteByte('-')
		}
	}

	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if n.Percent {
		f /= 100
	}
	return f, nil
}

// decimalSeparator discovers the locale's decimal mark by formatting 1.5
func (n *Number) decimalSeparator() rune {
	sample := message.NewPrinter(n.Tag).Sprintf("%v", number.Decimal(1.5))
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			return r
		}
	}
	return '.'
}
