// Package bullet renders list numbering patterns such as "%n.", "%A)" or "%S.%I".
//
// Supported tokens:
//
//	%n       decimal (1, 2, 3)
//	%a, %s   lowercase alphabetic (a..z, aa, ab)
//	%A, %S   uppercase alphabetic
//	%i, %I   lowercase / uppercase roman numerals
//	%%       literal percent
//
// Any other character, including an unknown %x pair, passes through unchanged.
package bullet

import (
	"strconv"
	"strings"
)

type token struct {
	literal string
	verb    byte
}

// Format substitutes a single 1-based ordinal into every token of pattern
func Format(pattern string, ordinal int) string {
	return FormatPath(pattern, []int{ordinal})
}

// FormatPath substitutes the ordinals of nested lists, outermost first.
// The last token receives the innermost ordinal, the one before it the
// enclosing ordinal, and so on. Tokens left over once the path is exhausted
// reuse the outermost ordinal.
func FormatPath(pattern string, path []int) string {
	tokens := tokenize(pattern)

	verbs := 0
	for _, t := range tokens {
		if t.verb != 0 {
			verbs++
		}
	}

	var b strings.Builder
	seen := 0
	for _, t := range tokens {
		if t.verb == 0 {
			b.WriteString(t.literal)
			continue
		}
		// distance from the last token
		fromEnd := verbs - 1 - seen
		seen++
		idx := len(path) - 1 - fromEnd
		if idx < 0 {
			idx = 0
		}
		ordinal := 0
		if len(path) > 0 {
			ordinal = path[idx]
		}
		b.WriteString(render(t.verb, ordinal))
	}
	return b.String()
}

func tokenize(pattern string) []token {
	var tokens []token
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 >= len(pattern) {
			lit.WriteByte(c)
			continue
		}
		next := pattern[i+1]
		switch next {
		case 'n', 'a', 'A', 's', 'S', 'i', 'I':
			flush()
			tokens = append(tokens, token{verb: next})
			i++
		case '%':
			lit.WriteByte('%')
			i++
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return tokens
}

func render(verb byte, ordinal int) string {
	switch verb {
	case 'a', 's':
		return Alpha(ordinal)
	case 'A', 'S':
		return strings.ToUpper(Alpha(ordinal))
	case 'i':
		return strings.ToLower(Roman(ordinal))
	case 'I':
		return Roman(ordinal)
	}
	return strconv.Itoa(ordinal)
}

// Alpha converts a 1-based ordinal to bijective base-26: 1→a, 26→z, 27→aa.
// Non-positive ordinals fall back to decimal.
func Alpha(ordinal int) string {
	if ordinal <= 0 {
		return strconv.Itoa(ordinal)
	}
	var buf []byte
	for n := ordinal; n > 0; {
		n--
		buf = append(buf, byte('a'+n%26))
		n /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman converts ordinal to uppercase roman numerals.
// Values outside 1..3999 fall back to decimal.
func Roman(ordinal int) string {
	if ordinal <= 0 || ordinal >= 4000 {
		return strconv.Itoa(ordinal)
	}
	var b strings.Builder
	for _, r := range romanTable {
		for ordinal >= r.value {
			b.WriteString(r.symbol)
			ordinal -= r.value
		}
	}
	return b.String()
}
