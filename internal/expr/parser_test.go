package expr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func operand(s string) *string { return &s }

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []Statement
	}{
		{
			name: "implicit not empty",
			expr: "description",
			want: []Statement{{Path: "description", Op: OpNotEmpty}},
		},
		{
			name: "negation",
			expr: "!description",
			want: []Statement{{Not: true, Path: "description", Op: OpNotEmpty}},
		},
		{
			name: "equals",
			expr: "type=DIRECTORY",
			want: []Statement{{Path: "type", Op: OpEquals, Operand: operand("DIRECTORY")}},
		},
		{
			name: "less and greater",
			expr: "age<18;size>1.5",
			want: []Statement{
				{Path: "age", Op: OpLessThan, Operand: operand("18")},
				{Path: "size", Op: OpGreaterThan, Operand: operand("1.5")},
			},
		},
		{
			name: "chained with not empty first",
			expr: "flag;type=DIRECTORY",
			want: []Statement{
				{Path: "flag", Op: OpNotEmpty},
				{Path: "type", Op: OpEquals, Operand: operand("DIRECTORY")},
			},
		},
		{
			name: "path characters",
			expr: "$root.item_1.sub-key",
			want: []Statement{{Path: "$root.item_1.sub-key", Op: OpNotEmpty}},
		},
		{
			name: "empty operand",
			expr: "value=",
			want: []Statement{{Path: "value", Op: OpEquals}},
		},
		{
			name: "operand keeps inner spaces",
			expr: "name=John Doe",
			want: []Statement{{Path: "name", Op: OpEquals, Operand: operand("John Doe")}},
		},
		{
			name: "whitespace around statements",
			expr: " a ; !b = x ",
			want: []Statement{
				{Path: "a", Op: OpNotEmpty},
				{Not: true, Path: "b", Op: OpEquals, Operand: operand("x")},
			},
		},
		{
			name: "invalid operator",
			expr: "a#b;c",
			want: []Statement{
				{Path: "a", Op: OpInvalid},
				{Path: "c", Op: OpNotEmpty},
			},
		},
		{
			name: "whitespace inside path",
			expr: "user name;c",
			want: []Statement{
				{Path: "user", Op: OpInvalid},
				{Path: "c", Op: OpNotEmpty},
			},
		},
		{
			name: "whitespace inside negated path",
			expr: "!user name=x",
			want: []Statement{{Not: true, Path: "user", Op: OpInvalid}},
		},
		{
			name: "bare negation",
			expr: "!",
			want: []Statement{{Not: true, Op: OpInvalid}},
		},
		{
			name: "bare negation before statement",
			expr: "!;a",
			want: []Statement{
				{Not: true, Op: OpInvalid},
				{Path: "a", Op: OpNotEmpty},
			},
		},
		{
			name: "double negation without path",
			expr: "!!",
			want: []Statement{{Op: OpInvalid}},
		},
		{
			name: "missing path",
			expr: "=5",
			want: []Statement{{Op: OpInvalid, Operand: operand("5")}},
		},
		{
			name: "empty statements skipped",
			expr: ";;a;;",
			want: []Statement{{Path: "a", Op: OpNotEmpty}},
		},
		{
			name: "empty expression",
			expr: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.expr)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestStatementString(t *testing.T) {
	for _, in := range []string{"a", "!a", "a=b", "a<1", "!a>2"} {
		st := Parse(in)
		if len(st) != 1 {
			t.Fatalf("Parse(%q) returned %d statements", in, len(st))
		}
		if got := st[0].String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func FuzzParse(f *testing.F) {
	f.Add("flag;type=DIRECTORY")
	f.Add("!description")
	f.Add("birthDay=1980-06")
	f.Add("a#b;;=;!<")
	f.Add("value=")

	f.Fuzz(func(t *testing.T, expression string) {
		for _, st := range Parse(expression) {
			if st.Path == "" && st.Op != OpInvalid {
				t.Errorf("statement with empty path must be invalid: %+v (from %q)", st, expression)
			}
			if st.Op == OpNone {
				t.Errorf("parser emitted OpNone for %q", expression)
			}
		}
		// must never panic
		NewEvaluator(WithLogger(nil)).Evaluate(map[string]any{"a": 1}, expression)
	})
}
