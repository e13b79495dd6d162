package databind

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/livefir/databind/internal/dom"
)

// Problem is a template defect found by Check
type Problem struct {
	Node *html.Node
	Err  error
}

func (p Problem) Error() string {
	return fmt.Sprintf("<%s>: %v", p.Node.Data, p.Err)
}

func (p Problem) Unwrap() error {
	return p.Err
}

// Check inspects a template without binding it. It reports malformed data-if
// expressions, unknown data-format and data-class names, and list or map
// nodes lacking an item template.
func (b *Binder) Check(root *html.Node) []Problem {
	var problems []Problem
	report := func(n *html.Node, err error) {
		problems = append(problems, Problem{Node: n, Err: err})
	}

	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type == html.ElementNode {
			if cond, ok := dom.Attr(n, AttrIf); ok {
				for _, err := range b.evaluator.Check(cond) {
					report(n, bindError(AttrIf, cond, err))
				}
			}
			if name, ok := dom.Attr(n, AttrFormat); ok {
				if _, err := b.formats.Resolve(name); err != nil {
					report(n, bindError(AttrFormat, name, err))
				}
			}
			if name, ok := dom.Attr(n, AttrClass); ok {
				if _, err := b.elements.Resolve(name); err != nil {
					report(n, bindError(AttrClass, name, err))
				}
			}
			if path, ok := dom.Attr(n, AttrList); ok && len(templateElements(n)) < 1 {
				report(n, bindError(AttrList, path, fmt.Errorf("%w: no item template", ErrStructure)))
			}
			if path, ok := dom.Attr(n, AttrMap); ok && len(templateElements(n)) < 2 {
				report(n, bindError(AttrMap, path, fmt.Errorf("%w: a map needs a key and a value template", ErrStructure)))
			}
		}

		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return problems
}

// templateElements returns the item template of an already bound node or
// the element children of a pristine one
func templateElements(n *html.Node) []*html.Node {
	for _, c := range dom.Elements(n) {
		if _, ok := dom.Attr(c, AttrItemTemplate); ok {
			return dom.Elements(c)
		}
	}
	return dom.Elements(n)
}
