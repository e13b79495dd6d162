package databind

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/livefir/databind/internal/dom"
	"github.com/livefir/databind/internal/format"
	"github.com/livefir/databind/internal/value"
)

// Formatter converts between value graph values and display text.
// A node selects one with data-format.
type Formatter = format.Formatter

// Element is the binder's view of a template node: where a bound value is
// written to and read back from.
type Element interface {
	Node() *html.Node
	SetValue(v any, f Formatter) error
	Value(f Formatter) (any, error)
}

// Injector binds a value graph into a node tree. *Binder implements it.
type Injector interface {
	Inject(root *html.Node, v any) error
	InjectFragment(root *html.Node, v any) error
}

// AggregateBindable is implemented by elements that render lists, maps and
// objects themselves instead of receiving their string form. The injector
// may be used to bind nested templates.
type AggregateBindable interface {
	SetObject(inj Injector, v any) error
}

// ElementFactory wraps a node in a custom Element. Factories are registered
// by name and selected with data-class.
type ElementFactory func(n *html.Node) Element

// NewElement returns the built-in element for n based on its tag
func NewElement(n *html.Node) Element {
	switch n.DataAtom {
	case atom.Input:
		typ, _ := dom.Attr(n, "type")
		switch strings.ToLower(typ) {
		case "checkbox", "radio":
			return &CheckElement{node: n}
		}
		return &AttrElement{node: n, attr: "value"}
	case atom.Select:
		return &SelectElement{node: n}
	case atom.Img:
		return &AttrElement{node: n, attr: "src"}
	}
	return &TextElement{node: n}
}

// TextElement writes values as the node's text content
type TextElement struct {
	node *html.Node
}

func (e *TextElement) Node() *html.Node { return e.node }

func (e *TextElement) SetValue(v any, f Formatter) error {
	s, err := f.Format(v)
	if err != nil {
		return err
	}
	dom.SetText(e.node, s)
	return nil
}

func (e *TextElement) Value(f Formatter) (any, error) {
	return f.Parse(strings.TrimSpace(dom.Text(e.node)))
}

// AttrElement writes values into a single attribute, like input value or img src
type AttrElement struct {
	node *html.Node
	attr string
}

func (e *AttrElement) Node() *html.Node { return e.node }

func (e *AttrElement) SetValue(v any, f Formatter) error {
	s, err := f.Format(v)
	if err != nil {
		return err
	}
	dom.SetAttr(e.node, e.attr, s)
	return nil
}

func (e *AttrElement) Value(f Formatter) (any, error) {
	s, _ := dom.Attr(e.node, e.attr)
	return f.Parse(s)
}

// CheckElement binds checkboxes and radio buttons.
// Booleans drive the checked state; a radio button with any other value is
// checked when the value matches its own value attribute.
type CheckElement struct {
	node *html.Node
}

func (e *CheckElement) Node() *html.Node { return e.node }

func (e *CheckElement) SetValue(v any, f Formatter) error {
	if value.KindOf(v) == value.Boolean || v == nil {
		e.setChecked(v == true)
		return nil
	}
	s, err := f.Format(v)
	if err != nil {
		return err
	}
	if e.isRadio() {
		own, _ := dom.Attr(e.node, "value")
		e.setChecked(own == s)
		return nil
	}
	dom.SetAttr(e.node, "value", s)
	return nil
}

func (e *CheckElement) Value(f Formatter) (any, error) {
	_, checked := dom.Attr(e.node, "checked")
	if e.isRadio() {
		if !checked {
			return nil, nil
		}
		own, _ := dom.Attr(e.node, "value")
		return f.Parse(own)
	}
	return checked, nil
}

func (e *CheckElement) isRadio() bool {
	typ, _ := dom.Attr(e.node, "type")
	return strings.EqualFold(typ, "radio")
}

func (e *CheckElement) setChecked(checked bool) {
	if checked {
		dom.SetAttr(e.node, "checked", "")
	} else {
		dom.RemoveAttr(e.node, "checked")
	}
}

// SelectElement marks the option whose value matches as selected
type SelectElement struct {
	node *html.Node
}

func (e *SelectElement) Node() *html.Node { return e.node }

func (e *SelectElement) SetValue(v any, f Formatter) error {
	s, err := f.Format(v)
	if err != nil {
		return err
	}
	for _, opt := range e.options() {
		if optionValue(opt) == s {
			dom.SetAttr(opt, "selected", "")
		} else {
			dom.RemoveAttr(opt, "selected")
		}
	}
	return nil
}

func (e *SelectElement) Value(f Formatter) (any, error) {
	for _, opt := range e.options() {
		if _, ok := dom.Attr(opt, "selected"); ok {
			return f.Parse(optionValue(opt))
		}
	}
	return nil, nil
}

func (e *SelectElement) options() []*html.Node {
	return dom.FindAll(e.node, func(n *html.Node) bool { return n.DataAtom == atom.Option })
}

func optionValue(opt *html.Node) string {
	if v, ok := dom.Attr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(dom.Text(opt))
}
