package databind

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/livefir/databind/internal/content"
	"github.com/livefir/databind/internal/dom"
	"github.com/livefir/databind/internal/format"
	"github.com/livefir/databind/internal/value"
)

// Extract reads a value graph back out of a bound tree.
//
// It walks the same directives Inject does and collects element values
// (input value, checkbox state, selected option, text otherwise) converted
// through each node's data-format. Objects become *value.Map with keys in
// document order. Item templates and data-if visibility are ignored, so every
// rendered entry is read.
func (b *Binder) Extract(root *html.Node) (any, error) {
	b.metrics.IncrementExtraction()

	var result any
	s := slot{
		get: func() any { return result },
		set: func(v any) { result = v },
	}
	if err := b.extractNode(root, s); err != nil {
		b.metrics.IncrementBindError()
		return nil, err
	}
	return result, nil
}

// slot is a settable location in the value graph being extracted
type slot struct {
	get func() any
	set func(any)
}

func (s slot) child(path string) slot {
	if path == "" || path == content.Self {
		return s
	}
	cur := s
	for _, key := range strings.Split(path, ".") {
		cur = cur.field(key)
	}
	return cur
}

// field addresses key inside the map held by s, creating the map on first write
func (s slot) field(key string) slot {
	return slot{
		get: func() any {
			m, ok := s.get().(*value.Map)
			if !ok {
				return nil
			}
			v, _ := m.Get(key)
			return v
		},
		set: func(v any) {
			m, ok := s.get().(*value.Map)
			if !ok {
				m = value.NewMap()
				s.set(m)
			}
			m.Set(key, v)
		},
	}
}

func detached() (slot, func() any) {
	var v any
	return slot{get: func() any { return v }, set: func(x any) { v = x }}, func() any { return v }
}

func (b *Binder) extractNode(n *html.Node, s slot) error {
	if n.Type != html.ElementNode {
		return b.extractChildren(n, s)
	}
	if _, ok := dom.Attr(n, AttrItemTemplate); ok {
		return nil
	}

	if path, ok := dom.Attr(n, AttrID); ok {
		if id, ok := dom.Attr(n, "id"); ok {
			s.child(path).set(id)
		}
	}
	for _, name := range b.attrDirectives {
		if path, ok := dom.Attr(n, "data-"+name); ok {
			if v, ok := dom.Attr(n, name); ok {
				s.child(path).set(v)
			}
		}
	}

	if path, ok := dom.Attr(n, AttrObject); ok {
		s = s.child(path)
	}

	if path, ok := dom.Attr(n, AttrList); ok {
		items := []any{}
		for _, c := range entries(n) {
			item, get := detached()
			if err := b.extractNode(c, item); err != nil {
				return err
			}
			items = append(items, get())
		}
		s.child(path).set(items)
		return nil
	}

	if path, ok := dom.Attr(n, AttrMap); ok {
		m := value.NewMap()
		nodes := entries(n)
		for i := 0; i+1 < len(nodes); i += 2 {
			key, getKey := detached()
			val, getVal := detached()
			if err := b.extractNode(nodes[i], key); err != nil {
				return err
			}
			if err := b.extractNode(nodes[i+1], val); err != nil {
				return err
			}
			m.Set(format.String(getKey()), getVal())
		}
		s.child(path).set(m)
		return nil
	}

	if path, ok := dom.Attr(n, AttrValue); ok {
		elem, err := b.element(n)
		if err != nil {
			return err
		}
		f, err := b.formatter(n)
		if err != nil {
			return err
		}
		v, err := elem.Value(f)
		if err != nil {
			b.warnf("%s=%q: %v", AttrValue, path, err)
			v = nil
		}
		s.child(path).set(v)
		return nil
	}

	if path, ok := dom.Attr(n, AttrHTML); ok {
		markup, err := dom.InnerHTML(n)
		if err != nil {
			b.warnf("%s=%q: %v", AttrHTML, path, err)
			return nil
		}
		s.child(path).set(markup)
		return nil
	}

	return b.extractChildren(n, s)
}

func (b *Binder) extractChildren(n *html.Node, s slot) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if err := b.extractNode(c, s); err != nil {
			return err
		}
	}
	return nil
}

// entries returns the rendered entries of a list or map node
func entries(n *html.Node) []*html.Node {
	var nodes []*html.Node
	for _, c := range dom.Elements(n) {
		if _, ok := dom.Attr(c, AttrItemTemplate); ok {
			continue
		}
		nodes = append(nodes, c)
	}
	return nodes
}
