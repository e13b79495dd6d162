package value

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxAliasNodes caps how many nodes a document may produce through alias
// expansion.
const MaxAliasNodes = 100000

var (
	// ErrAliasCycle is returned for an alias that refers to its own anchor
	ErrAliasCycle = errors.New("alias refers to an enclosing anchor")
	// ErrExcessiveAliasing is returned once alias expansion passes MaxAliasNodes
	ErrExcessiveAliasing = errors.New("excessive aliasing")
)

// Decode parses a YAML or JSON document into a value graph.
// Mappings become *Map so key order survives, timestamps become time.Time.
func Decode(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse data: %w", err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	d := &decoder{expanding: make(map[*yaml.Node]bool)}
	return d.fromNode(&doc)
}

// decoder tracks the collections being expanded and the nodes produced through aliases
type decoder struct {
	expanding  map[*yaml.Node]bool
	aliasDepth int
	aliasNodes int
}

// enter marks an anchored collection as being expanded; reaching it again
// through one of its own aliases is a cycle
func (d *decoder) enter(n *yaml.Node) error {
	if d.expanding[n] {
		return fmt.Errorf("line %d: &%s: %w", n.Line, n.Anchor, ErrAliasCycle)
	}
	d.expanding[n] = true
	return nil
}

func (d *decoder) fromNode(n *yaml.Node) (any, error) {
	if d.aliasDepth > 0 {
		d.aliasNodes++
		if d.aliasNodes > MaxAliasNodes {
			return nil, fmt.Errorf("line %d: %w", n.Line, ErrExcessiveAliasing)
		}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.fromNode(n.Content[0])

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unknown anchor %q", n.Line, n.Value)
		}
		d.aliasDepth++
		v, err := d.fromNode(n.Alias)
		d.aliasDepth--
		return v, err

	case yaml.SequenceNode:
		if err := d.enter(n); err != nil {
			return nil, err
		}
		defer delete(d.expanding, n)
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := d.fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case yaml.MappingNode:
		if err := d.enter(n); err != nil {
			return nil, err
		}
		defer delete(d.expanding, n)
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Tag == "!!merge" {
				merged, err := d.fromNode(valNode)
				if err != nil {
					return nil, err
				}
				if mm, ok := merged.(*Map); ok {
					for _, f := range mm.Fields() {
						if _, exists := m.Get(f.Key); !exists {
							m.Set(f.Key, f.Value)
						}
					}
				}
				continue
			}
			val, err := d.fromNode(valNode)
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, val)
		}
		return m, nil

	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node kind %v", n.Line, n.Kind)
}

func fromScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return f, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return f, nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return n.Value, nil
		}
		return t, nil
	}
	return n.Value, nil
}
