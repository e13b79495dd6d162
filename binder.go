// Package databind injects a value graph into HTML marked up with data-*
// directives.
//
// A template is ordinary HTML:
//
//	<div data-object="user">
//	  <h1 data-value="name"></h1>
//	  <p data-if="!email" class="warning">No e-mail address</p>
//	  <ul data-list="tags"><li data-value="."></li></ul>
//	  <dl data-map="settings"><dt data-value="."></dt><dd data-value="."></dd></dl>
//	</div>
//
// Binder.Inject walks the template and the value graph in lockstep: object
// directives change the scope, list and map directives clone their item
// template once per entry, value directives write text or attributes, and
// data-if toggles a hidden class. Paths are dotted names relative to the
// current scope; "." is the scope itself.
package databind

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/livefir/databind/internal/bullet"
	"github.com/livefir/databind/internal/content"
	"github.com/livefir/databind/internal/dom"
	"github.com/livefir/databind/internal/expr"
	"github.com/livefir/databind/internal/format"
	"github.com/livefir/databind/internal/metrics"
	"github.com/livefir/databind/internal/value"
)

// Metrics is a snapshot of binder activity
type Metrics = metrics.BindMetrics

// Binder binds value graphs into template trees.
//
// A Binder holds no per-pass state, so one instance may bind disjoint trees
// from several goroutines, and custom elements may re-enter Inject while a
// pass is running.
type Binder struct {
	config         Config
	evaluator      *expr.Evaluator
	formats        *FormatRegistry
	elements       *ElementRegistry
	metrics        *metrics.Collector
	attrDirectives []string
}

// New creates a binder with the given options.
// An unparseable locale falls back to English with a warning.
func New(opts ...Option) *Binder {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	formats, err := NewFormatRegistry(config.Locale)
	if err != nil {
		if config.Logger != nil {
			config.Logger.Printf("Warning: locale %q: %v, using en", config.Locale, err)
		}
		config.Locale = "en"
		formats, _ = NewFormatRegistry(config.Locale)
	}
	for name, f := range config.Formats {
		formats.Register(name, f)
	}

	elements := NewElementRegistry()
	for name, factory := range config.Elements {
		elements.Register(name, factory)
	}

	collector := metrics.NewCollector()

	b := &Binder{
		config:   config,
		formats:  formats,
		elements: elements,
		metrics:  collector,
		evaluator: expr.NewEvaluator(
			expr.WithLogger(config.Logger),
			expr.WithMetrics(collector),
		),
	}
	b.attrDirectives = append(b.attrDirectives, config.AttributeDirectives...)
	return b
}

// Formats returns the binder's format registry
func (b *Binder) Formats() *FormatRegistry {
	return b.formats
}

// Elements returns the binder's element registry
func (b *Binder) Elements() *ElementRegistry {
	return b.elements
}

// Evaluator returns the conditional expression evaluator used for data-if
func (b *Binder) Evaluator() *expr.Evaluator {
	return b.evaluator
}

// Metrics returns a snapshot of the binder's activity counters
func (b *Binder) Metrics() Metrics {
	return b.metrics.GetMetrics()
}

// ResetMetrics zeroes the binder's activity counters
func (b *Binder) ResetMetrics() {
	b.metrics.Reset()
}

// Counter is the usage count of one data-format or data-class name
type Counter struct {
	Name  string // "format.<name>" or "element.<name>"
	Count int64
}

// Counters returns the usage counts of named formats and elements sorted by name
func (b *Binder) Counters() []Counter {
	counts := b.metrics.GetCustomCounters()
	var out []Counter
	for _, name := range b.metrics.CounterNames() {
		out = append(out, Counter{Name: name, Count: counts[name]})
	}
	return out
}

// WarningRate returns the percentage of evaluated data-if expressions that were malformed
func (b *Binder) WarningRate() float64 {
	return b.metrics.GetWarningRate()
}

// frame is one pending (node, scope) pair on the work stack
type frame struct {
	node    *html.Node
	scope   any
	bullets []int // 1-based ordinals of the enclosing list/map entries, outermost first
	inspect bool  // false when only the children of node are bound
}

// Inject binds v into the tree rooted at root, root included.
//
// Absent and null values render empty; a data-list or data-map path that
// resolves to the wrong shape, or an unknown data-format/data-class name,
// stops the pass with a *BindError.
func (b *Binder) Inject(root *html.Node, v any) error {
	return b.inject(root, v, true)
}

// InjectFragment binds v into the children of root. Directives on root
// itself are ignored.
func (b *Binder) InjectFragment(root *html.Node, v any) error {
	return b.inject(root, v, false)
}

func (b *Binder) inject(root *html.Node, v any, inspectRoot bool) error {
	if root == nil {
		return nil
	}
	b.metrics.IncrementInjection()

	stack := []frame{{node: root, scope: v, inspect: inspectRoot}}
	var visited int64
	defer func() { b.metrics.IncrementNodesVisited(visited) }()

	for len(stack) > 0 {
		b.metrics.ObserveStackDepth(int64(len(stack)))
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++

		children, err := b.bindNode(f)
		if err != nil {
			b.metrics.IncrementBindError()
			return err
		}
		// reversed so children are bound in document order
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

// bindNode applies the directives of one node and returns the frames to bind next
func (b *Binder) bindNode(f frame) ([]frame, error) {
	n := f.node
	if n.Type != html.ElementNode || !f.inspect {
		return b.childFrames(n, f.scope, f.bullets), nil
	}
	if _, ok := dom.Attr(n, AttrItemTemplate); ok {
		// pristine item templates are never bound in place
		return nil, nil
	}

	scope := f.scope

	if cond, ok := dom.Attr(n, AttrIf); ok {
		b.bindIf(n, scope, cond)
	}

	elem, err := b.element(n)
	if err != nil {
		return nil, err
	}

	if path, ok := dom.Attr(n, AttrID); ok {
		if id := content.Lookup(scope, path); id != nil {
			dom.SetAttr(n, "id", format.String(id))
		}
	}
	b.bindAttributes(n, scope)

	if path, ok := dom.Attr(n, AttrObject); ok {
		scope = content.Lookup(scope, path)
	}

	if path, ok := dom.Attr(n, AttrList); ok {
		return b.bindList(n, path, scope, f.bullets)
	}
	if path, ok := dom.Attr(n, AttrMap); ok {
		return b.bindMap(n, path, scope, f.bullets)
	}

	if path, ok := dom.Attr(n, AttrValue); ok {
		delegated, err := b.bindValue(n, elem, path, scope)
		if err != nil {
			return nil, err
		}
		if delegated {
			return nil, nil
		}
	}

	if path, ok := dom.Attr(n, AttrHTML); ok {
		markup := format.String(content.Lookup(scope, path))
		if err := dom.SetInnerHTML(n, markup); err != nil {
			b.warnf("%s=%q: %v", AttrHTML, path, err)
		}
		// injected markup is inert
		return nil, nil
	}

	if pattern, ok := dom.Attr(n, AttrBullet); ok {
		if len(f.bullets) == 0 {
			b.warnf("%s=%q outside of a list or map", AttrBullet, pattern)
		} else {
			dom.SetText(n, bullet.FormatPath(pattern, f.bullets))
		}
	}

	return b.childFrames(n, scope, f.bullets), nil
}

func (b *Binder) childFrames(n *html.Node, scope any, bullets []int) []frame {
	var frames []frame
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			frames = append(frames, frame{node: c, scope: scope, bullets: bullets, inspect: true})
		}
	}
	return frames
}

// bindIf hides n when cond is false. Children are still bound.
func (b *Binder) bindIf(n *html.Node, scope any, cond string) {
	if b.evaluator.Evaluate(scope, cond) {
		dom.RemoveClass(n, b.config.HiddenClass)
		return
	}
	dom.AddClass(n, b.config.HiddenClass)
	b.metrics.IncrementHiddenNodes()
}

// element returns the custom element selected by data-class or the built-in one
func (b *Binder) element(n *html.Node) (Element, error) {
	name, ok := dom.Attr(n, AttrClass)
	if !ok {
		return NewElement(n), nil
	}
	factory, err := b.elements.Resolve(name)
	if err != nil {
		return nil, bindError(AttrClass, name, err)
	}
	b.metrics.IncrementCustomCounter("element." + name)
	return factory(n), nil
}

// formatter returns the formatter selected by data-format or the text default
func (b *Binder) formatter(n *html.Node) (Formatter, error) {
	name, ok := dom.Attr(n, AttrFormat)
	if !ok {
		return format.Text{}, nil
	}
	f, err := b.formats.Resolve(name)
	if err != nil {
		return nil, bindError(AttrFormat, name, err)
	}
	b.metrics.IncrementCustomCounter("format." + name)
	return f, nil
}

// bindAttributes copies data-<name> paths into <name> attributes
func (b *Binder) bindAttributes(n *html.Node, scope any) {
	for _, name := range b.attrDirectives {
		path, ok := dom.Attr(n, "data-"+name)
		if !ok {
			continue
		}
		v := content.Lookup(scope, path)
		if v == nil {
			dom.RemoveAttr(n, name)
			continue
		}
		dom.SetAttr(n, name, format.String(v))
	}
}

// bindValue writes the value at path through elem. It reports true when an
// aggregate was handed to an AggregateBindable element, which then owns the subtree.
func (b *Binder) bindValue(n *html.Node, elem Element, path string, scope any) (bool, error) {
	v := content.Lookup(scope, path)

	switch value.KindOf(v) {
	case value.List, value.MapKind, value.Object:
		if agg, ok := elem.(AggregateBindable); ok {
			if err := agg.SetObject(b, v); err != nil {
				return true, bindError(AttrValue, path, err)
			}
			return true, nil
		}
	}

	f, err := b.formatter(n)
	if err != nil {
		return false, err
	}
	if err := elem.SetValue(v, f); err != nil {
		b.warnf("%s=%q: %v", AttrValue, path, err)
	}
	return false, nil
}

// bindList clones the item template once per list entry
func (b *Binder) bindList(n *html.Node, path string, scope any, bullets []int) ([]frame, error) {
	v := content.Lookup(scope, path)
	if kind := value.KindOf(v); kind != value.Null && kind != value.List {
		return nil, bindError(AttrList, path, fmt.Errorf("%w: expected a list, got %s", ErrStructure, kind))
	}

	tmpl, err := b.itemTemplate(n, 1)
	if err != nil {
		return nil, bindError(AttrList, path, err)
	}

	items := value.Items(v)
	frames := make([]frame, 0, len(items))
	for i, item := range items {
		clone := dom.Clone(tmpl[0])
		n.AppendChild(clone)
		frames = append(frames, frame{node: clone, scope: item, bullets: appendOrdinal(bullets, i+1), inspect: true})
	}
	b.metrics.IncrementClonesCreated(int64(len(items)))
	return frames, nil
}

// bindMap clones the key/value template pair once per entry. The key node
// is bound to the key string and is immediately followed by its value node.
func (b *Binder) bindMap(n *html.Node, path string, scope any, bullets []int) ([]frame, error) {
	v := content.Lookup(scope, path)
	if kind := value.KindOf(v); kind != value.Null && kind != value.MapKind && kind != value.Object {
		return nil, bindError(AttrMap, path, fmt.Errorf("%w: expected a map, got %s", ErrStructure, kind))
	}

	tmpl, err := b.itemTemplate(n, 2)
	if err != nil {
		return nil, bindError(AttrMap, path, err)
	}

	fields := value.Fields(v)
	frames := make([]frame, 0, 2*len(fields))
	for i, field := range fields {
		key, val := dom.Clone(tmpl[0]), dom.Clone(tmpl[1])
		n.AppendChild(key)
		n.AppendChild(val)
		ordinals := appendOrdinal(bullets, i+1)
		frames = append(frames,
			frame{node: key, scope: field.Key, bullets: ordinals, inspect: true},
			frame{node: val, scope: field.Value, bullets: ordinals, inspect: true},
		)
	}
	b.metrics.IncrementClonesCreated(int64(2 * len(fields)))
	return frames, nil
}

// itemTemplate returns the size pristine template nodes of a list or map
// node and clears every previously rendered entry.
//
// On the first pass the first size element children become the template and
// are moved into a <template data-item-template> element kept as the node's
// first child; later passes reuse it.
func (b *Binder) itemTemplate(n *html.Node, size int) ([]*html.Node, error) {
	var holder *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if _, ok := dom.Attr(c, AttrItemTemplate); ok && c.Type == html.ElementNode {
			holder = c
			break
		}
	}

	if holder != nil {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c != holder {
				n.RemoveChild(c)
			}
			c = next
		}
		tmpl := dom.Elements(holder)
		if len(tmpl) < size {
			return nil, fmt.Errorf("%w: item template has %d elements, need %d", ErrStructure, len(tmpl), size)
		}
		return tmpl[:size], nil
	}

	elems := dom.Elements(n)
	if len(elems) < size {
		return nil, fmt.Errorf("%w: no item template (found %d elements, need %d)", ErrStructure, len(elems), size)
	}
	if len(elems) > size {
		b.warnf("%d extra elements after the item template of <%s> discarded", len(elems)-size, n.Data)
	}

	tmpl := elems[:size]
	dom.RemoveChildren(n)
	holder = &html.Node{
		Type:     html.ElementNode,
		Data:     "template",
		DataAtom: atom.Template,
		Attr:     []html.Attribute{{Key: AttrItemTemplate}},
	}
	for _, t := range tmpl {
		holder.AppendChild(t)
	}
	n.AppendChild(holder)
	return tmpl, nil
}

// appendOrdinal returns a new path; the parent's path is never aliased
func appendOrdinal(path []int, ordinal int) []int {
	next := make([]int, len(path)+1)
	copy(next, path)
	next[len(path)] = ordinal
	return next
}

func (b *Binder) warnf(format string, args ...any) {
	if b.config.Logger != nil {
		b.config.Logger.Printf("Warning: "+format, args...)
	}
}
