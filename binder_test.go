package databind

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/livefir/databind/internal/dom"
	"github.com/livefir/databind/internal/format"
	"github.com/livefir/databind/internal/value"
)

func newTestBinder(t *testing.T, opts ...Option) (*Binder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]Option{WithLogger(log.New(&buf, "", 0))}, opts...)
	return New(opts...), &buf
}

func parseTemplate(t *testing.T, markup string) *html.Node {
	t.Helper()
	root, err := ParseFragment(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("failed to parse template: %v", err)
	}
	return root
}

func mustInject(t *testing.T, b *Binder, root *html.Node, v any) {
	t.Helper()
	if err := b.Inject(root, v); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
}

// rendered returns the elements matching fn outside of pristine item templates
func rendered(root *html.Node, fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := dom.Attr(n, AttrItemTemplate); ok {
				return
			}
			if fn(n) {
				out = append(out, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func texts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = strings.TrimSpace(dom.Text(n))
	}
	return out
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func byID(root *html.Node, id string) *html.Node {
	return dom.Find(root, func(n *html.Node) bool {
		v, ok := dom.Attr(n, "id")
		return ok && v == id
	})
}

func TestInjectValue(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     any
		want     string
	}{
		{
			name:     "string field",
			template: `<p id="out" data-value="name">placeholder</p>`,
			data:     value.MapOf("name", "Ada Lovelace"),
			want:     "Ada Lovelace",
		},
		{
			name:     "nested path",
			template: `<p id="out" data-value="owner.address.city"></p>`,
			data:     value.MapOf("owner", value.MapOf("address", value.MapOf("city", "London"))),
			want:     "London",
		},
		{
			name:     "missing path renders empty",
			template: `<p id="out" data-value="nickname">placeholder</p>`,
			data:     value.MapOf("name", "Ada"),
			want:     "",
		},
		{
			name:     "null renders empty",
			template: `<p id="out" data-value="nickname">placeholder</p>`,
			data:     value.MapOf("nickname", nil),
			want:     "",
		},
		{
			name:     "number",
			template: `<p id="out" data-value="year"></p>`,
			data:     value.MapOf("year", 1964),
			want:     "1964",
		},
		{
			name:     "object scope",
			template: `<div data-object="user"><p id="out" data-value="name"></p></div>`,
			data:     value.MapOf("user", value.MapOf("name", "Grace")),
			want:     "Grace",
		},
		{
			name:     "list length",
			template: `<p id="out" data-value="tags.length"></p>`,
			data:     value.MapOf("tags", []any{"a", "b", "c"}),
			want:     "3",
		},
		{
			name: "struct with json tags",
			template: `<p id="out" data-value="first_name"></p>`,
			data: struct {
				FirstName string `json:"first_name"`
			}{FirstName: "Alan"},
			want: "Alan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBinder(t)
			root := parseTemplate(t, tt.template)
			mustInject(t, b, root, tt.data)

			out := byID(root, "out")
			if out == nil {
				t.Fatal("output node not found")
			}
			if got := dom.Text(out); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInjectLargeIntegersVerbatim(t *testing.T) {
	b, _ := newTestBinder(t)
	data, err := value.Decode([]byte("id: 9007199254740993\nserial: -9223372036854775808\n"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	root := parseTemplate(t, `<p id="out" data-value="id" data-title="serial"></p>`)

	mustInject(t, b, root, data)

	out := byID(root, "out")
	if got := dom.Text(out); got != "9007199254740993" {
		t.Errorf("expected text 9007199254740993, got %q", got)
	}
	if got, _ := dom.Attr(out, "title"); got != "-9223372036854775808" {
		t.Errorf("expected title -9223372036854775808, got %q", got)
	}
}

func TestInjectListScopeIdentity(t *testing.T) {
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `<ul data-list="items"><li data-value="."></li></ul>`)

	mustInject(t, b, root, value.MapOf("items", []any{1964, true, "John Doe"}))

	got := texts(rendered(root, byTag("li")))
	want := []string{"1964", "true", "John Doe"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("list items mismatch (-want +got):\n%s", diff)
	}
}

func TestInjectListRebind(t *testing.T) {
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `<ul id="list" data-list="items"><li data-value="."></li></ul>`)
	list := byID(root, "list")

	mustInject(t, b, root, value.MapOf("items", []any{"a", "b", "c"}))
	if got := len(rendered(root, byTag("li"))); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}

	mustInject(t, b, root, value.MapOf("items", []any{"z"}))

	got := texts(rendered(root, byTag("li")))
	if diff := cmp.Diff([]string{"z"}, got); diff != "" {
		t.Errorf("rebind mismatch (-want +got):\n%s", diff)
	}

	holder := list.FirstChild
	if _, ok := dom.Attr(holder, AttrItemTemplate); !ok {
		t.Fatalf("expected item template as first child, got <%s>", holder.Data)
	}
	tmpl := dom.Elements(holder)
	if len(tmpl) != 1 || dom.Text(tmpl[0]) != "" {
		t.Errorf("item template must stay pristine, got %d nodes with text %q", len(tmpl), dom.Text(tmpl[0]))
	}
	for _, li := range rendered(root, byTag("li")) {
		if li == tmpl[0] {
			t.Error("item template node must never be a rendered entry")
		}
	}
}

func TestInjectListEmptyAndNull(t *testing.T) {
	for name, items := range map[string]any{"empty": []any{}, "null": nil} {
		t.Run(name, func(t *testing.T) {
			b, _ := newTestBinder(t)
			root := parseTemplate(t, `<ul data-list="items"><li data-value="."></li></ul>`)

			mustInject(t, b, root, value.MapOf("items", items))

			if got := len(rendered(root, byTag("li"))); got != 0 {
				t.Errorf("expected no entries, got %d", got)
			}
		})
	}
}

func TestInjectMapAdjacency(t *testing.T) {
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `<dl data-map="."><dt data-value="."></dt><dd data-value="."></dd></dl>`)
	data := value.MapOf("name", "John Doe", "born", 1964, "alive", false)

	mustInject(t, b, root, data)

	keys := rendered(root, byTag("dt"))
	if len(keys) != data.Len() {
		t.Fatalf("expected %d keys, got %d", data.Len(), len(keys))
	}
	want := map[string]string{"name": "John Doe", "born": "1964", "alive": "false"}
	for i, dt := range keys {
		key := dom.Text(dt)
		if key != data.Keys()[i] {
			t.Errorf("key %d: expected %q, got %q", i, data.Keys()[i], key)
		}
		dd := dt.NextSibling
		if dd == nil || dd.Data != "dd" {
			t.Fatalf("key %q is not immediately followed by its value node", key)
		}
		if got := dom.Text(dd); got != want[key] {
			t.Errorf("value of %q: expected %q, got %q", key, want[key], got)
		}
	}
}

func TestInjectMapObjectFields(t *testing.T) {
	type settings struct {
		Theme    string `json:"theme"`
		FontSize int    `json:"font_size"`
	}
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `<dl data-map="settings"><dt data-value="."></dt><dd data-value="."></dd></dl>`)

	mustInject(t, b, root, value.MapOf("settings", settings{Theme: "dark", FontSize: 14}))

	got := texts(rendered(root, func(n *html.Node) bool { return n.Data == "dt" || n.Data == "dd" }))
	want := []string{"theme", "dark", "font_size", "14"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("map entries mismatch (-want +got):\n%s", diff)
	}
}

func TestInjectNestedBullets(t *testing.T) {
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `
		<div data-list=".">
			<section>
				<h2 data-bullet="%S"></h2>
				<ol data-list="items"><li data-bullet="%S.%I"></li></ol>
			</section>
		</div>`)
	data := []any{
		value.MapOf("items", []any{1, 2}),
		value.MapOf("items", []any{1, 2, 3, 4}),
	}

	mustInject(t, b, root, data)

	got := texts(rendered(root, byTag("li")))
	want := []string{"A.I", "A.II", "B.I", "B.II", "B.III", "B.IV"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bullets mismatch (-want +got):\n%s", diff)
	}

	headings := texts(rendered(root, byTag("h2")))
	if diff := cmp.Diff([]string{"A", "B"}, headings); diff != "" {
		t.Errorf("heading bullets mismatch (-want +got):\n%s", diff)
	}
}

func TestInjectBulletOutsideList(t *testing.T) {
	b, logs := newTestBinder(t)
	root := parseTemplate(t, `<span id="out" data-bullet="%n">keep</span>`)

	mustInject(t, b, root, nil)

	if got := dom.Text(byID(root, "out")); got != "keep" {
		t.Errorf("expected text to be left alone, got %q", got)
	}
	if !strings.Contains(logs.String(), "outside of a list") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestInjectIf(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		data       any
		hidden     bool
	}{
		{"truthy", "active", value.MapOf("active", true), false},
		{"falsy", "active", value.MapOf("active", false), true},
		{"absent field", "missing", value.MapOf("active", true), true},
		{"negated absent field", "!missing", value.MapOf("active", true), false},
		{"and", "active;role=admin", value.MapOf("active", true, "role", "admin"), false},
		{"and fails", "active;role=admin", value.MapOf("active", true, "role", "guest"), true},
		{"partial date", "born=1980-06", value.MapOf("born", time.Date(1980, 6, 15, 0, 0, 0, 0, time.UTC)), false},
		{"empty list", "tags", value.MapOf("tags", []any{}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, logs := newTestBinder(t)
			root := parseTemplate(t, fmt.Sprintf(`<p id="out" class="note" data-if="%s">text</p>`, tt.expression))

			mustInject(t, b, root, tt.data)

			out := byID(root, "out")
			if got := dom.HasClass(out, "hidden"); got != tt.hidden {
				t.Errorf("expected hidden=%v, got %v", tt.hidden, got)
			}
			if !dom.HasClass(out, "note") {
				t.Error("existing classes must be preserved")
			}
			if logs.Len() != 0 {
				t.Errorf("unexpected warnings: %s", logs.String())
			}
		})
	}
}

func TestInjectIfToggles(t *testing.T) {
	b, _ := newTestBinder(t, WithHiddenClass("d-none"))
	root := parseTemplate(t, `<p id="out" data-if="show"><span id="name" data-value="name"></span></p>`)
	out := byID(root, "out")

	mustInject(t, b, root, value.MapOf("show", false, "name", "Ada"))
	if !dom.HasClass(out, "d-none") {
		t.Error("expected hidden class after false condition")
	}
	if got := dom.Text(byID(root, "name")); got != "Ada" {
		t.Errorf("hidden nodes still bind their children, got %q", got)
	}

	mustInject(t, b, root, value.MapOf("show", true, "name", "Ada"))
	if dom.HasClass(out, "d-none") {
		t.Error("expected hidden class to be removed after true condition")
	}
}

func TestInjectMalformedCondition(t *testing.T) {
	b, logs := newTestBinder(t)
	root := parseTemplate(t, `<p id="out" data-if="count#3">text</p>`)

	mustInject(t, b, root, value.MapOf("count", 3))

	if !dom.HasClass(byID(root, "out"), "hidden") {
		t.Error("malformed expressions evaluate to false")
	}
	if !strings.Contains(logs.String(), "Warning:") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestInjectStructuralErrors(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		data      any
		directive string
		path      string
		target    error
	}{
		{
			name:      "list on scalar",
			template:  `<ul data-list="name"><li></li></ul>`,
			data:      value.MapOf("name", "Ada"),
			directive: AttrList,
			path:      "name",
			target:    ErrStructure,
		},
		{
			name:      "list without item template",
			template:  `<ul data-list="items"></ul>`,
			data:      value.MapOf("items", []any{1}),
			directive: AttrList,
			path:      "items",
			target:    ErrStructure,
		},
		{
			name:      "map on list",
			template:  `<dl data-map="items"><dt></dt><dd></dd></dl>`,
			data:      value.MapOf("items", []any{1}),
			directive: AttrMap,
			path:      "items",
			target:    ErrStructure,
		},
		{
			name:      "map with a single template node",
			template:  `<dl data-map="settings"><dt></dt></dl>`,
			data:      value.MapOf("settings", value.MapOf("a", 1)),
			directive: AttrMap,
			path:      "settings",
			target:    ErrStructure,
		},
		{
			name:      "unknown format",
			template:  `<span data-value="name" data-format="roman-numerals"></span>`,
			data:      value.MapOf("name", "Ada"),
			directive: AttrFormat,
			path:      "roman-numerals",
			target:    ErrUnknownFormat,
		},
		{
			name:      "unknown element class",
			template:  `<span data-class="fancy" data-value="name"></span>`,
			data:      value.MapOf("name", "Ada"),
			directive: AttrClass,
			path:      "fancy",
			target:    ErrUnknownElement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBinder(t)
			root := parseTemplate(t, tt.template)

			err := b.Inject(root, tt.data)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			var bindErr *BindError
			if !errors.As(err, &bindErr) {
				t.Fatalf("expected *BindError, got %T", err)
			}
			if bindErr.Directive != tt.directive || bindErr.Path != tt.path {
				t.Errorf("expected %s=%q, got %s=%q", tt.directive, tt.path, bindErr.Directive, bindErr.Path)
			}
			if b.Metrics().BindErrors != 1 {
				t.Errorf("expected 1 bind error in metrics, got %d", b.Metrics().BindErrors)
			}
		})
	}
}

func TestInjectExtraTemplateElements(t *testing.T) {
	b, logs := newTestBinder(t)
	root := parseTemplate(t, `<ul data-list="items"><li data-value="."></li><li>stray</li></ul>`)

	mustInject(t, b, root, value.MapOf("items", []any{"a", "b"}))

	got := texts(rendered(root, byTag("li")))
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "discarded") {
		t.Errorf("expected a warning about extra elements, got %q", logs.String())
	}
}

func TestInjectAttributes(t *testing.T) {
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `
		<a id="link" data-id="slug" data-href="url" data-title="title" title="stale">x</a>
		<img id="avatar" data-value="avatar" data-alt="name">`)

	mustInject(t, b, root, value.MapOf(
		"slug", "profile-1",
		"url", "https://example.com/u/1",
		"avatar", "/img/1.png",
		"name", "Ada",
	))

	link := byID(root, "profile-1")
	if link == nil {
		t.Fatal("expected data-id to set the id attribute")
	}
	if href, _ := dom.Attr(link, "href"); href != "https://example.com/u/1" {
		t.Errorf("expected href to be bound, got %q", href)
	}
	if _, ok := dom.Attr(link, "title"); ok {
		t.Error("expected null attribute value to remove the attribute")
	}

	img := byID(root, "avatar")
	if src, _ := dom.Attr(img, "src"); src != "/img/1.png" {
		t.Errorf("expected img src, got %q", src)
	}
	if alt, _ := dom.Attr(img, "alt"); alt != "Ada" {
		t.Errorf("expected img alt, got %q", alt)
	}
}

func TestInjectCustomAttributeDirectives(t *testing.T) {
	b, _ := newTestBinder(t, WithAttributeDirectives("aria-label"))
	root := parseTemplate(t, `<button id="btn" data-aria-label="label" data-title="title"></button>`)

	mustInject(t, b, root, value.MapOf("label", "Close", "title", "ignored"))

	btn := byID(root, "btn")
	if label, _ := dom.Attr(btn, "aria-label"); label != "Close" {
		t.Errorf("expected aria-label, got %q", label)
	}
	if _, ok := dom.Attr(btn, "title"); ok {
		t.Error("title is not a configured attribute directive")
	}
}

func TestInjectHTML(t *testing.T) {
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `<div id="body" data-html="body"><p>old</p></div>`)

	mustInject(t, b, root, value.MapOf("body", `<b>bold</b><span data-value="name">raw</span>`, "name", "Ada"))

	body := byID(root, "body")
	if dom.Find(body, byTag("b")) == nil {
		t.Error("expected markup to be parsed into elements")
	}
	if got := dom.Text(body); got != "boldraw" {
		t.Errorf("injected markup must stay inert, got %q", got)
	}
}

func TestInjectElements(t *testing.T) {
	b, _ := newTestBinder(t)
	root := parseTemplate(t, `
		<input id="agree" type="checkbox" data-value="agree">
		<input id="off" type="checkbox" checked data-value="off">
		<input id="plan-a" type="radio" name="plan" value="basic" data-value="plan">
		<input id="plan-b" type="radio" name="plan" value="pro" data-value="plan">
		<input id="email" type="email" data-value="email">
		<textarea id="bio" data-value="bio"></textarea>
		<select id="size" data-value="size">
			<option value="s" selected>Small</option>
			<option value="m">Medium</option>
			<option>L</option>
		</select>`)

	mustInject(t, b, root, value.MapOf(
		"agree", true,
		"off", false,
		"plan", "pro",
		"email", "ada@example.com",
		"bio", "Mathematician",
		"size", "L",
	))

	checked := func(id string) bool {
		_, ok := dom.Attr(byID(root, id), "checked")
		return ok
	}
	if !checked("agree") || checked("off") {
		t.Error("checkbox state must follow booleans")
	}
	if checked("plan-a") || !checked("plan-b") {
		t.Error("radio buttons are checked by value")
	}
	if v, _ := dom.Attr(byID(root, "email"), "value"); v != "ada@example.com" {
		t.Errorf("expected input value, got %q", v)
	}
	if got := dom.Text(byID(root, "bio")); got != "Mathematician" {
		t.Errorf("expected textarea text, got %q", got)
	}

	var selected []string
	for _, opt := range dom.FindAll(byID(root, "size"), byTag("option")) {
		if _, ok := dom.Attr(opt, "selected"); ok {
			selected = append(selected, strings.TrimSpace(dom.Text(opt)))
		}
	}
	if diff := cmp.Diff([]string{"L"}, selected); diff != "" {
		t.Errorf("selected options mismatch (-want +got):\n%s", diff)
	}
}

func TestInjectFormats(t *testing.T) {
	born := time.Date(1815, 12, 10, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		format string
		locale string
		data   any
		want   string
	}{
		{"date", "date", "en", born, "1815-12-10"},
		{"time", "time", "en", born, "09:30"},
		{"upper", "upper", "en", "ada", "ADA"},
		{"number en", "number", "en", 1234.5, "1,234.5"},
		{"number de", "number", "de", 1234.5, "1.234,5"},
		{"percent", "percent", "en", 0.25, "25%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBinder(t, WithLocale(tt.locale))
			root := parseTemplate(t, fmt.Sprintf(`<span id="out" data-value="v" data-format="%s"></span>`, tt.format))

			mustInject(t, b, root, value.MapOf("v", tt.data))

			if got := dom.Text(byID(root, "out")); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInjectCustomFormat(t *testing.T) {
	stars := format.Func{FormatFunc: func(v any) (string, error) {
		n, ok := v.(int)
		if !ok {
			return "", fmt.Errorf("expected int, got %T", v)
		}
		return strings.Repeat("*", n), nil
	}}
	b, logs := newTestBinder(t, WithFormat("stars", stars))
	root := parseTemplate(t, `<span id="ok" data-value="rating" data-format="stars">x</span><span id="bad" data-value="name" data-format="stars">x</span>`)

	mustInject(t, b, root, value.MapOf("rating", 3, "name", "Ada"))

	if got := dom.Text(byID(root, "ok")); got != "***" {
		t.Errorf("expected custom format output, got %q", got)
	}
	if got := dom.Text(byID(root, "bad")); got != "x" {
		t.Errorf("a failing formatter leaves the node untouched, got %q", got)
	}
	if !strings.Contains(logs.String(), "expected int") {
		t.Errorf("expected formatter error to be logged, got %q", logs.String())
	}
}

func TestInjectInvalidLocaleFallsBack(t *testing.T) {
	b, logs := newTestBinder(t, WithLocale("not a locale!"))
	root := parseTemplate(t, `<span id="out" data-value="n" data-format="number"></span>`)

	mustInject(t, b, root, value.MapOf("n", 1000))

	if got := dom.Text(byID(root, "out")); got != "1,000" {
		t.Errorf("expected English grouping, got %q", got)
	}
	if !strings.Contains(logs.String(), "using en") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

// cardList renders each entry of a list as a card, binding each card
// through the injector it receives.
type cardList struct {
	node *html.Node
}

func (c *cardList) Node() *html.Node { return c.node }

func (c *cardList) SetValue(v any, f Formatter) error {
	return (&TextElement{node: c.node}).SetValue(v, f)
}

func (c *cardList) Value(f Formatter) (any, error) { return nil, nil }

func (c *cardList) SetObject(inj Injector, v any) error {
	dom.RemoveChildren(c.node)
	for _, item := range value.Items(v) {
		card := &html.Node{Type: html.ElementNode, Data: "article"}
		title := &html.Node{Type: html.ElementNode, Data: "h3", Attr: []html.Attribute{{Key: AttrValue, Val: "title"}}}
		card.AppendChild(title)
		c.node.AppendChild(card)
		if err := inj.InjectFragment(card, item); err != nil {
			return err
		}
	}
	return nil
}

func TestInjectAggregateDelegation(t *testing.T) {
	b, _ := newTestBinder(t, WithElement("cards", func(n *html.Node) Element { return &cardList{node: n} }))
	root := parseTemplate(t, `<div id="cards" data-class="cards" data-value="posts"></div><p id="plain" data-class="cards" data-value="title"></p>`)

	mustInject(t, b, root, value.MapOf(
		"title", "Posts",
		"posts", []any{value.MapOf("title", "First"), value.MapOf("title", "Second")},
	))

	got := texts(dom.FindAll(byID(root, "cards"), byTag("h3")))
	if diff := cmp.Diff([]string{"First", "Second"}, got); diff != "" {
		t.Errorf("delegated rendering mismatch (-want +got):\n%s", diff)
	}
	if got := dom.Text(byID(root, "plain")); got != "Posts" {
		t.Errorf("scalars still go through SetValue, got %q", got)
	}
	if b.Metrics().Injections != 3 {
		t.Errorf("expected re-entrant injections to be counted, got %d", b.Metrics().Injections)
	}
}

func TestInjectFragmentIgnoresRoot(t *testing.T) {
	b, _ := newTestBinder(t)
	root := &html.Node{Type: html.ElementNode, Data: "div", Attr: []html.Attribute{{Key: AttrObject, Val: "missing"}}}
	child := &html.Node{Type: html.ElementNode, Data: "span", Attr: []html.Attribute{{Key: AttrValue, Val: "name"}}}
	root.AppendChild(child)

	if err := b.InjectFragment(root, value.MapOf("name", "Ada")); err != nil {
		t.Fatalf("InjectFragment failed: %v", err)
	}
	if got := dom.Text(child); got != "Ada" {
		t.Errorf("expected child bound in the caller's scope, got %q", got)
	}

	if err := b.Inject(root, value.MapOf("name", "Ada")); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if got := dom.Text(child); got != "" {
		t.Errorf("expected root data-object to apply on Inject, got %q", got)
	}
}

func TestInjectDeepNesting(t *testing.T) {
	const depth = 20000
	b, _ := newTestBinder(t)

	root := &html.Node{Type: html.ElementNode, Data: "div"}
	cur := root
	for i := 0; i < depth; i++ {
		next := &html.Node{Type: html.ElementNode, Data: "div", Attr: []html.Attribute{{Key: AttrObject, Val: "."}}}
		cur.AppendChild(next)
		cur = next
	}
	leaf := &html.Node{Type: html.ElementNode, Data: "span", Attr: []html.Attribute{{Key: AttrValue, Val: "name"}}}
	cur.AppendChild(leaf)

	mustInject(t, b, root, value.MapOf("name", "deep"))

	if got := dom.Text(leaf); got != "deep" {
		t.Errorf("expected leaf to be bound, got %q", got)
	}
	if m := b.Metrics(); m.NodesVisited != depth+2 {
		t.Errorf("expected %d visited nodes, got %d", depth+2, m.NodesVisited)
	}
}

func TestInjectRandomLists(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 20; i++ {
		n := faker.IntRange(0, 30)
		people := make([]any, n)
		want := make([]string, n)
		for j := range people {
			name := faker.Name()
			email := faker.Email()
			people[j] = value.MapOf("name", name, "email", email)
			want[j] = name + "|" + email
		}

		b, _ := newTestBinder(t)
		root := parseTemplate(t, `<ul data-list="people"><li><b data-value="name"></b>|<i data-value="email"></i></li></ul>`)
		mustInject(t, b, root, value.MapOf("people", people))

		got := texts(rendered(root, byTag("li")))
		if n == 0 {
			got = []string{}
			want = []string{}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("run %d: entries mismatch (-want +got):\n%s", i, diff)
		}
		if m := b.Metrics(); m.ClonesCreated != int64(n) {
			t.Errorf("run %d: expected %d clones, got %d", i, n, m.ClonesCreated)
		}
	}
}

func TestInjectConcurrent(t *testing.T) {
	b, _ := newTestBinder(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root, err := ParseFragment(strings.NewReader(`<ul data-list="items"><li data-value="." data-if="."></li></ul>`))
			if err != nil {
				errs <- err
				return
			}
			items := make([]any, i)
			for j := range items {
				items[j] = j + 1
			}
			if err := b.Inject(root, value.MapOf("items", items)); err != nil {
				errs <- err
				return
			}
			if got := len(rendered(root, byTag("li"))); got != i {
				errs <- fmt.Errorf("goroutine %d: expected %d items, got %d", i, i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := b.Metrics().Injections; got != 16 {
		t.Errorf("expected 16 injections, got %d", got)
	}
}

func TestMetrics(t *testing.T) {
	b, _ := newTestBinder(t, WithElement("plain", func(n *html.Node) Element { return &TextElement{node: n} }))
	root := parseTemplate(t, `
		<p data-if="show">x</p>
		<p data-if="bad#1">y</p>
		<ul data-list="items"><li data-value="." data-format="upper" data-class="plain"></li></ul>`)

	mustInject(t, b, root, value.MapOf("show", false, "items", []any{"a", "b"}))

	m := b.Metrics()
	if m.Injections != 1 || m.ClonesCreated != 2 {
		t.Errorf("expected 1 injection and 2 clones, got %+v", m)
	}
	if m.HiddenNodes != 2 {
		t.Errorf("expected 2 hidden nodes, got %d", m.HiddenNodes)
	}
	if m.ExpressionsEvaluated != 2 || m.ExpressionWarnings != 1 {
		t.Errorf("expected 2 expressions with 1 warning, got %d/%d", m.ExpressionsEvaluated, m.ExpressionWarnings)
	}
	if rate := b.WarningRate(); rate != 50 {
		t.Errorf("expected 50%% warning rate, got %v", rate)
	}

	want := []Counter{{Name: "element.plain", Count: 2}, {Name: "format.upper", Count: 2}}
	if diff := cmp.Diff(want, b.Counters()); diff != "" {
		t.Errorf("counters mismatch (-want +got):\n%s", diff)
	}

	b.ResetMetrics()
	if m := b.Metrics(); m.Injections != 0 || len(b.Counters()) != 0 {
		t.Errorf("expected metrics to reset, got %+v", m)
	}
}
