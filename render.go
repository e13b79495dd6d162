package databind

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns a configured HTML minifier (singleton).
// Document and end tags are kept so minified output can be parsed and bound again.
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &minhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	})
	return minifier
}

// Parse reads a complete HTML document
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// ParseFragment reads an HTML fragment in body context. The returned
// document node holds the fragment's top-level nodes as children and is
// meant for InjectFragment.
func ParseFragment(r io.Reader) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// Render writes n as HTML, optionally minified
func Render(w io.Writer, n *html.Node, minified bool) error {
	if !minified {
		return html.Render(w, n)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return err
	}
	if err := getMinifier().Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("failed to minify output: %w", err)
	}
	return nil
}

// RenderString renders n to a string. When minification fails the
// unminified markup is returned.
func RenderString(n *html.Node, minified bool) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	if !minified {
		return b.String()
	}
	out, err := getMinifier().String("text/html", b.String())
	if err != nil {
		return b.String()
	}
	return out
}
