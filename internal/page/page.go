// Package page renders a template file bound to a data file, the unit the
// databind command line works on.
package page

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/livefir/databind"
	"github.com/livefir/databind/internal/value"
)

// Page is a template file paired with the data file bound into it
type Page struct {
	TemplatePath string
	DataPath     string // empty binds null
	Fragment     bool   // the template is a fragment, not a full document
	Minify       bool
}

// Result is one rendering of a page
type Result struct {
	HTML []byte
	Hash string // sha256 of HTML, used to skip unchanged reloads
}

// Render reads both files, binds the data and renders the result
func (p *Page) Render(b *databind.Binder) (*Result, error) {
	data, err := p.LoadData()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if p.Fragment {
		root, err := databind.ParseFragment(f)
		if err != nil {
			return nil, err
		}
		if err := b.InjectFragment(root, data); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", p.TemplatePath, err)
		}
		if err := databind.Render(&buf, root, p.Minify); err != nil {
			return nil, err
		}
	} else {
		doc, err := databind.Parse(f)
		if err != nil {
			return nil, err
		}
		if err := b.Inject(doc, data); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", p.TemplatePath, err)
		}
		if err := databind.Render(&buf, doc, p.Minify); err != nil {
			return nil, err
		}
	}

	sum := sha256.Sum256(buf.Bytes())
	return &Result{HTML: buf.Bytes(), Hash: hex.EncodeToString(sum[:])}, nil
}

// LoadData decodes the page's YAML or JSON data file
func (p *Page) LoadData() (any, error) {
	if p.DataPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(p.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	v, err := value.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p.DataPath, err)
	}
	return v, nil
}

// Files returns the paths a change to which invalidates the page
func (p *Page) Files() []string {
	files := []string{p.TemplatePath}
	if p.DataPath != "" {
		files = append(files, p.DataPath)
	}
	return files
}
