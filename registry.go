package databind

import (
	"fmt"
	"sort"
	"sync"

	"github.com/livefir/databind/internal/format"
)

// FormatRegistry maps data-format names to formatters.
//
// Lookups are resolved once per name and never through reflection: a name
// that was not registered fails with ErrUnknownFormat.
//
// Thread-safe: safe for concurrent registration and lookup.
type FormatRegistry struct {
	formats map[string]Formatter
	mu      sync.RWMutex
}

// NewFormatRegistry creates a registry holding the built-in formatters:
// text, date, datetime, time, upper, lower, trim, number and percent.
// Number and percent use locale for grouping and decimal marks.
func NewFormatRegistry(locale string) (*FormatRegistry, error) {
	num, err := format.NewNumber(locale, false)
	if err != nil {
		return nil, err
	}
	pct, err := format.NewNumber(locale, true)
	if err != nil {
		return nil, err
	}

	r := &FormatRegistry{formats: make(map[string]Formatter)}
	r.Register("text", format.Text{})
	r.Register("date", format.Time{Layout: "2006-01-02"})
	r.Register("datetime", format.Time{Layout: "2006-01-02T15:04:05Z07:00"})
	r.Register("time", format.Time{Layout: "15:04"})
	r.Register("upper", format.Upper{})
	r.Register("lower", format.Lower{})
	r.Register("trim", format.Trim{})
	r.Register("number", num)
	r.Register("percent", pct)
	return r, nil
}

// Register adds or replaces the formatter for name
func (r *FormatRegistry) Register(name string, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[name] = f
}

// Resolve returns the formatter registered under name
func (r *FormatRegistry) Resolve(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Names returns the registered names in sorted order
func (r *FormatRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ElementRegistry maps data-class names to element factories.
//
// Thread-safe: safe for concurrent registration and lookup.
type ElementRegistry struct {
	factories map[string]ElementFactory
	mu        sync.RWMutex
}

// NewElementRegistry creates an empty element registry
func NewElementRegistry() *ElementRegistry {
	return &ElementRegistry{factories: make(map[string]ElementFactory)}
}

// Register adds or replaces the factory for name
func (r *ElementRegistry) Register(name string, factory ElementFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Resolve returns the factory registered under name
func (r *ElementRegistry) Resolve(name string) (ElementFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, name)
	}
	return f, nil
}

// Names returns the registered names in sorted order
func (r *ElementRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
