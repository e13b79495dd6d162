// Package content resolves dotted property paths against a value graph.
package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/livefir/databind/internal/value"
)

// Self is the identity path: the current scope itself
const Self = "."

// ErrMissing is returned when a path segment does not exist.
// A present key holding nil is not missing.
var ErrMissing = errors.New("property missing")

// PathError reports the segment at which resolution stopped
type PathError struct {
	Path    string
	Segment string
	Err     error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: segment %q: %v", e.Path, e.Segment, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Get resolves path against scope.
// "." (or an empty path) returns scope unchanged. Segments traverse Map and
// Object nodes by key and List nodes by decimal index.
func Get(scope any, path string) (any, error) {
	if path == Self || path == "" {
		return scope, nil
	}

	current := scope
	for _, segment := range strings.Split(strings.Trim(path, "."), ".") {
		if segment == "" {
			continue
		}
		next, ok := step(current, segment)
		if !ok {
			return nil, &PathError{Path: path, Segment: segment, Err: ErrMissing}
		}
		current = next
	}
	return current, nil
}

// Lookup is Get with missing values collapsed to nil
func Lookup(scope any, path string) any {
	v, err := Get(scope, path)
	if err != nil {
		return nil
	}
	return v
}

func step(current any, segment string) (any, bool) {
	switch value.KindOf(current) {
	case value.MapKind, value.Object:
		return value.Get(current, segment)
	case value.List:
		idx, err := strconv.Atoi(segment)
		if err != nil {
			if segment == "length" {
				return value.Len(current), true
			}
			return nil, false
		}
		items := value.Items(current)
		if idx < 0 || idx >= len(items) {
			return nil, false
		}
		return items[idx], true
	}
	return nil, false
}
