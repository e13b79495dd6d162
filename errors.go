package databind

import (
	"errors"
	"fmt"
)

var (
	// ErrStructure is returned when a structural directive (data-list,
	// data-map) addresses a value of the wrong shape, or its node has no
	// item template. The template and the data model have drifted apart.
	ErrStructure = errors.New("structural mismatch")

	// ErrUnknownFormat is returned when data-format names an unregistered formatter
	ErrUnknownFormat = errors.New("unknown format")

	// ErrUnknownElement is returned when data-class names an unregistered element factory
	ErrUnknownElement = errors.New("unknown element class")
)

// BindError identifies the directive and path that stopped a bind pass
type BindError struct {
	Directive string
	Path      string
	Err       error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Directive, e.Path, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

func bindError(directive, path string, err error) error {
	return &BindError{Directive: directive, Path: path, Err: err}
}
