package usd

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned for path text the OS cannot represent.
	ErrInvalidPath = errors.New("usd: invalid path")

	// ErrNullResource is returned when a source hands back an unusable graph.
	ErrNullResource = errors.New("usd: source returned a null resource")

	// ErrSceneClosed is returned by node and scene accessors after Close.
	ErrSceneClosed = errors.New("usd: scene is closed")

	// ErrPropertyNotFound is returned when a node has no property of the
	// requested name.
	ErrPropertyNotFound = errors.New("usd: property not found")

	// ErrAttributeNotFound is returned when the property exists but is not
	// an attribute (for example a relationship).
	ErrAttributeNotFound = errors.New("usd: attribute not found")

	// ErrValueUnsupported is returned when the source cannot decode
	// attribute values at all. It means "not available", not "empty".
	ErrValueUnsupported = errors.New("usd: attribute values are not supported by this source")

	// ErrExportUnsupported is returned by Scene.Export when the source
	// cannot write scenes back out.
	ErrExportUnsupported = errors.New("usd: export is not supported by this source")

	// ErrUnknownSource is returned by Lookup for unregistered names.
	ErrUnknownSource = errors.New("usd: unknown source")
)

// LoadError reports a failed load. Diagnostic is the source's own message,
// unmodified.
type LoadError struct {
	Path       string
	Diagnostic string
	Err        error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return "usd: load failed: " + e.Diagnostic
	}
	return fmt.Sprintf("usd: load %s: %s", e.Path, e.Diagnostic)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IndexError reports a child or array index past its bounds.
type IndexError struct {
	Index, Len int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("usd: index out of bounds: %d >= %d", e.Index, e.Len)
}

// TypeMismatchError reports a value requested as the wrong shape.
type TypeMismatchError struct {
	Expected string
	Actual   ValueType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("usd: type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// IOError reports a file system failure outside the source itself, such as
// staging in-memory data to a temporary file.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("usd: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
