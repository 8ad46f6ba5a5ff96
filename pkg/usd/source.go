package usd

import (
	"fmt"
	"io"
	"slices"
	"sync"
)

// Handle is an opaque reference to one node inside a Graph. Its meaning is
// private to the graph that produced it. NilHandle is never a valid node.
type Handle uint64

// NilHandle is the zero Handle.
const NilHandle Handle = 0

// Graph is a loaded scene as presented by a Source. It is owned by the
// Scene that wraps it and released exactly once through Release.
//
// Implementations must be safe for concurrent readers.
type Graph interface {
	// Roots returns the top-level nodes in the order the layer declares them.
	Roots() []Handle

	// Traverse visits every node in depth-first pre-order. Returning false
	// from visit stops the walk.
	Traverse(visit func(h Handle) bool) error

	TypeName(h Handle) string
	Name(h Handle) string
	NumChildren(h Handle) int

	// Child returns the i-th child of h, or false past the last child.
	Child(h Handle, i int) (Handle, bool)

	PropertyNames(h Handle) ([]string, error)

	// Release frees the underlying resource.
	Release() error
}

// AttributeReader is implemented by graphs that can decode attribute
// values. Graphs without it report ErrValueUnsupported.
type AttributeReader interface {
	Attribute(h Handle, name string) (Value, error)
}

// Exporter is implemented by graphs that can write themselves back out as
// text the same source can load again.
type Exporter interface {
	Export(w io.Writer) error
}

// Source produces a Graph from a file. A failed load returns an error whose
// text is the source's diagnostic.
type Source interface {
	Load(path string, format Format) (Graph, error)
}

var (
	sourcesMu sync.RWMutex
	sources   = make(map[string]Source)
)

// Register makes a source available by name. It panics if Register is
// called twice with the same name or if src is nil.
func Register(name string, src Source) {
	sourcesMu.Lock()
	defer sourcesMu.Unlock()
	if src == nil {
		panic("usd: Register source is nil")
	}
	if _, dup := sources[name]; dup {
		panic("usd: Register called twice for source " + name)
	}
	sources[name] = src
}

// Lookup returns the source registered under name.
func Lookup(name string) (Source, error) {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	src, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return src, nil
}

// Sources returns a sorted list of the names of the registered sources.
func Sources() []string {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
