// Package usd wraps a scene graph produced by an external Source behind a
// safe, ownership-checked traversal API.
//
// A Scene owns its graph. Nodes are lightweight views that stay valid only
// while the scene is open; after Close every accessor returns zero values or
// ErrSceneClosed instead of touching released memory.
package usd

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// SkipChildren can be returned from a WalkFunc to skip the descendants of
// the current node.
var SkipChildren = errors.New("skip children")

// releaser frees a graph once. It is shared by Close and the runtime
// cleanup so whichever runs first wins.
type releaser struct {
	once  sync.Once
	graph Graph
	err   error
}

func (r *releaser) release() error {
	r.once.Do(func() {
		r.err = r.graph.Release()
	})
	return r.err
}

// Scene is a loaded scene graph.
type Scene struct {
	mu      sync.RWMutex
	graph   Graph // nil once closed
	rel     *releaser
	cleanup runtime.Cleanup

	origin string
	format Format
	log    *zap.Logger

	pathsOnce sync.Once
	paths     map[Handle]string
}

func newScene(g Graph, origin string, format Format, log *zap.Logger) *Scene {
	s := &Scene{
		graph:  g,
		rel:    &releaser{graph: g},
		origin: origin,
		format: format,
		log:    log,
	}
	s.cleanup = runtime.AddCleanup(s, func(r *releaser) {
		_ = r.release()
	}, s.rel)
	return s
}

// NewScene wraps an already loaded graph. It is mostly useful to sources
// and tests; applications use a Loader.
func NewScene(g Graph, format Format) (*Scene, error) {
	if g == nil {
		return nil, ErrNullResource
	}
	return newScene(g, "", format, zap.NewNop()), nil
}

// Origin returns the path the scene was loaded from, or "memory:<format>"
// for scenes loaded from bytes.
func (s *Scene) Origin() string {
	return s.origin
}

// Format returns the encoding the scene was loaded from.
func (s *Scene) Format() Format {
	return s.format
}

// Close releases the graph. It is safe to call more than once; only the
// first call releases. Close waits for running traversals to finish.
func (s *Scene) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return nil
	}
	s.graph = nil
	s.cleanup.Stop()
	if err := s.rel.release(); err != nil {
		return fmt.Errorf("usd: release scene: %w", err)
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Scene) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph == nil
}

// Export writes the scene as text that the scene's source can load again.
// Sources whose graphs do not implement Exporter report
// ErrExportUnsupported.
func (s *Scene) Export(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.graph == nil {
		return ErrSceneClosed
	}
	e, ok := s.graph.(Exporter)
	if !ok {
		return ErrExportUnsupported
	}
	if err := e.Export(w); err != nil {
		return fmt.Errorf("usd: export: %w", err)
	}
	return nil
}

// Roots returns the top-level nodes.
func (s *Scene) Roots() ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.graph == nil {
		return nil, ErrSceneClosed
	}
	return s.wrap(s.graph.Roots()), nil
}

// Traverse returns every node in depth-first pre-order, roots included, in
// the order the graph presents them. Each call walks the graph again and
// owns its own result, so concurrent calls are independent.
func (s *Scene) Traverse() ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.graph == nil {
		return nil, ErrSceneClosed
	}

	var nodes []Node
	err := s.graph.Traverse(func(h Handle) bool {
		if h != NilHandle {
			nodes = append(nodes, Node{scene: s, h: h})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("usd: traverse: %w", err)
	}
	return nodes, nil
}

// Entry is one node of a hierarchy walk.
type Entry struct {
	Node   Node
	Parent Node // zero for roots
	Depth  int
	Path   string
}

// Hierarchy returns every node reachable from the roots in pre-order along
// with its parent, depth and full path.
func (s *Scene) Hierarchy() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.graph == nil {
		return nil, ErrSceneClosed
	}
	return s.hierarchy(s.graph), nil
}

// WalkFunc is called for each entry of Walk.
type WalkFunc func(e Entry) error

// Walk calls fn for every entry of Hierarchy in order. If fn returns
// SkipChildren the entry's descendants are skipped; any other error stops
// the walk and is returned.
//
// The hierarchy is collected before fn runs, so fn may freely use node
// accessors or even close the scene.
func (s *Scene) Walk(fn WalkFunc) error {
	entries, err := s.Hierarchy()
	if err != nil {
		return err
	}

	skipBelow := -1
	for _, e := range entries {
		if skipBelow >= 0 {
			if e.Depth > skipBelow {
				continue
			}
			skipBelow = -1
		}
		if err := fn(e); err != nil {
			if errors.Is(err, SkipChildren) {
				skipBelow = e.Depth
				continue
			}
			return err
		}
	}
	return nil
}

// hierarchy must be called with s.mu held.
func (s *Scene) hierarchy(g Graph) []Entry {
	var entries []Entry
	var visit func(h Handle, parent Node, depth int, prefix string)
	visit = func(h Handle, parent Node, depth int, prefix string) {
		n := Node{scene: s, h: h}
		path := prefix + "/" + g.Name(h)
		entries = append(entries, Entry{Node: n, Parent: parent, Depth: depth, Path: path})
		for i := range g.NumChildren(h) {
			if c, ok := g.Child(h, i); ok && c != NilHandle {
				visit(c, n, depth+1, path)
			}
		}
	}
	for _, root := range g.Roots() {
		if root != NilHandle {
			visit(root, Node{}, 0, "")
		}
	}
	return entries
}

// pathOf must be called with s.mu held.
func (s *Scene) pathOf(g Graph, h Handle) string {
	s.pathsOnce.Do(func() {
		entries := s.hierarchy(g)
		s.paths = make(map[Handle]string, len(entries))
		for _, e := range entries {
			s.paths[e.Node.h] = e.Path
		}
	})
	if p, ok := s.paths[h]; ok {
		return p
	}
	s.log.Debug("node not reachable from roots", zap.String("name", g.Name(h)))
	return "/" + g.Name(h)
}

func (s *Scene) wrap(hs []Handle) []Node {
	nodes := make([]Node, 0, len(hs))
	for _, h := range hs {
		if h != NilHandle {
			nodes = append(nodes, Node{scene: s, h: h})
		}
	}
	return nodes
}
