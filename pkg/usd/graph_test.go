package usd

import (
	"errors"
	"sync/atomic"
)

type fakeNode struct {
	name     string
	typ      string
	props    []string
	children []Handle
}

// fakeGraph is an in-memory Graph. Handles are indices into nodes plus one.
type fakeGraph struct {
	nodes    []fakeNode
	roots    []Handle
	releases atomic.Int32
}

func (g *fakeGraph) add(parent Handle, name, typ string, props ...string) Handle {
	g.nodes = append(g.nodes, fakeNode{name: name, typ: typ, props: props})
	h := Handle(len(g.nodes))
	if parent == NilHandle {
		g.roots = append(g.roots, h)
	} else {
		p := &g.nodes[parent-1]
		p.children = append(p.children, h)
	}
	return h
}

func (g *fakeGraph) node(h Handle) *fakeNode {
	if h == NilHandle || int(h) > len(g.nodes) {
		return nil
	}
	return &g.nodes[h-1]
}

func (g *fakeGraph) Roots() []Handle { return g.roots }

func (g *fakeGraph) Traverse(visit func(Handle) bool) error {
	var walk func(h Handle) bool
	walk = func(h Handle) bool {
		if !visit(h) {
			return false
		}
		for _, c := range g.node(h).children {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	for _, r := range g.roots {
		if !walk(r) {
			break
		}
	}
	return nil
}

func (g *fakeGraph) TypeName(h Handle) string { return g.node(h).typ }
func (g *fakeGraph) Name(h Handle) string     { return g.node(h).name }
func (g *fakeGraph) NumChildren(h Handle) int { return len(g.node(h).children) }

func (g *fakeGraph) Child(h Handle, i int) (Handle, bool) {
	c := g.node(h).children
	if i < 0 || i >= len(c) {
		return NilHandle, false
	}
	return c[i], true
}

func (g *fakeGraph) PropertyNames(h Handle) ([]string, error) {
	return g.node(h).props, nil
}

func (g *fakeGraph) Release() error {
	if g.releases.Add(1) > 1 {
		return errors.New("released twice")
	}
	return nil
}

// readerGraph adds attribute decoding to fakeGraph.
type readerGraph struct {
	*fakeGraph
	values map[string]Value
}

func (g *readerGraph) Attribute(h Handle, name string) (Value, error) {
	v, ok := g.values[name]
	if !ok {
		return Value{}, ErrAttributeNotFound
	}
	return v, nil
}

// sampleGraph builds:
//
//	/World (Xform)
//	  /Geom (Scope)
//	    /Cube (Mesh)
//	    /Sphere (Mesh)
//	  /Sun (DistantLight)
//	/Looks (Scope)
//	  /Red (Material)
func sampleGraph() *fakeGraph {
	g := &fakeGraph{}
	world := g.add(NilHandle, "World", "Xform", "xformOp:transform", "xformOpOrder")
	geom := g.add(world, "Geom", "Scope")
	g.add(geom, "Cube", "Mesh", "points", "faceVertexCounts", "faceVertexIndices", "material:binding")
	g.add(geom, "Sphere", "Mesh", "points")
	g.add(world, "Sun", "DistantLight", "inputs:intensity")
	looks := g.add(NilHandle, "Looks", "Scope")
	g.add(looks, "Red", "Material")
	return g
}

type fakeSource struct {
	graph Graph
	err   error
	paths []string
}

func (s *fakeSource) Load(path string, _ Format) (Graph, error) {
	s.paths = append(s.paths, path)
	return s.graph, s.err
}
