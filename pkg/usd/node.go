package usd

import (
	"fmt"
	"slices"
)

// Node is a non-owning view of one graph node. It is valid only while its
// Scene is open. The zero Node is invalid.
//
// Nodes are comparable: two Nodes are equal when they refer to the same
// node of the same scene.
type Node struct {
	scene *Scene
	h     Handle
}

// lock read-locks the owning scene and returns its graph, or nil when the
// node is invalid. The returned func must always be called.
func (n Node) lock() (Graph, func()) {
	if n.scene == nil || n.h == NilHandle {
		return nil, func() {}
	}
	n.scene.mu.RLock()
	return n.scene.graph, n.scene.mu.RUnlock
}

// Valid reports whether the node refers to a node of an open scene.
func (n Node) Valid() bool {
	g, unlock := n.lock()
	defer unlock()
	return g != nil
}

// Scene returns the owning scene.
func (n Node) Scene() *Scene {
	return n.scene
}

// TypeName returns the node's type label, such as "Mesh" or "Xform", or ""
// when the type is unknown.
func (n Node) TypeName() string {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return ""
	}
	return g.TypeName(n.h)
}

// Name returns the node's local name.
func (n Node) Name() string {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return ""
	}
	return g.Name(n.h)
}

// Path returns the node's full path, for example "/World/Geom/Cube".
func (n Node) Path() string {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return ""
	}
	return n.scene.pathOf(g, n.h)
}

// NumChildren returns the number of direct children.
func (n Node) NumChildren() int {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return 0
	}
	return g.NumChildren(n.h)
}

// Child returns the i-th direct child, or false when i is out of range.
func (n Node) Child(i int) (Node, bool) {
	g, unlock := n.lock()
	defer unlock()
	if g == nil || i < 0 || i >= g.NumChildren(n.h) {
		return Node{}, false
	}
	c, ok := g.Child(n.h, i)
	if !ok || c == NilHandle {
		return Node{}, false
	}
	return Node{scene: n.scene, h: c}, true
}

// ChildAt is Child with an error describing why the lookup failed.
func (n Node) ChildAt(i int) (Node, error) {
	if !n.Valid() {
		return Node{}, ErrSceneClosed
	}
	c, ok := n.Child(i)
	if !ok {
		return Node{}, &IndexError{Index: i, Len: n.NumChildren()}
	}
	return c, nil
}

// Children returns the direct children in graph order.
func (n Node) Children() []Node {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return nil
	}
	count := g.NumChildren(n.h)
	children := make([]Node, 0, count)
	for i := range count {
		if c, ok := g.Child(n.h, i); ok && c != NilHandle {
			children = append(children, Node{scene: n.scene, h: c})
		}
	}
	return children
}

// PropertyNames returns the names of the node's properties. Only names are
// guaranteed; values need a source that implements AttributeReader.
func (n Node) PropertyNames() ([]string, error) {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return nil, ErrSceneClosed
	}
	names, err := g.PropertyNames(n.h)
	if err != nil {
		return nil, fmt.Errorf("usd: property names of %s: %w", g.Name(n.h), err)
	}
	return names, nil
}

// HasProperty reports whether the node has a property called name.
func (n Node) HasProperty(name string) (bool, error) {
	names, err := n.PropertyNames()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// Attribute returns the decoded value of the named attribute.
//
// It returns ErrPropertyNotFound when the node has no such property,
// ErrAttributeNotFound when the property is not an attribute, and
// ErrValueUnsupported when the source cannot decode values.
func (n Node) Attribute(name string) (Value, error) {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return Value{}, ErrSceneClosed
	}

	names, err := g.PropertyNames(n.h)
	if err != nil {
		return Value{}, fmt.Errorf("usd: property names of %s: %w", g.Name(n.h), err)
	}
	if !slices.Contains(names, name) {
		return Value{}, fmt.Errorf("%w: %s on %s", ErrPropertyNotFound, name, g.Name(n.h))
	}

	r, ok := g.(AttributeReader)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrValueUnsupported, name)
	}
	v, err := r.Attribute(n.h, name)
	if err != nil {
		return Value{}, fmt.Errorf("usd: attribute %s on %s: %w", name, g.Name(n.h), err)
	}
	return v, nil
}

// Kind classifies the node by its type label.
func (n Node) Kind() Kind {
	return KindOf(n.TypeName())
}

func (n Node) IsMesh() bool     { return n.Kind() == KindMesh }
func (n Node) IsXform() bool    { return n.Kind() == KindXform }
func (n Node) IsMaterial() bool { return n.Kind() == KindMaterial }
func (n Node) IsShader() bool   { return n.Kind() == KindShader }
func (n Node) IsCamera() bool   { return n.Kind() == KindCamera }
func (n Node) IsScope() bool    { return n.Kind() == KindScope }

// IsLight reports whether the type label ends in "Light", which covers
// every UsdLux light type.
func (n Node) IsLight() bool { return n.Kind() == KindLight }

func (n Node) String() string {
	g, unlock := n.lock()
	defer unlock()
	if g == nil {
		return "<invalid node>"
	}
	typ := g.TypeName(n.h)
	if typ == "" {
		typ = "(no type)"
	}
	return fmt.Sprintf("%s <%s>", n.scene.pathOf(g, n.h), typ)
}
