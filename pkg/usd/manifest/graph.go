package manifest

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/usdglb/pkg/usd"
)

type property struct {
	name  string
	value usd.Value
	rel   bool
}

type prim struct {
	name     string
	typ      string
	props    []property
	children []usd.Handle
}

// Graph is a parsed manifest. Handles index prims from one.
type Graph struct {
	prims    []prim
	roots    []usd.Handle
	released atomic.Bool
}

type document struct {
	Prims []primSpec `yaml:"prims"`
}

type primSpec struct {
	Name          string     `yaml:"name"`
	Type          string     `yaml:"type"`
	Attributes    yaml.Node  `yaml:"attributes"`
	Relationships []string   `yaml:"relationships"`
	Children      []primSpec `yaml:"children"`
}

type attrSpec struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// Parse builds a graph from manifest text. Every attribute value is decoded
// up front, so a graph that parses is fully readable.
func Parse(data []byte) (*Graph, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if len(doc.Prims) == 0 {
		return nil, errors.New("manifest: no prims")
	}

	g := &Graph{}
	for i := range doc.Prims {
		h, err := g.add(&doc.Prims[i])
		if err != nil {
			return nil, err
		}
		g.roots = append(g.roots, h)
	}
	return g, nil
}

func (g *Graph) add(spec *primSpec) (usd.Handle, error) {
	if spec.Name == "" {
		return usd.NilHandle, errors.New("manifest: prim without a name")
	}
	for _, r := range spec.Name {
		if r == '/' || r == '.' {
			return usd.NilHandle, fmt.Errorf("manifest: invalid prim name %q", spec.Name)
		}
	}

	props, err := parseAttributes(spec.Name, &spec.Attributes)
	if err != nil {
		return usd.NilHandle, err
	}
	for _, rel := range spec.Relationships {
		props = append(props, property{name: rel, rel: true})
	}

	g.prims = append(g.prims, prim{name: spec.Name, typ: spec.Type, props: props})
	h := usd.Handle(len(g.prims))

	for i := range spec.Children {
		c, err := g.add(&spec.Children[i])
		if err != nil {
			return usd.NilHandle, err
		}
		p := &g.prims[h-1]
		p.children = append(p.children, c)
	}
	return h, nil
}

func parseAttributes(owner string, n *yaml.Node) ([]property, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest: line %d: attributes of %s must be a mapping", n.Line, owner)
	}

	props := make([]property, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var spec attrSpec
		if err := val.Decode(&spec); err != nil {
			return nil, fmt.Errorf("manifest: line %d: attribute %s: %w", key.Line, key.Value, err)
		}
		v, err := decodeValue(spec.Type, &spec.Value)
		if err != nil {
			return nil, fmt.Errorf("manifest: line %d: attribute %s.%s: %w", key.Line, owner, key.Value, err)
		}
		props = append(props, property{name: key.Value, value: v})
	}
	return props, nil
}

func (g *Graph) prim(h usd.Handle) *prim {
	if h == usd.NilHandle || int(h) > len(g.prims) || g.released.Load() {
		return nil
	}
	return &g.prims[h-1]
}

// Roots implements usd.Graph.
func (g *Graph) Roots() []usd.Handle {
	if g.released.Load() {
		return nil
	}
	return g.roots
}

// Traverse implements usd.Graph.
func (g *Graph) Traverse(visit func(h usd.Handle) bool) error {
	if g.released.Load() {
		return errors.New("manifest: graph released")
	}
	var walk func(h usd.Handle) bool
	walk = func(h usd.Handle) bool {
		if !visit(h) {
			return false
		}
		for _, c := range g.prims[h-1].children {
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

// TypeName implements usd.Graph.
func (g *Graph) TypeName(h usd.Handle) string {
	if p := g.prim(h); p != nil {
		return p.typ
	}
	return ""
}

// Name implements usd.Graph.
func (g *Graph) Name(h usd.Handle) string {
	if p := g.prim(h); p != nil {
		return p.name
	}
	return ""
}

// NumChildren implements usd.Graph.
func (g *Graph) NumChildren(h usd.Handle) int {
	if p := g.prim(h); p != nil {
		return len(p.children)
	}
	return 0
}

// Child implements usd.Graph.
func (g *Graph) Child(h usd.Handle, i int) (usd.Handle, bool) {
	p := g.prim(h)
	if p == nil || i < 0 || i >= len(p.children) {
		return usd.NilHandle, false
	}
	return p.children[i], true
}

// PropertyNames implements usd.Graph. Attributes come first in file order,
// then relationships.
func (g *Graph) PropertyNames(h usd.Handle) ([]string, error) {
	p := g.prim(h)
	if p == nil {
		return nil, fmt.Errorf("manifest: no prim for handle %d", h)
	}
	names := make([]string, len(p.props))
	for i, prop := range p.props {
		names[i] = prop.name
	}
	return names, nil
}

// Attribute implements usd.AttributeReader.
func (g *Graph) Attribute(h usd.Handle, name string) (usd.Value, error) {
	p := g.prim(h)
	if p == nil {
		return usd.Value{}, fmt.Errorf("manifest: no prim for handle %d", h)
	}
	for _, prop := range p.props {
		if prop.name != name {
			continue
		}
		if prop.rel {
			return usd.Value{}, usd.ErrAttributeNotFound
		}
		return prop.value, nil
	}
	return usd.Value{}, usd.ErrPropertyNotFound
}

// Release implements usd.Graph. A second release is an error.
func (g *Graph) Release() error {
	if g.released.Swap(true) {
		return errors.New("manifest: graph already released")
	}
	return nil
}
