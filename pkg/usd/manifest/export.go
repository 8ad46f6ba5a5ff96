package manifest

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/usdglb/pkg/math3d"
	"github.com/taigrr/usdglb/pkg/usd"
)

// header is written before the document so the output is detected as text
// USD again.
const header = "#usda 1.0\n"

type exportDocument struct {
	Prims []exportPrim `yaml:"prims"`
}

type exportPrim struct {
	Name          string       `yaml:"name"`
	Type          string       `yaml:"type,omitempty"`
	Attributes    *yaml.Node   `yaml:"attributes,omitempty"`
	Relationships []string     `yaml:"relationships,omitempty"`
	Children      []exportPrim `yaml:"children,omitempty"`
}

type exportAttr struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// Export implements usd.Exporter. The output parses back into an equal
// graph.
func (g *Graph) Export(w io.Writer) error {
	if g.released.Load() {
		return errors.New("manifest: graph released")
	}
	doc := exportDocument{Prims: make([]exportPrim, 0, len(g.roots))}
	for _, h := range g.roots {
		p, err := g.exportPrim(h)
		if err != nil {
			return err
		}
		doc.Prims = append(doc.Prims, p)
	}

	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	return enc.Close()
}

func (g *Graph) exportPrim(h usd.Handle) (exportPrim, error) {
	p := &g.prims[h-1]
	out := exportPrim{Name: p.name, Type: p.typ}

	var attrs []*yaml.Node
	for _, prop := range p.props {
		if prop.rel {
			out.Relationships = append(out.Relationships, prop.name)
			continue
		}
		v, err := encodeValue(prop.value)
		if err != nil {
			return exportPrim{}, fmt.Errorf("manifest: export %s.%s: %w", p.name, prop.name, err)
		}
		val := new(yaml.Node)
		if err := val.Encode(exportAttr{Type: prop.value.Type().String(), Value: v}); err != nil {
			return exportPrim{}, fmt.Errorf("manifest: export %s.%s: %w", p.name, prop.name, err)
		}
		val.Style = yaml.FlowStyle
		attrs = append(attrs, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: prop.name}, val)
	}
	if len(attrs) > 0 {
		out.Attributes = &yaml.Node{Kind: yaml.MappingNode, Content: attrs}
	}

	for _, c := range p.children {
		child, err := g.exportPrim(c)
		if err != nil {
			return exportPrim{}, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

// encodeValue is the inverse of decodeValue.
func encodeValue(v usd.Value) (any, error) {
	switch v.Type() {
	case usd.TypeToken, usd.TypeString:
		return v.Text()
	case usd.TypeBool:
		return v.Bool()
	case usd.TypeInt:
		return v.Int()
	case usd.TypeFloat, usd.TypeDouble:
		return v.Float()
	case usd.TypeFloat2:
		x, err := v.Vec2()
		return vec2(x), err
	case usd.TypeFloat3, usd.TypeColor3f:
		x, err := v.Vec3()
		return vec3(x), err
	case usd.TypeMatrix4d:
		m, err := v.Matrix()
		return m.Rows(), err
	case usd.TypeIntArray:
		return v.Ints()
	case usd.TypeTokenArray:
		return v.Tokens()
	case usd.TypeFloat2Array, usd.TypeTexCoord2fArray:
		a, err := v.Vec2s()
		if err != nil {
			return nil, err
		}
		out := make([][]float64, len(a))
		for i, x := range a {
			out[i] = vec2(x)
		}
		return out, nil
	case usd.TypePoint3fArray, usd.TypeNormal3fArray, usd.TypeVector3fArray, usd.TypeColor3fArray:
		a, err := v.Vec3s()
		if err != nil {
			return nil, err
		}
		out := make([][]float64, len(a))
		for i, x := range a {
			out[i] = vec3(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("type %s has no manifest encoding", v.Type())
}

func vec2(v math3d.Vec2) []float64 { return []float64{v.X, v.Y} }
func vec3(v math3d.Vec3) []float64 { return []float64{v.X, v.Y, v.Z} }
