package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taigrr/usdglb/pkg/math3d"
	"github.com/taigrr/usdglb/pkg/usd"
)

// Extraction is the result of ExtractMeshes. Meshes that could not be read
// are reported in Failures and do not stop the remaining meshes.
type Extraction struct {
	Meshes   []*Mesh
	Failures []*MeshError
}

// ExtractMeshes returns one Mesh per Mesh prim, in traversal order.
//
// Geometry and transforms are read when the scene source decodes attribute
// values. When it does not, meshes carry their name, path and property
// names with Geometry set to GeometryUnavailable.
func ExtractMeshes(scene *usd.Scene) (*Extraction, error) {
	result := &Extraction{}

	// Index i holds the world transform (or transform error) of the
	// current ancestor at depth i.
	var worlds []math3d.Mat4
	var broken []error

	err := scene.Walk(func(e usd.Entry) error {
		worlds = worlds[:e.Depth]
		broken = broken[:e.Depth]

		parent := math3d.Identity()
		var parentErr error
		if e.Depth > 0 {
			parent = worlds[e.Depth-1]
			parentErr = broken[e.Depth-1]
		}

		local, err := localTransform(e.Node)
		if err != nil && !errors.Is(err, usd.ErrValueUnsupported) {
			err = fmt.Errorf("transform: %w", err)
		} else {
			err = nil
		}
		if err == nil {
			err = parentErr
		}
		world := parent.Mul(local)
		worlds = append(worlds, world)
		broken = append(broken, err)

		if !e.Node.IsMesh() {
			return nil
		}
		if err != nil {
			result.Failures = append(result.Failures, &MeshError{Path: e.Path, Err: err})
			return nil
		}

		mesh, err := readMesh(e.Node, e.Path)
		if err != nil {
			result.Failures = append(result.Failures, &MeshError{Path: e.Path, Err: err})
			return nil
		}
		mesh.Local = local
		mesh.World = world
		result.Meshes = append(result.Meshes, mesh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// attribute reads name from n. A missing property is reported as
// found == false with a nil error.
func attribute(n usd.Node, name string) (v usd.Value, found bool, err error) {
	v, err = n.Attribute(name)
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, usd.ErrPropertyNotFound):
		return usd.Value{}, false, nil
	default:
		return usd.Value{}, false, err
	}
}

func readMesh(n usd.Node, path string) (*Mesh, error) {
	mesh := NewMesh(n.Name())
	mesh.Path = path

	props, err := n.PropertyNames()
	if err != nil {
		return nil, err
	}
	mesh.Properties = props

	points, found, err := attribute(n, "points")
	if errors.Is(err, usd.ErrValueUnsupported) {
		mesh.Geometry = GeometryUnavailable
		return mesh, nil
	}
	if err != nil {
		return nil, err
	}
	if found {
		if mesh.Points, err = points.Vec3s(); err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
	}

	if mesh.FaceVertexCounts, err = readInts(n, "faceVertexCounts"); err != nil {
		return nil, err
	}
	if mesh.FaceVertexIndices, err = readInts(n, "faceVertexIndices"); err != nil {
		return nil, err
	}

	normals, found, err := attribute(n, "normals")
	if err != nil {
		return nil, err
	}
	if found {
		if mesh.Normals, err = normals.Vec3s(); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		// Face-varying normals are not carried.
		if len(mesh.Normals) != len(mesh.Points) {
			mesh.Normals = nil
		}
	}

	st, found, err := attribute(n, "primvars:st")
	if err != nil {
		return nil, err
	}
	if found {
		if mesh.UVs, err = st.Vec2s(); err != nil {
			return nil, fmt.Errorf("primvars:st: %w", err)
		}
		if len(mesh.UVs) != len(mesh.Points) {
			mesh.UVs = nil
		}
	}

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func readInts(n usd.Node, name string) ([]int, error) {
	v, found, err := attribute(n, name)
	if err != nil || !found {
		return nil, err
	}
	ints, err := v.Ints()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ints, nil
}

// localTransform composes the prim's xformOpOrder. Ops listed first are
// applied last. A prim without xformOpOrder has an identity transform.
func localTransform(n usd.Node) (math3d.Mat4, error) {
	order, found, err := attribute(n, "xformOpOrder")
	if err != nil || !found {
		return math3d.Identity(), err
	}
	ops, err := order.Tokens()
	if err != nil {
		return math3d.Identity(), fmt.Errorf("xformOpOrder: %w", err)
	}

	m := math3d.Identity()
	for _, op := range ops {
		if strings.HasPrefix(op, "!resetXformStack!") {
			continue
		}
		if strings.HasPrefix(op, "!invert!") {
			return math3d.Identity(), fmt.Errorf("inverted op %s is not supported", op)
		}
		opm, err := xformOp(n, op)
		if err != nil {
			return math3d.Identity(), err
		}
		m = m.Mul(opm)
	}
	return m, nil
}

func xformOp(n usd.Node, op string) (math3d.Mat4, error) {
	v, found, err := attribute(n, op)
	if err != nil {
		return math3d.Identity(), err
	}
	if !found {
		return math3d.Identity(), fmt.Errorf("%s listed in xformOpOrder but not authored", op)
	}

	kind, _, _ := strings.Cut(strings.TrimPrefix(op, "xformOp:"), ":")
	switch kind {
	case "transform":
		m, err := v.Matrix()
		if err != nil {
			return math3d.Identity(), fmt.Errorf("%s: %w", op, err)
		}
		return m, nil
	case "translate", "scale":
		vec, err := v.Vec3()
		if err != nil {
			return math3d.Identity(), fmt.Errorf("%s: %w", op, err)
		}
		if kind == "translate" {
			return math3d.Translate(vec), nil
		}
		return math3d.Scale(vec), nil
	case "rotateX", "rotateY", "rotateZ":
		deg, err := v.Float()
		if err != nil {
			return math3d.Identity(), fmt.Errorf("%s: %w", op, err)
		}
		rad := math3d.Radians(deg)
		switch kind {
		case "rotateX":
			return math3d.RotateX(rad), nil
		case "rotateY":
			return math3d.RotateY(rad), nil
		}
		return math3d.RotateZ(rad), nil
	case "rotateXYZ":
		// rotateXYZ applies X first.
		deg, err := v.Vec3()
		if err != nil {
			return math3d.Identity(), fmt.Errorf("%s: %w", op, err)
		}
		return math3d.RotateZ(math3d.Radians(deg.Z)).
			Mul(math3d.RotateY(math3d.Radians(deg.Y))).
			Mul(math3d.RotateX(math3d.Radians(deg.X))), nil
	}
	return math3d.Identity(), fmt.Errorf("unsupported xform op %s", op)
}

// ExtractMaterials returns one Material per Material prim, in traversal
// order.
//
// Inputs authored on the material or on its Shader children override the
// defaults. When the source cannot decode values every material keeps its
// defaults with Defaulted set. Inputs of the wrong type are skipped and
// reported in the returned error, which joins every such problem; the
// materials are returned either way.
func ExtractMaterials(scene *usd.Scene) ([]*Material, error) {
	var materials []*Material
	var errs []error

	err := scene.Walk(func(e usd.Entry) error {
		if !e.Node.IsMaterial() {
			return nil
		}
		mat := NewMaterial(e.Node.Name())
		mat.Path = e.Path

		nodes := []usd.Node{e.Node}
		for _, c := range e.Node.Children() {
			if c.IsShader() {
				nodes = append(nodes, c)
			}
		}
		for _, n := range nodes {
			err := readInputs(n, mat)
			if errors.Is(err, usd.ErrValueUnsupported) {
				*mat = *NewMaterial(mat.Name)
				mat.Path = e.Path
				mat.Defaulted = true
				break
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("material %s: %w", e.Path, err))
			}
		}
		materials = append(materials, mat)
		return usd.SkipChildren
	})
	if err != nil {
		return nil, err
	}
	return materials, errors.Join(errs...)
}

// textureSlots maps a texture shader's name to the material slot it
// feeds.
var textureSlots = []struct {
	key string
	set func(m *Material, file string)
}{
	{"normal", func(m *Material, f string) { m.NormalTexture = f }},
	{"occlusion", func(m *Material, f string) { m.OcclusionTexture = f }},
	{"emissive", func(m *Material, f string) { m.EmissiveTexture = f }},
	{"metal", func(m *Material, f string) { m.MetallicRoughnessTexture = f }},
	{"rough", func(m *Material, f string) { m.MetallicRoughnessTexture = f }},
	{"diffuse", func(m *Material, f string) { m.DiffuseTexture = f }},
	{"albedo", func(m *Material, f string) { m.DiffuseTexture = f }},
	{"color", func(m *Material, f string) { m.DiffuseTexture = f }},
}

func readInputs(n usd.Node, mat *Material) error {
	props, err := n.PropertyNames()
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range props {
		input, ok := strings.CutPrefix(name, "inputs:")
		if !ok {
			continue
		}
		v, err := n.Attribute(name)
		if errors.Is(err, usd.ErrValueUnsupported) {
			return err
		}
		if errors.Is(err, usd.ErrAttributeNotFound) {
			// Connections are relationships, not values.
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyInput(n, mat, input, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func applyInput(n usd.Node, mat *Material, input string, v usd.Value) error {
	setVec := func(dst **math3d.Vec3) error {
		c, err := v.Vec3()
		if err == nil {
			*dst = &c
		}
		return err
	}
	setFloat := func(dst **float64) error {
		f, err := v.Float()
		if err == nil {
			*dst = &f
		}
		return err
	}

	switch input {
	case "diffuseColor":
		return setVec(&mat.DiffuseColor)
	case "emissiveColor":
		return setVec(&mat.EmissiveColor)
	case "metallic":
		return setFloat(&mat.Metallic)
	case "roughness":
		return setFloat(&mat.Roughness)
	case "opacity":
		return setFloat(&mat.Opacity)
	case "ior":
		return setFloat(&mat.IOR)
	case "clearcoat":
		return setFloat(&mat.Clearcoat)
	case "clearcoatRoughness":
		return setFloat(&mat.ClearcoatRoughness)
	case "file":
		file, err := v.Text()
		if err != nil {
			return err
		}
		name := strings.ToLower(n.Name())
		for _, slot := range textureSlots {
			if strings.Contains(name, slot.key) {
				slot.set(mat, file)
				return nil
			}
		}
		mat.DiffuseTexture = file
	}
	return nil
}
