package models

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/usdglb/pkg/math3d"
)

// GLTFLoader reads glTF and GLB files back into meshes.
type GLTFLoader struct {
	// ApplyNodes places meshes with the matrices of the nodes that
	// reference them. Unreferenced meshes keep identity transforms.
	ApplyNodes bool
}

// NewGLTFLoader creates a new glTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{ApplyNodes: true}
}

// LoadGLB loads a binary glTF (.glb) file.
func LoadGLB(path string) ([]*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// DecodeGLB reads a binary glTF stream.
func DecodeGLB(r io.Reader) ([]*Mesh, error) {
	return NewGLTFLoader().Decode(r)
}

// Load loads a glTF or GLB file and returns one mesh per glTF mesh.
func (l *GLTFLoader) Load(path string) ([]*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	meshes, err := l.fromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return meshes, nil
}

// Decode reads a glTF document from r.
func (l *GLTFLoader) Decode(r io.Reader) ([]*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return l.fromDocument(doc)
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document) ([]*Mesh, error) {
	meshes := make([]*Mesh, len(doc.Meshes))
	for i, m := range doc.Meshes {
		mesh := NewMesh(m.Name)
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
		meshes[i] = mesh
	}

	if l.ApplyNodes {
		l.placeMeshes(doc, meshes)
	}
	return meshes, nil
}

// placeMeshes walks the node tree from the default scene and sets the
// world matrix of every referenced mesh.
func (l *GLTFLoader) placeMeshes(doc *gltf.Document, meshes []*Mesh) {
	var roots []int
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		roots = doc.Scenes[*doc.Scene].Nodes
	} else {
		for i := range doc.Nodes {
			roots = append(roots, i)
		}
	}

	visited := make(map[int]bool)
	var visit func(idx int, parent math3d.Mat4)
	visit = func(idx int, parent math3d.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) || visited[idx] {
			return
		}
		visited[idx] = true
		node := doc.Nodes[idx]
		local := nodeMatrix(node)
		world := parent.Mul(local)
		if node.Mesh != nil && *node.Mesh < len(meshes) {
			mesh := meshes[*node.Mesh]
			mesh.Local = local
			mesh.World = world
			if node.Name != "" {
				mesh.Path = node.Name
			}
		}
		for _, child := range node.Children {
			visit(child, world)
		}
	}
	for _, root := range roots {
		visit(root, math3d.Identity())
	}
}

// nodeMatrix returns the node's matrix, or identity when it is unset.
func nodeMatrix(n *gltf.Node) math3d.Mat4 {
	m := math3d.Mat4(n.Matrix)
	if m == (math3d.Mat4{}) {
		return math3d.Identity()
	}
	return m
}

// processMesh appends the triangle primitives of m to mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		base := len(mesh.Points)
		mesh.Points = append(mesh.Points, positions...)
		if normals != nil {
			mesh.Normals = append(mesh.Normals, normals...)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			mesh.FaceVertexCounts = append(mesh.FaceVertexCounts, 3)
			mesh.FaceVertexIndices = append(mesh.FaceVertexIndices,
				base+indices[i], base+indices[i+1], base+indices[i+2])
		}
	}
	if mesh.Normals != nil && len(mesh.Normals) != len(mesh.Points) {
		mesh.Normals = nil
	}
	return nil
}

// readVec3Accessor reads float VEC3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		result[i] = math3d.V3(
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
		)
	}
	return result, nil
}

// readIndices reads unsigned SCALAR index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index component type: %v", accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		switch size {
		case 1:
			result[i] = int(b[0])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(b))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return result, nil
}

func accessorAt(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range (%d accessors)", idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

// accessorBytes returns the buffer bytes starting at the accessor's first
// element, and the element stride. The slice is bounds-checked against
// the last element.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	if *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d out of range", *accessor.BufferView)
	}
	view := doc.BufferViews[*accessor.BufferView]
	if view.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	buffer := doc.Buffers[view.Buffer]
	if buffer.URI != "" && buffer.Data == nil {
		return nil, 0, fmt.Errorf("external buffers are not supported")
	}

	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + accessor.ByteOffset
	end := start
	if accessor.Count > 0 {
		end = start + (accessor.Count-1)*stride + elemSize
	}
	if end > len(buffer.Data) || end > view.ByteOffset+view.ByteLength {
		return nil, 0, fmt.Errorf("accessor reads past end of buffer view (%d > %d)", end, view.ByteOffset+view.ByteLength)
	}
	return buffer.Data[start:end], stride, nil
}
