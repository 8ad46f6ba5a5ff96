package models

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/usdglb/pkg/math3d"
)

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Fatal("NewGLTFLoader returned nil")
	}
	if !loader.ApplyNodes {
		t.Error("ApplyNodes should default to true")
	}
}

// triangleDocument builds a one-triangle document with uint16 indices
// behind a translated node.
func triangleDocument() *gltf.Document {
	var buf []byte
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	for _, i := range []uint16{0, 1, 2, 0} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}

	translate := math3d.Translate(math3d.V3(5, 0, 0))
	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(buf), Data: buf}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36, ByteStride: 12},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), ComponentType: gltf.ComponentFloat, Count: 3, Type: gltf.AccessorVec3},
			{BufferView: gltf.Index(1), ComponentType: gltf.ComponentUshort, Count: 3, Type: gltf.AccessorScalar},
		},
		Meshes: []*gltf.Mesh{{
			Name: "tri",
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{gltf.POSITION: 0},
				Indices:    gltf.Index(1),
				Mode:       gltf.PrimitiveTriangles,
			}},
		}},
		Nodes:  []*gltf.Node{{Name: "/World/Tri", Mesh: gltf.Index(0), Matrix: [16]float64(translate)}},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Scene:  gltf.Index(0),
	}
}

func TestFromDocument(t *testing.T) {
	meshes, err := NewGLTFLoader().fromDocument(triangleDocument())
	if err != nil {
		t.Fatalf("fromDocument: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("got %d meshes", len(meshes))
	}
	m := meshes[0]
	if m.Name != "tri" || m.Path != "/World/Tri" {
		t.Errorf("mesh = %s %s", m.Name, m.Path)
	}
	if m.VertexCount() != 3 || m.FaceCount() != 1 {
		t.Errorf("%d points, %d faces", m.VertexCount(), m.FaceCount())
	}
	if m.Points[1] != math3d.V3(1, 0, 0) {
		t.Errorf("point 1 = %v", m.Points[1])
	}
	if got := m.World.Translation(); got != math3d.V3(5, 0, 0) {
		t.Errorf("translation = %v", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFromDocumentIgnoresNodes(t *testing.T) {
	meshes, err := (&GLTFLoader{}).fromDocument(triangleDocument())
	if err != nil {
		t.Fatalf("fromDocument: %v", err)
	}
	if !meshes[0].World.IsIdentity() {
		t.Error("world should stay identity when nodes are not applied")
	}
}

func TestAccessorPastBuffer(t *testing.T) {
	doc := triangleDocument()
	doc.Accessors[0].Count = 4
	if _, err := NewGLTFLoader().fromDocument(doc); err == nil {
		t.Error("expected error for accessor past its buffer view")
	}
}
