package glb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/taigrr/usdglb/pkg/math3d"
	"github.com/taigrr/usdglb/pkg/models"
)

// DefaultGenerator is written to asset.generator.
const DefaultGenerator = "usdglb"

var (
	// ErrEmptyMesh is returned by Add for meshes with no points or no
	// indices. Skipping them does not affect other meshes.
	ErrEmptyMesh = errors.New("glb: mesh has no points or no indices")

	// ErrNoGeometry is returned by Add for meshes whose geometry could not
	// be read from the scene.
	ErrNoGeometry = errors.New("glb: mesh geometry unavailable")

	// ErrNotTriangulated is returned by Add for meshes with non-triangle
	// faces.
	ErrNotTriangulated = errors.New("glb: mesh is not triangulated")

	// ErrNonFinite is returned by Add when a point is NaN or infinite.
	ErrNonFinite = errors.New("glb: mesh has non-finite points")
)

// IndexRangeError reports a face index outside the point array.
type IndexRangeError struct {
	Mesh   string
	Offset int
	Index  int
	Points int
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("glb: mesh %s: index %d at %d is outside %d points", e.Mesh, e.Index, e.Offset, e.Points)
}

// Builder accumulates meshes into one glTF document backed by a single
// binary buffer.
type Builder struct {
	doc   *gltf.Document
	buf   []byte
	nodes []int
	log   *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithGenerator sets asset.generator.
func WithGenerator(name string) BuilderOption {
	return func(b *Builder) { b.doc.Asset.Generator = name }
}

// WithLogger sets the logger used to report skipped meshes.
func WithLogger(log *zap.Logger) BuilderOption {
	return func(b *Builder) { b.log = log }
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		doc: &gltf.Document{
			Asset: gltf.Asset{Version: "2.0", Generator: DefaultGenerator},
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the number of meshes added so far.
func (b *Builder) Len() int {
	return len(b.nodes)
}

func (b *Builder) check(m *models.Mesh) error {
	if !m.HasGeometry() {
		return ErrNoGeometry
	}
	if len(m.Points) == 0 || len(m.FaceVertexIndices) == 0 {
		return ErrEmptyMesh
	}
	if !m.IsTriangulated() || len(m.FaceVertexIndices) != 3*len(m.FaceVertexCounts) {
		return ErrNotTriangulated
	}
	for i, idx := range m.FaceVertexIndices {
		if idx < 0 || idx >= len(m.Points) {
			return &IndexRangeError{Mesh: m.Name, Offset: i, Index: idx, Points: len(m.Points)}
		}
	}
	return nil
}

// Add appends a triangulated mesh and returns the index of the node that
// holds it. Meshes that cannot be written are rejected with an error and
// leave the builder unchanged.
func (b *Builder) Add(m *models.Mesh) (int, error) {
	if err := b.check(m); err != nil {
		b.log.Debug("skipping mesh", zap.String("mesh", m.Name), zap.Error(err))
		return -1, err
	}
	bounds := math3d.Bounds32(m.Points)
	if !bounds.Finite() {
		b.log.Debug("skipping mesh", zap.String("mesh", m.Name), zap.Error(ErrNonFinite))
		return -1, ErrNonFinite
	}

	posView := b.appendView(len(m.Points)*12, 12, gltf.TargetArrayBuffer, func(buf []byte) []byte {
		for _, p := range m.Points {
			f := p.Float32()
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f[0]))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f[1]))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f[2]))
		}
		return buf
	})
	idxView := b.appendView(len(m.FaceVertexIndices)*4, 0, gltf.TargetElementArrayBuffer, func(buf []byte) []byte {
		for _, idx := range m.FaceVertexIndices {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(idx))
		}
		return buf
	})

	posAcc := len(b.doc.Accessors)
	b.doc.Accessors = append(b.doc.Accessors,
		&gltf.Accessor{
			BufferView:    gltf.Index(posView),
			ComponentType: gltf.ComponentFloat,
			Count:         len(m.Points),
			Type:          gltf.AccessorVec3,
			Min:           bounds.Min.Array(),
			Max:           bounds.Max.Array(),
		},
		&gltf.Accessor{
			BufferView:    gltf.Index(idxView),
			ComponentType: gltf.ComponentUint,
			Count:         len(m.FaceVertexIndices),
			Type:          gltf.AccessorScalar,
		},
	)

	meshIdx := len(b.doc.Meshes)
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: posAcc},
			Indices:    gltf.Index(posAcc + 1),
			Mode:       gltf.PrimitiveTriangles,
		}},
	})

	node := &gltf.Node{Name: m.Name, Mesh: gltf.Index(meshIdx)}
	if !m.World.IsIdentity() {
		node.Matrix = [16]float64(m.World)
	}
	nodeIdx := len(b.doc.Nodes)
	b.doc.Nodes = append(b.doc.Nodes, node)
	b.nodes = append(b.nodes, nodeIdx)
	return nodeIdx, nil
}

// appendView writes size bytes with write, pads the buffer to 4 bytes and
// registers a buffer view over the unpadded range.
func (b *Builder) appendView(size, stride int, target gltf.Target, write func([]byte) []byte) int {
	offset := len(b.buf)
	b.buf = write(b.buf)
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, binPad)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: size,
		ByteStride: stride,
		Target:     target,
	})
	return len(b.doc.BufferViews) - 1
}

// Finish registers the buffer and the default scene and returns the
// container. The builder must not be used afterwards.
func (b *Builder) Finish() *Container {
	if len(b.buf) > 0 {
		b.doc.Buffers = []*gltf.Buffer{{ByteLength: len(b.buf), Data: b.buf}}
	}
	b.doc.Scenes = []*gltf.Scene{{Nodes: b.nodes}}
	b.doc.Scene = gltf.Index(0)
	c := &Container{Document: b.doc, Binary: b.buf}
	b.doc, b.buf, b.nodes = nil, nil, nil
	return c
}
