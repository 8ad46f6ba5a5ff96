// Package models provides the mesh and material values extracted from a
// scene, triangulation, and GLB read-back.
package models

import (
	"errors"
	"fmt"
	"slices"

	"github.com/taigrr/usdglb/pkg/math3d"
)

// GeometryStatus says whether a mesh's geometry fields hold real data.
type GeometryStatus int

const (
	// GeometryLoaded means the fields were read (they may still be empty).
	GeometryLoaded GeometryStatus = iota
	// GeometryUnavailable means the source could not decode attribute
	// values, so the fields are empty by necessity, not by data.
	GeometryUnavailable
)

func (s GeometryStatus) String() string {
	if s == GeometryUnavailable {
		return "unavailable"
	}
	return "loaded"
}

// Mesh is polygonal geometry extracted from a scene. It owns all of its
// data and stays usable after the scene is closed.
type Mesh struct {
	Name string
	Path string

	Points            []math3d.Vec3
	FaceVertexCounts  []int
	FaceVertexIndices []int

	// Normals and UVs are nil when absent. When present they hold one entry
	// per point.
	Normals []math3d.Vec3
	UVs     []math3d.Vec2

	Local math3d.Mat4
	World math3d.Mat4

	Geometry   GeometryStatus
	Properties []string
}

// NewMesh creates an empty mesh with identity transforms.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:  name,
		Local: math3d.Identity(),
		World: math3d.Identity(),
	}
}

// VertexCount returns the number of points.
func (m *Mesh) VertexCount() int {
	return len(m.Points)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.FaceVertexCounts)
}

// HasNormals reports whether per-vertex normals are present.
func (m *Mesh) HasNormals() bool {
	return m.Normals != nil
}

// HasUVs reports whether texture coordinates are present.
func (m *Mesh) HasUVs() bool {
	return m.UVs != nil
}

// HasGeometry reports whether the mesh was read with its geometry. A mesh
// can have geometry and still be empty.
func (m *Mesh) HasGeometry() bool {
	return m.Geometry == GeometryLoaded
}

// IsTriangulated reports whether every face has exactly three vertices.
func (m *Mesh) IsTriangulated() bool {
	for _, c := range m.FaceVertexCounts {
		if c != 3 {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounding box of the points.
func (m *Mesh) Bounds() math3d.AABB {
	return math3d.Bounds(m.Points)
}

var (
	// ErrFaceCounts is returned when the face counts do not add up to the
	// number of indices.
	ErrFaceCounts = errors.New("face vertex counts do not match index count")

	// ErrAttributeLength is returned when normals or UVs are not per-point.
	ErrAttributeLength = errors.New("per-vertex attribute length does not match point count")
)

// Validate checks the mesh invariants: non-negative face counts that sum to
// the index count, indices inside the point array, and per-point normals
// and UVs.
func (m *Mesh) Validate() error {
	sum := 0
	for i, c := range m.FaceVertexCounts {
		if c < 0 {
			return fmt.Errorf("face %d has negative vertex count %d", i, c)
		}
		sum += c
	}
	if sum != len(m.FaceVertexIndices) {
		return fmt.Errorf("%w: counts sum to %d, %d indices", ErrFaceCounts, sum, len(m.FaceVertexIndices))
	}
	for i, idx := range m.FaceVertexIndices {
		if idx < 0 || idx >= len(m.Points) {
			return fmt.Errorf("index %d is %d, outside %d points", i, idx, len(m.Points))
		}
	}
	if m.Normals != nil && len(m.Normals) != len(m.Points) {
		return fmt.Errorf("%w: %d normals for %d points", ErrAttributeLength, len(m.Normals), len(m.Points))
	}
	if m.UVs != nil && len(m.UVs) != len(m.Points) {
		return fmt.Errorf("%w: %d uvs for %d points", ErrAttributeLength, len(m.UVs), len(m.Points))
	}
	return nil
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := *m
	clone.Points = slices.Clone(m.Points)
	clone.FaceVertexCounts = slices.Clone(m.FaceVertexCounts)
	clone.FaceVertexIndices = slices.Clone(m.FaceVertexIndices)
	clone.Normals = slices.Clone(m.Normals)
	clone.UVs = slices.Clone(m.UVs)
	clone.Properties = slices.Clone(m.Properties)
	return &clone
}

// MeshError reports a mesh that could not be processed. Other meshes are
// unaffected.
type MeshError struct {
	Path string
	Err  error
}

func (e *MeshError) Error() string {
	return fmt.Sprintf("mesh %s: %v", e.Path, e.Err)
}

func (e *MeshError) Unwrap() error {
	return e.Err
}
