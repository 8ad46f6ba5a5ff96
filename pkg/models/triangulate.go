package models

import (
	"fmt"
	"slices"
)

// Triangulate returns a copy of m in which every face is a triangle. m is
// not modified.
//
// Faces with fewer than three vertices are dropped. Triangles pass through.
// Larger faces are fan-triangulated from their first vertex in their
// original index order, which assumes convex, planar polygons.
//
// Points, normals, UVs and transforms are carried over unchanged, so
// triangulating a triangle mesh returns an equal mesh.
func Triangulate(m *Mesh) (*Mesh, error) {
	sum := 0
	for i, c := range m.FaceVertexCounts {
		if c < 0 {
			return nil, fmt.Errorf("triangulate %s: face %d has negative vertex count %d", m.Name, i, c)
		}
		sum += c
	}
	if sum != len(m.FaceVertexIndices) {
		return nil, fmt.Errorf("triangulate %s: %w: counts sum to %d, %d indices",
			m.Name, ErrFaceCounts, sum, len(m.FaceVertexIndices))
	}

	out := *m
	out.Points = slices.Clone(m.Points)
	out.Normals = slices.Clone(m.Normals)
	out.UVs = slices.Clone(m.UVs)
	out.Properties = slices.Clone(m.Properties)

	tris := m.TriangleCount()
	if tris == 0 {
		// Keep nil as nil so an empty mesh triangulates to an equal mesh.
		out.FaceVertexCounts = m.FaceVertexCounts[:0:0]
		out.FaceVertexIndices = m.FaceVertexIndices[:0:0]
		return &out, nil
	}
	indices := make([]int, 0, tris*3)

	offset := 0
	for _, c := range m.FaceVertexCounts {
		face := m.FaceVertexIndices[offset : offset+c]
		offset += c
		if c < 3 {
			continue
		}
		first := face[0]
		for i := 1; i < c-1; i++ {
			indices = append(indices, first, face[i], face[i+1])
		}
	}

	counts := make([]int, tris)
	for i := range counts {
		counts[i] = 3
	}
	out.FaceVertexCounts = counts
	out.FaceVertexIndices = indices
	return &out, nil
}

// Triangulate is a convenience for Triangulate(m).
func (m *Mesh) Triangulate() (*Mesh, error) {
	return Triangulate(m)
}

// TriangleCount returns how many triangles Triangulate would produce.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, c := range m.FaceVertexCounts {
		if c >= 3 {
			n += c - 2
		}
	}
	return n
}
