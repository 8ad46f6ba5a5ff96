package models

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/usdglb/pkg/math3d"
	"github.com/taigrr/usdglb/pkg/usd"
	"github.com/taigrr/usdglb/pkg/usd/manifest"
)

func openScene(t *testing.T) *usd.Scene {
	t.Helper()
	return openFixture(t, "scene.usda")
}

func openFixture(t *testing.T, name string) *usd.Scene {
	t.Helper()
	s, err := usd.NewLoader(manifest.Source{}).Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// namesOnly hides the manifest graph's attribute reader, like a source
// that can only list property names.
type namesOnly struct {
	usd.Graph
}

func openNamesOnly(t *testing.T) *usd.Scene {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "scene.usda"))
	if err != nil {
		t.Fatal(err)
	}
	g, err := manifest.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := usd.NewScene(namesOnly{g}, usd.FormatUSDA)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExtractMeshes(t *testing.T) {
	ex, err := ExtractMeshes(openScene(t))
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	if len(ex.Meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(ex.Meshes))
	}

	quad := ex.Meshes[0]
	if quad.Name != "Quad" || quad.Path != "/World/Quad" {
		t.Errorf("first mesh = %s %s", quad.Name, quad.Path)
	}
	if quad.VertexCount() != 4 || quad.FaceCount() != 1 {
		t.Errorf("quad has %d points, %d faces", quad.VertexCount(), quad.FaceCount())
	}
	if !quad.HasNormals() || !quad.HasUVs() {
		t.Error("quad should carry normals and uvs")
	}
	if got := quad.World.MulVec3(math3d.V3(1, 1, 0)); got != math3d.V3(2, 4, 0) {
		t.Errorf("world transform maps (1,1,0) to %v, want (2,4,0)", got)
	}
	if quad.Local != math3d.Scale(math3d.V3(2, 2, 2)) {
		t.Errorf("local = %v", quad.Local)
	}

	tri := ex.Meshes[1]
	if tri.Path != "/World/Group/Tri" {
		t.Errorf("second mesh path = %s", tri.Path)
	}
	if tri.World != math3d.Translate(math3d.V3(0, 2, 0)) {
		t.Errorf("tri world = %v", tri.World)
	}
	if !tri.Local.IsIdentity() {
		t.Error("tri has no xform ops, local should be identity")
	}
}

func TestExtractedMeshesAreIndependent(t *testing.T) {
	s := openScene(t)
	ex, err := ExtractMeshes(s)
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	quad := ex.Meshes[0]
	quad.Points[1] = math3d.V3(99, 99, 99)
	quad.FaceVertexIndices[0] = 3
	quad.FaceVertexCounts[0] = 7
	quad.Normals[0] = math3d.V3(1, 0, 0)
	quad.UVs[0] = math3d.V2(5, 5)

	again, err := ExtractMeshes(s)
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	fresh := again.Meshes[0]
	if fresh.Points[1] != math3d.V3(1, 0, 0) {
		t.Errorf("points[1] = %v, want (1,0,0)", fresh.Points[1])
	}
	if fresh.FaceVertexIndices[0] != 0 || fresh.FaceVertexCounts[0] != 4 {
		t.Errorf("topology = %v %v", fresh.FaceVertexCounts, fresh.FaceVertexIndices)
	}
	if fresh.Normals[0] != math3d.V3(0, 0, 1) || fresh.UVs[0] != math3d.V2(0, 0) {
		t.Errorf("normals[0] = %v, uvs[0] = %v", fresh.Normals[0], fresh.UVs[0])
	}
}

func near(a, b math3d.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestExtractXformOps(t *testing.T) {
	ex, err := ExtractMeshes(openFixture(t, "xforms.usda"))
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}

	tests := []struct {
		mesh string
		in   math3d.Vec3
		want math3d.Vec3
	}{
		{"Matrix", math3d.V3(1, 0, 0), math3d.V3(7, 6, 7)},
		{"RotX", math3d.V3(0, 1, 0), math3d.V3(0, 0, 1)},
		{"RotY", math3d.V3(0, 0, 1), math3d.V3(1, 0, 0)},
		{"RotZ", math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
		// X is applied before Z.
		{"RotXYZ", math3d.V3(0, 1, 0), math3d.V3(0, 0, 1)},
		// The first op in xformOpOrder is outermost.
		{"Stack", math3d.V3(1, 0, 0), math3d.V3(10, 2, 0)},
	}

	byName := make(map[string]*Mesh, len(ex.Meshes))
	for _, m := range ex.Meshes {
		byName[m.Name] = m
	}
	for _, tt := range tests {
		t.Run(tt.mesh, func(t *testing.T) {
			m, ok := byName[tt.mesh]
			if !ok {
				t.Fatalf("mesh %s not extracted", tt.mesh)
			}
			if got := m.World.MulVec3(tt.in); !near(got, tt.want) {
				t.Errorf("world maps %v to %v, want %v", tt.in, got, tt.want)
			}
			if m.Local != m.World {
				t.Error("top-level mesh should have world == local")
			}
		})
	}

	if len(ex.Failures) != 1 || ex.Failures[0].Path != "/Xforms/Inverted" {
		t.Fatalf("failures = %v, want /Xforms/Inverted", ex.Failures)
	}
}

func TestExtractMeshesReportsMalformed(t *testing.T) {
	ex, err := ExtractMeshes(openScene(t))
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	if len(ex.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(ex.Failures))
	}
	f := ex.Failures[0]
	if f.Path != "/World/Broken" {
		t.Errorf("failure path = %s", f.Path)
	}
	if !errors.Is(f, ErrFaceCounts) {
		t.Errorf("failure = %v, want ErrFaceCounts", f)
	}
}

func TestExtractMeshesWithoutValues(t *testing.T) {
	s := openNamesOnly(t)

	ex, err := ExtractMeshes(s)
	if err != nil {
		t.Fatalf("ExtractMeshes: %v", err)
	}
	if len(ex.Meshes) != 3 || len(ex.Failures) != 0 {
		t.Fatalf("got %d meshes, %d failures", len(ex.Meshes), len(ex.Failures))
	}
	for _, m := range ex.Meshes {
		if m.HasGeometry() {
			t.Errorf("%s: geometry should be unavailable", m.Path)
		}
		if m.VertexCount() != 0 {
			t.Errorf("%s: %d points", m.Path, m.VertexCount())
		}
		if len(m.Properties) == 0 {
			t.Errorf("%s: property names missing", m.Path)
		}
		if !m.World.IsIdentity() {
			t.Errorf("%s: transform without values should be identity", m.Path)
		}
	}
}

func TestExtractMaterials(t *testing.T) {
	mats, err := ExtractMaterials(openScene(t))
	if len(mats) != 2 {
		t.Fatalf("got %d materials, want 2", len(mats))
	}
	if err == nil {
		t.Error("expected an error for Blue's token opacity")
	}

	red := mats[0]
	if red.Name != "Red" || red.Path != "/Looks/Red" {
		t.Errorf("first material = %s %s", red.Name, red.Path)
	}
	if red.Defaulted {
		t.Error("Red should be read from its shader")
	}
	if *red.DiffuseColor != math3d.V3(0.8, 0.1, 0.1) {
		t.Errorf("diffuse = %v", *red.DiffuseColor)
	}
	if math.Abs(*red.Roughness-0.3) > 1e-9 {
		t.Errorf("roughness = %v", *red.Roughness)
	}
	if !red.IsMetallic() {
		t.Error("Red should be metallic")
	}
	if red.DiffuseTexture != "tex/albedo.png" {
		t.Errorf("diffuse texture = %q", red.DiffuseTexture)
	}

	blue := mats[1]
	if *blue.DiffuseColor != math3d.V3(0.1, 0.1, 0.8) {
		t.Errorf("blue diffuse = %v", *blue.DiffuseColor)
	}
	if *blue.Opacity != 1 {
		t.Errorf("bad opacity should leave the default, got %v", *blue.Opacity)
	}
}

func TestExtractMaterialsWithoutValues(t *testing.T) {
	s := openNamesOnly(t)

	mats, err := ExtractMaterials(s)
	if err != nil {
		t.Fatalf("ExtractMaterials: %v", err)
	}
	for _, m := range mats {
		if !m.Defaulted {
			t.Errorf("%s: Defaulted = false", m.Name)
		}
		if *m.DiffuseColor != math3d.V3(0.8, 0.8, 0.8) {
			t.Errorf("%s: diffuse = %v", m.Name, *m.DiffuseColor)
		}
	}
}

func TestExtractClosedScene(t *testing.T) {
	s := openScene(t)
	s.Close()
	if _, err := ExtractMeshes(s); !errors.Is(err, usd.ErrSceneClosed) {
		t.Errorf("err = %v, want ErrSceneClosed", err)
	}
}
