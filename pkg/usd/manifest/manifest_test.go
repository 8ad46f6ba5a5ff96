package manifest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/usdglb/pkg/math3d"
	"github.com/taigrr/usdglb/pkg/usd"
)

func loadFixture(t *testing.T) *usd.Scene {
	t.Helper()
	s, err := usd.NewLoader(Source{}).Open(filepath.Join("testdata", "cube.usda"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRegistered(t *testing.T) {
	src, err := usd.Lookup(Name)
	require.NoError(t, err)
	assert.IsType(t, Source{}, src)
}

func TestTraverseFixture(t *testing.T) {
	s := loadFixture(t)

	nodes, err := s.Traverse()
	require.NoError(t, err)

	var got []string
	for _, n := range nodes {
		got = append(got, n.Path()+" "+n.TypeName())
	}
	assert.Equal(t, []string{
		"/World Xform",
		"/World/Cube Mesh",
		"/World/Key SphereLight",
		"/Looks Scope",
		"/Looks/Red Material",
		"/Looks/Red/Surface Shader",
	}, got)
}

func TestPropertyOrder(t *testing.T) {
	s := loadFixture(t)
	nodes, err := s.Traverse()
	require.NoError(t, err)

	names, err := nodes[1].PropertyNames()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"points", "faceVertexCounts", "faceVertexIndices", "subdivisionScheme", "material:binding",
	}, names)
}

func TestAttributes(t *testing.T) {
	s := loadFixture(t)
	nodes, err := s.Traverse()
	require.NoError(t, err)
	cube := nodes[1]

	v, err := cube.Attribute("points")
	require.NoError(t, err)
	assert.Equal(t, usd.TypePoint3fArray, v.Type())
	pts, err := v.Vec3s()
	require.NoError(t, err)
	assert.Len(t, pts, 8)
	assert.Equal(t, math3d.V3(-1, -1, 1), pts[0])

	v, err = cube.Attribute("subdivisionScheme")
	require.NoError(t, err)
	scheme, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "none", scheme)

	_, err = cube.Attribute("material:binding")
	assert.ErrorIs(t, err, usd.ErrAttributeNotFound)

	v, err = nodes[0].Attribute("xformOp:translate")
	require.NoError(t, err)
	tr, err := v.Vec3()
	require.NoError(t, err)
	assert.Equal(t, math3d.V3(0, 2, 0), tr)
}

func TestMatrixForms(t *testing.T) {
	g, err := Parse([]byte(`
prims:
  - name: A
    type: Xform
    attributes:
      nested: {type: matrix4d, value: [[1,0,0,0],[0,1,0,0],[0,0,1,0],[5,6,7,1]]}
      flat: {type: matrix4d, value: [1,0,0,0, 0,1,0,0, 0,0,1,0, 5,6,7,1]}
`))
	require.NoError(t, err)

	for _, name := range []string{"nested", "flat"} {
		v, err := g.Attribute(g.Roots()[0], name)
		require.NoError(t, err, name)
		m, err := v.Matrix()
		require.NoError(t, err, name)
		assert.Equal(t, math3d.Translate(math3d.V3(5, 6, 7)), m, name)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"not yaml":       "prims: [",
		"no prims":       "prims: []",
		"no name":        "prims:\n  - type: Xform\n",
		"slash in name":  "prims:\n  - name: a/b\n",
		"unknown type":   "prims:\n  - name: A\n    attributes:\n      x: {type: half9, value: 1}\n",
		"bad tuple":      "prims:\n  - name: A\n    attributes:\n      x: {type: \"point3f[]\", value: [[1, 2]]}\n",
		"attrs not map":  "prims:\n  - name: A\n    attributes: [1, 2]\n",
		"bad matrix":     "prims:\n  - name: A\n    attributes:\n      m: {type: matrix4d, value: [[1, 2]]}\n",
		"int not number": "prims:\n  - name: A\n    attributes:\n      i: {type: int, value: abc}\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadDiagnosticSurfaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.usda")
	require.NoError(t, os.WriteFile(path, []byte("#usda 1.0\nprims:\n  - name: A\n    attributes:\n      x: {type: half9, value: 1}\n"), 0o644))

	_, err := usd.NewLoader(Source{}).Open(path)
	var le *usd.LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Diagnostic, `unknown type "half9"`)
}

func TestReleaseTwice(t *testing.T) {
	g, err := Parse([]byte("prims:\n  - name: A\n"))
	require.NoError(t, err)
	require.NoError(t, g.Release())
	assert.Error(t, g.Release())
	assert.Empty(t, g.Name(1))
	assert.Error(t, g.Traverse(func(usd.Handle) bool { return true }))
}

func zipArchive(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestLoadUSDZ(t *testing.T) {
	layer, err := os.ReadFile(filepath.Join("testdata", "cube.usda"))
	require.NoError(t, err)

	data := zipArchive(t, map[string]string{
		"scene.usda":       string(layer),
		"textures/red.png": "not really a png",
	}, "scene.usda", "textures/red.png")

	s, err := usd.NewLoader(Source{}, usd.WithTempDir(t.TempDir())).FromBytes(data, usd.FormatUnknown)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, usd.FormatUSDZ, s.Format())
	nodes, err := s.Traverse()
	require.NoError(t, err)
	assert.Len(t, nodes, 6)
}

func TestLoadUSDZCrateLayer(t *testing.T) {
	data := zipArchive(t, map[string]string{"scene.usdc": "PXR-USDC"}, "scene.usdc")

	_, err := usd.NewLoader(Source{}, usd.WithTempDir(t.TempDir())).FromUSDZ(data)
	var le *usd.LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Diagnostic, "binary crate")
}

func TestLoadUSDC(t *testing.T) {
	_, err := usd.NewLoader(Source{}, usd.WithTempDir(t.TempDir())).FromUSDC([]byte("PXR-USDC"))
	var le *usd.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "manifest: binary crate layers are not supported", le.Diagnostic)
}
