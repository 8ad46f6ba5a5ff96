// Package manifest is a usd.Source that reads scene graphs from YAML
// manifests. It exists for tests and tooling: it understands the graph
// structure and typed attribute values, not the USD layer formats.
//
// A manifest starts with the "#usda 1.0" magic line (a YAML comment), so
// format detection classifies it as text USD:
//
//	#usda 1.0
//	prims:
//	  - name: World
//	    type: Xform
//	    attributes:
//	      xformOp:translate: {type: float3, value: [0, 1, 0]}
//	      xformOpOrder: {type: "token[]", value: ["xformOp:translate"]}
//	    children:
//	      - name: Cube
//	        type: Mesh
//	        relationships: [material:binding]
//	        attributes:
//	          points: {type: "point3f[]", value: [[0, 0, 0], [1, 0, 0], [1, 1, 0]]}
//	          faceVertexCounts: {type: "int[]", value: [3]}
//	          faceVertexIndices: {type: "int[]", value: [0, 1, 2]}
//
// A USDZ archive is read by loading its first .usda or .usd entry as a
// manifest. Binary crate layers are rejected with a diagnostic.
package manifest

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/taigrr/usdglb/pkg/usd"
)

// Name is the name the source registers under.
const Name = "manifest"

func init() {
	usd.Register(Name, Source{})
}

// Source loads manifests from files.
type Source struct{}

// Load implements usd.Source.
func (Source) Load(p string, format usd.Format) (usd.Graph, error) {
	switch format {
	case usd.FormatUSDA:
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		return Parse(data)
	case usd.FormatUSDZ:
		return loadArchive(p)
	case usd.FormatUSDC:
		return nil, errors.New("manifest: binary crate layers are not supported")
	default:
		return nil, fmt.Errorf("manifest: unsupported format %s", format)
	}
}

func loadArchive(p string) (*Graph, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("manifest: open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".usda", ".usd":
		case ".usdc":
			return nil, fmt.Errorf("manifest: root layer %s is a binary crate, which is not supported", f.Name)
		default:
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("manifest: open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("manifest: read %s: %w", f.Name, err)
		}
		return Parse(data)
	}
	return nil, errors.New("manifest: archive has no USD layer")
}
