package models

import "github.com/taigrr/usdglb/pkg/math3d"

// Material is a surface description extracted from a Material prim. Nil
// pointers and empty texture paths mean the parameter is not set.
type Material struct {
	Name string
	Path string

	DiffuseColor       *math3d.Vec3
	EmissiveColor      *math3d.Vec3
	Metallic           *float64
	Roughness          *float64
	Opacity            *float64
	IOR                *float64
	Clearcoat          *float64
	ClearcoatRoughness *float64

	DiffuseTexture           string
	NormalTexture            string
	MetallicRoughnessTexture string
	OcclusionTexture         string
	EmissiveTexture          string

	// Defaulted is set when the scene source could not decode values, so
	// every parameter above is a default rather than data.
	Defaulted bool
}

// NewMaterial creates a material with plausible dielectric defaults:
// 0.8 grey diffuse, not metallic, roughness 0.5, opaque, IOR 1.5.
func NewMaterial(name string) *Material {
	return &Material{
		Name:         name,
		DiffuseColor: ptr(math3d.V3(0.8, 0.8, 0.8)),
		Metallic:     ptr(0.0),
		Roughness:    ptr(0.5),
		Opacity:      ptr(1.0),
		IOR:          ptr(1.5),
	}
}

// HasTextures reports whether any texture path is set.
func (m *Material) HasTextures() bool {
	return m.DiffuseTexture != "" ||
		m.NormalTexture != "" ||
		m.MetallicRoughnessTexture != "" ||
		m.OcclusionTexture != "" ||
		m.EmissiveTexture != ""
}

// IsTransparent reports whether opacity is set below 1.
func (m *Material) IsTransparent() bool {
	return m.Opacity != nil && *m.Opacity < 1
}

// IsMetallic reports whether metallic is set above 0.5.
func (m *Material) IsMetallic() bool {
	return m.Metallic != nil && *m.Metallic > 0.5
}

func ptr[T any](v T) *T {
	return &v
}
