package usd

import "strings"

// Kind is a coarse classification of a node's type label.
type Kind int

const (
	KindUnknown Kind = iota // empty type label
	KindOther
	KindMesh
	KindXform
	KindMaterial
	KindShader
	KindCamera
	KindScope
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindMesh:
		return "mesh"
	case KindXform:
		return "xform"
	case KindMaterial:
		return "material"
	case KindShader:
		return "shader"
	case KindCamera:
		return "camera"
	case KindScope:
		return "scope"
	case KindLight:
		return "light"
	default:
		return "unknown"
	}
}

// KindOf classifies a type label. It depends on nothing but the string.
func KindOf(typeName string) Kind {
	switch typeName {
	case "":
		return KindUnknown
	case "Mesh":
		return KindMesh
	case "Xform":
		return KindXform
	case "Material":
		return KindMaterial
	case "Shader":
		return KindShader
	case "Camera":
		return KindCamera
	case "Scope":
		return KindScope
	}
	if strings.HasSuffix(typeName, "Light") {
		return KindLight
	}
	return KindOther
}
