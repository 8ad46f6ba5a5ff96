package usd

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		typ  string
		want Kind
	}{
		{"Mesh", KindMesh},
		{"Xform", KindXform},
		{"Material", KindMaterial},
		{"Shader", KindShader},
		{"Camera", KindCamera},
		{"Scope", KindScope},
		{"PointLight", KindLight},
		{"SphereLight", KindLight},
		{"DistantLight", KindLight},
		{"Light", KindLight},
		{"LightFilter", KindOther},
		{"GeomSubset", KindOther},
		{"mesh", KindOther},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		if got := KindOf(tt.typ); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestEmptyTypeMatchesNoPredicate(t *testing.T) {
	g := &fakeGraph{}
	g.add(NilHandle, "Untyped", "")
	s, err := NewScene(g, FormatUSDA)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	roots, _ := s.Roots()
	n := roots[0]
	preds := map[string]bool{
		"IsMesh":     n.IsMesh(),
		"IsXform":    n.IsXform(),
		"IsMaterial": n.IsMaterial(),
		"IsShader":   n.IsShader(),
		"IsCamera":   n.IsCamera(),
		"IsScope":    n.IsScope(),
		"IsLight":    n.IsLight(),
	}
	for name, got := range preds {
		if got {
			t.Errorf("%s() = true for empty type label", name)
		}
	}
	if n.String() != "/Untyped <(no type)>" {
		t.Errorf("String() = %q", n.String())
	}
}
