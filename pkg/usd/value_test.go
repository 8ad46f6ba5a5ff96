package usd

import (
	"errors"
	"testing"

	"github.com/taigrr/usdglb/pkg/math3d"
)

func TestValueGetters(t *testing.T) {
	pts := []math3d.Vec3{math3d.V3(1, 2, 3)}
	v := Vec3ArrayValue(TypePoint3fArray, pts)
	if !v.IsArray() {
		t.Error("point3f[] should be an array")
	}
	got, err := v.Vec3s()
	if err != nil || len(got) != 1 || got[0] != pts[0] {
		t.Errorf("Vec3s() = %v, %v", got, err)
	}

	f, err := IntValue(3).Float()
	if err != nil || f != 3 {
		t.Errorf("int widened to %v, %v", f, err)
	}

	s, err := TokenValue("catmullClark").Text()
	if err != nil || s != "catmullClark" {
		t.Errorf("Text() = %q, %v", s, err)
	}
}

func TestValueTypeMismatch(t *testing.T) {
	v := IntArrayValue([]int{1, 2})
	_, err := v.Vec3s()

	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if tm.Actual != TypeIntArray {
		t.Errorf("Actual = %v", tm.Actual)
	}

	if _, err := FloatValue(1).Int(); err == nil {
		t.Error("float read as int")
	}
	if _, err := (Value{}).Matrix(); err == nil {
		t.Error("zero value read as matrix")
	}
}

func TestParseValueType(t *testing.T) {
	for _, name := range []string{"point3f[]", "int[]", "matrix4d", "texCoord2f[]", "color3f"} {
		typ, ok := ParseValueType(name)
		if !ok || typ.String() != name {
			t.Errorf("ParseValueType(%q) = %v, %v", name, typ, ok)
		}
	}
	if _, ok := ParseValueType("unknown"); ok {
		t.Error("unknown should not parse")
	}
}

func TestArrayValuesAreCopied(t *testing.T) {
	idx := []int{0, 1, 2}
	v := IntArrayValue(idx)
	idx[0] = 9

	got, err := v.Ints()
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0 {
		t.Errorf("constructor kept the caller's slice: %v", got)
	}
	got[1] = 9
	if again, _ := v.Ints(); again[1] != 1 {
		t.Errorf("getter returned the value's own slice: %v", again)
	}

	pts := Vec3ArrayValue(TypePoint3fArray, []math3d.Vec3{math3d.V3(1, 2, 3)})
	p, _ := pts.Vec3s()
	p[0] = math3d.V3(0, 0, 0)
	if again, _ := pts.Vec3s(); again[0] != math3d.V3(1, 2, 3) {
		t.Errorf("Vec3s shares memory: %v", again)
	}
}
