package math3d

import (
	"math"
	"testing"
)

func TestIdentityMul(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(Scale(V3(2, 2, 2)))
	if got := Identity().Mul(m); got != m {
		t.Errorf("I*m = %v, want %v", got, m)
	}
	if got := m.Mul(Identity()); got != m {
		t.Errorf("m*I = %v, want %v", got, m)
	}
}

func TestMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(V3(10, 0, 0)).Mul(Scale(V3(2, 2, 2)))
	got := m.MulVec3(V3(1, 1, 1))
	want := V3(12, 2, 2)
	if got != want {
		t.Errorf("MulVec3 = %v, want %v", got, want)
	}
}

func TestFromRowsMatchesUSDLayout(t *testing.T) {
	// USD writes translation in the last row.
	rows := [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{5, 6, 7, 1},
	}
	m := FromRows(rows)
	if m != Translate(V3(5, 6, 7)) {
		t.Errorf("FromRows = %v, want translation matrix", m)
	}
	if m.Translation() != V3(5, 6, 7) {
		t.Errorf("Translation = %v", m.Translation())
	}
	if m.Rows() != rows {
		t.Errorf("Rows() did not round trip: %v", m.Rows())
	}
}

func TestTranspose(t *testing.T) {
	m := Translate(V3(1, 2, 3))
	if m.Transpose().Transpose() != m {
		t.Error("double transpose should be identity operation")
	}
	if m.Transpose()[3] != 1 {
		t.Errorf("expected translation x in index 3 after transpose, got %v", m.Transpose()[3])
	}
}

func TestIsIdentity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity should be identity")
	}
	if Translate(V3(0, 0, 1)).IsIdentity() {
		t.Error("translation should not be identity")
	}
	var zero Mat4
	if zero.IsIdentity() {
		t.Error("zero matrix should not be identity")
	}
}

func TestFloat32(t *testing.T) {
	m := Scale(V3(0.1, 2, 3))
	f := m.Float32()
	if f[0] != float32(0.1) || f[15] != 1 {
		t.Errorf("unexpected float32 conversion: %v", f)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds([]Vec3{V3(-1, 2, 0), V3(3, -5, 1)})
	if b.Min != V3(-1, -5, 0) {
		t.Errorf("min = %v, want (-1,-5,0)", b.Min)
	}
	if b.Max != V3(3, 2, 1) {
		t.Errorf("max = %v, want (3,2,1)", b.Max)
	}
	if b.Center() != V3(1, -1.5, 0.5) {
		t.Errorf("center = %v", b.Center())
	}
	if b.Size() != V3(4, 7, 1) {
		t.Errorf("size = %v", b.Size())
	}
}

func TestBoundsEmpty(t *testing.T) {
	b := Bounds(nil)
	if !b.Empty() {
		t.Error("bounds of no points should be empty")
	}
	b.Extend(V3(1, 1, 1))
	if b.Empty() || b.Min != b.Max {
		t.Errorf("single point bounds = %+v", b)
	}
}

func TestBounds32RoundsToFloat32(t *testing.T) {
	b := Bounds32([]Vec3{V3(0.1, 0, 0)})
	if b.Min.X != float64(float32(0.1)) {
		t.Errorf("Bounds32 min.x = %v, want %v", b.Min.X, float64(float32(0.1)))
	}
}

func TestBoundsFinite(t *testing.T) {
	if !Bounds([]Vec3{V3(1, 2, 3)}).Finite() {
		t.Error("finite point reported non-finite")
	}
	if Bounds([]Vec3{V3(math.NaN(), 0, 0)}).Finite() {
		t.Error("NaN point reported finite")
	}
	if Bounds([]Vec3{V3(math.Inf(1), 0, 0)}).Finite() {
		t.Error("Inf point reported finite")
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := Scale(V3(2, 2, 2))

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkBounds32(b *testing.B) {
	points := make([]Vec3, 1024)
	for i := range points {
		points[i] = V3(float64(i), float64(-i), float64(i%7))
	}

	for b.Loop() {
		_ = Bounds32(points)
	}
}

func TestRotateZQuarterTurn(t *testing.T) {
	p := RotateZ(Radians(90)).MulVec3(V3(1, 0, 0))
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y-1) > 1e-9 || math.Abs(p.Z) > 1e-9 {
		t.Errorf("RotateZ(90°)·X = %v, want (0,1,0)", p)
	}
}
