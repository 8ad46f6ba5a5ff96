package math3d

import "math"

// AABB is an axis-aligned bounding box. The zero value is empty.
type AABB struct {
	Min, Max Vec3
	valid    bool
}

// Extend grows the box to contain p.
func (b *AABB) Extend(p Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Empty reports whether no point has been added.
func (b AABB) Empty() bool {
	return !b.valid
}

// Center returns the center of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Bounds computes the bounding box of points.
func Bounds(points []Vec3) AABB {
	var b AABB
	for _, p := range points {
		b.Extend(p)
	}
	return b
}

// Bounds32 computes the bounding box of points after rounding each one to
// single precision, so the result matches float32 vertex data exactly.
func Bounds32(points []Vec3) AABB {
	var b AABB
	for _, p := range points {
		f := p.Float32()
		b.Extend(Vec3{float64(f[0]), float64(f[1]), float64(f[2])})
	}
	return b
}

// Finite reports whether every component of the box is a finite number.
func (b AABB) Finite() bool {
	for _, v := range []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
