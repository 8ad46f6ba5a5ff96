package usd

import (
	"fmt"
	"slices"

	"github.com/taigrr/usdglb/pkg/math3d"
)

// ValueType identifies the shape of an attribute value.
type ValueType int

const (
	TypeUnknown ValueType = iota
	TypeToken
	TypeString
	TypeBool
	TypeInt
	TypeFloat
	TypeDouble
	TypeFloat2
	TypeFloat3
	TypeColor3f
	TypeMatrix4d
	TypeIntArray
	TypeTokenArray
	TypeFloat2Array
	TypeTexCoord2fArray
	TypePoint3fArray
	TypeNormal3fArray
	TypeVector3fArray
	TypeColor3fArray
)

var valueTypeNames = map[ValueType]string{
	TypeUnknown:         "unknown",
	TypeToken:           "token",
	TypeString:          "string",
	TypeBool:            "bool",
	TypeInt:             "int",
	TypeFloat:           "float",
	TypeDouble:          "double",
	TypeFloat2:          "float2",
	TypeFloat3:          "float3",
	TypeColor3f:         "color3f",
	TypeMatrix4d:        "matrix4d",
	TypeIntArray:        "int[]",
	TypeTokenArray:      "token[]",
	TypeFloat2Array:     "float2[]",
	TypeTexCoord2fArray: "texCoord2f[]",
	TypePoint3fArray:    "point3f[]",
	TypeNormal3fArray:   "normal3f[]",
	TypeVector3fArray:   "vector3f[]",
	TypeColor3fArray:    "color3f[]",
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// ParseValueType maps a USD type name such as "point3f[]" to a ValueType.
func ParseValueType(name string) (ValueType, bool) {
	for t, s := range valueTypeNames {
		if s == name && t != TypeUnknown {
			return t, true
		}
	}
	return TypeUnknown, false
}

// IsArray reports whether t is an array type.
func (t ValueType) IsArray() bool {
	return t >= TypeIntArray
}

// Value is a decoded attribute value. The zero Value has TypeUnknown.
// Array values are copied in and out, so a Value never shares memory with
// its caller.
type Value struct {
	typ ValueType
	v   any
}

// Type returns the value's type.
func (v Value) Type() ValueType {
	return v.typ
}

// IsArray reports whether the value holds an array.
func (v Value) IsArray() bool {
	return v.typ.IsArray()
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%v)", v.typ, v.v)
}

func mismatch(expected string, v Value) error {
	return &TypeMismatchError{Expected: expected, Actual: v.typ}
}

// TokenValue creates a token value.
func TokenValue(s string) Value { return Value{TypeToken, s} }

// StringValue creates a string value.
func StringValue(s string) Value { return Value{TypeString, s} }

// BoolValue creates a bool value.
func BoolValue(b bool) Value { return Value{TypeBool, b} }

// IntValue creates an int value.
func IntValue(i int) Value { return Value{TypeInt, i} }

// FloatValue creates a float value.
func FloatValue(f float64) Value { return Value{TypeFloat, f} }

// DoubleValue creates a double value.
func DoubleValue(f float64) Value { return Value{TypeDouble, f} }

// Float2Value creates a float2 value.
func Float2Value(v math3d.Vec2) Value { return Value{TypeFloat2, v} }

// Vec3Value creates a 3-component value of type t (TypeFloat3 or
// TypeColor3f).
func Vec3Value(t ValueType, v math3d.Vec3) Value { return Value{t, v} }

// MatrixValue creates a matrix4d value.
func MatrixValue(m math3d.Mat4) Value { return Value{TypeMatrix4d, m} }

// IntArrayValue creates an int[] value.
func IntArrayValue(a []int) Value { return Value{TypeIntArray, slices.Clone(a)} }

// TokenArrayValue creates a token[] value.
func TokenArrayValue(a []string) Value { return Value{TypeTokenArray, slices.Clone(a)} }

// Vec2ArrayValue creates a 2-component array value of type t
// (TypeFloat2Array or TypeTexCoord2fArray).
func Vec2ArrayValue(t ValueType, a []math3d.Vec2) Value { return Value{t, slices.Clone(a)} }

// Vec3ArrayValue creates a 3-component array value of type t (point3f[],
// normal3f[], vector3f[] or color3f[]).
func Vec3ArrayValue(t ValueType, a []math3d.Vec3) Value { return Value{t, slices.Clone(a)} }

// Text returns a token or string value.
func (v Value) Text() (string, error) {
	if s, ok := v.v.(string); ok && (v.typ == TypeToken || v.typ == TypeString) {
		return s, nil
	}
	return "", mismatch("token or string", v)
}

// Bool returns a bool value.
func (v Value) Bool() (bool, error) {
	if b, ok := v.v.(bool); ok {
		return b, nil
	}
	return false, mismatch("bool", v)
}

// Int returns an int value.
func (v Value) Int() (int, error) {
	if i, ok := v.v.(int); ok {
		return i, nil
	}
	return 0, mismatch("int", v)
}

// Float returns a float or double value. Ints widen.
func (v Value) Float() (float64, error) {
	switch x := v.v.(type) {
	case float64:
		return x, nil
	case int:
		if v.typ == TypeInt {
			return float64(x), nil
		}
	}
	return 0, mismatch("float", v)
}

// Vec2 returns a float2 value.
func (v Value) Vec2() (math3d.Vec2, error) {
	if x, ok := v.v.(math3d.Vec2); ok {
		return x, nil
	}
	return math3d.Vec2{}, mismatch("float2", v)
}

// Vec3 returns a float3 or color3f value.
func (v Value) Vec3() (math3d.Vec3, error) {
	if x, ok := v.v.(math3d.Vec3); ok {
		return x, nil
	}
	return math3d.Vec3{}, mismatch("float3", v)
}

// Matrix returns a matrix4d value.
func (v Value) Matrix() (math3d.Mat4, error) {
	if x, ok := v.v.(math3d.Mat4); ok {
		return x, nil
	}
	return math3d.Mat4{}, mismatch("matrix4d", v)
}

// Ints returns an int[] value.
func (v Value) Ints() ([]int, error) {
	if x, ok := v.v.([]int); ok {
		return slices.Clone(x), nil
	}
	return nil, mismatch("int[]", v)
}

// Tokens returns a token[] value.
func (v Value) Tokens() ([]string, error) {
	if x, ok := v.v.([]string); ok {
		return slices.Clone(x), nil
	}
	return nil, mismatch("token[]", v)
}

// Vec2s returns a float2[] or texCoord2f[] value.
func (v Value) Vec2s() ([]math3d.Vec2, error) {
	if x, ok := v.v.([]math3d.Vec2); ok {
		return slices.Clone(x), nil
	}
	return nil, mismatch("float2[]", v)
}

// Vec3s returns a point3f[], normal3f[], vector3f[] or color3f[] value.
func (v Value) Vec3s() ([]math3d.Vec3, error) {
	if x, ok := v.v.([]math3d.Vec3); ok {
		return slices.Clone(x), nil
	}
	return nil, mismatch("point3f[]", v)
}
