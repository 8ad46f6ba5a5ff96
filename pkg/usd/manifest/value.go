package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/usdglb/pkg/math3d"
	"github.com/taigrr/usdglb/pkg/usd"
)

func decodeValue(typeName string, n *yaml.Node) (usd.Value, error) {
	typ, ok := usd.ParseValueType(typeName)
	if !ok {
		return usd.Value{}, fmt.Errorf("unknown type %q", typeName)
	}

	switch typ {
	case usd.TypeToken, usd.TypeString:
		var s string
		if err := n.Decode(&s); err != nil {
			return usd.Value{}, err
		}
		if typ == usd.TypeToken {
			return usd.TokenValue(s), nil
		}
		return usd.StringValue(s), nil

	case usd.TypeBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return usd.Value{}, err
		}
		return usd.BoolValue(b), nil

	case usd.TypeInt:
		var i int
		if err := n.Decode(&i); err != nil {
			return usd.Value{}, err
		}
		return usd.IntValue(i), nil

	case usd.TypeFloat, usd.TypeDouble:
		var f float64
		if err := n.Decode(&f); err != nil {
			return usd.Value{}, err
		}
		if typ == usd.TypeFloat {
			return usd.FloatValue(f), nil
		}
		return usd.DoubleValue(f), nil

	case usd.TypeFloat2:
		v, err := decodeTuple(n, 2)
		if err != nil {
			return usd.Value{}, err
		}
		return usd.Float2Value(math3d.V2(v[0], v[1])), nil

	case usd.TypeFloat3, usd.TypeColor3f:
		v, err := decodeTuple(n, 3)
		if err != nil {
			return usd.Value{}, err
		}
		return usd.Vec3Value(typ, math3d.V3(v[0], v[1], v[2])), nil

	case usd.TypeMatrix4d:
		m, err := decodeMatrix(n)
		if err != nil {
			return usd.Value{}, err
		}
		return usd.MatrixValue(m), nil

	case usd.TypeIntArray:
		var a []int
		if err := n.Decode(&a); err != nil {
			return usd.Value{}, err
		}
		return usd.IntArrayValue(a), nil

	case usd.TypeTokenArray:
		var a []string
		if err := n.Decode(&a); err != nil {
			return usd.Value{}, err
		}
		return usd.TokenArrayValue(a), nil

	case usd.TypeFloat2Array, usd.TypeTexCoord2fArray:
		tuples, err := decodeTuples(n, 2)
		if err != nil {
			return usd.Value{}, err
		}
		out := make([]math3d.Vec2, len(tuples))
		for i, t := range tuples {
			out[i] = math3d.V2(t[0], t[1])
		}
		return usd.Vec2ArrayValue(typ, out), nil

	case usd.TypePoint3fArray, usd.TypeNormal3fArray, usd.TypeVector3fArray, usd.TypeColor3fArray:
		tuples, err := decodeTuples(n, 3)
		if err != nil {
			return usd.Value{}, err
		}
		out := make([]math3d.Vec3, len(tuples))
		for i, t := range tuples {
			out[i] = math3d.V3(t[0], t[1], t[2])
		}
		return usd.Vec3ArrayValue(typ, out), nil
	}

	return usd.Value{}, fmt.Errorf("type %s has no manifest encoding", typ)
}

func decodeTuple(n *yaml.Node, size int) ([]float64, error) {
	var v []float64
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	if len(v) != size {
		return nil, fmt.Errorf("expected %d components, got %d", size, len(v))
	}
	return v, nil
}

func decodeTuples(n *yaml.Node, size int) ([][]float64, error) {
	var v [][]float64
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	for i, t := range v {
		if len(t) != size {
			return nil, fmt.Errorf("element %d: expected %d components, got %d", i, size, len(t))
		}
	}
	return v, nil
}

// decodeMatrix accepts USD's nested 4x4 row form or 16 flat values in the
// same order.
func decodeMatrix(n *yaml.Node) (math3d.Mat4, error) {
	var rows [][]float64
	if err := n.Decode(&rows); err == nil {
		if len(rows) != 4 {
			return math3d.Mat4{}, fmt.Errorf("expected 4 rows, got %d", len(rows))
		}
		var r [4][4]float64
		for i, row := range rows {
			if len(row) != 4 {
				return math3d.Mat4{}, fmt.Errorf("row %d: expected 4 values, got %d", i, len(row))
			}
			copy(r[i][:], row)
		}
		return math3d.FromRows(r), nil
	}

	flat, err := decodeTuple(n, 16)
	if err != nil {
		return math3d.Mat4{}, err
	}
	var m math3d.Mat4
	copy(m[:], flat)
	return m, nil
}
