package rcont

import (
	"fmt"

	"github.com/go-hep/groot/rbytes"
)

// Dtype decodes one fixed-width big-endian primitive value, the leaf
// descriptor at the bottom of every container nesting (spec §4.F
// scenario 1: parse("map<vector<int>, ...>") bottoms out at dtype('>i4')).
type Dtype struct {
	Kind rbytes.Kind
}

// numpyCode returns the numpy kind-and-size dtype code for k (e.g. "i4"), used to
// build dtype('>X') display strings matching uproot/awkward conventions.
func numpyCode(k rbytes.Kind) string {
	switch k {
	case rbytes.KindBool:
		return "?1"
	case rbytes.KindI8:
		return "i1"
	case rbytes.KindU8:
		return "u1"
	case rbytes.KindI16:
		return "i2"
	case rbytes.KindU16:
		return "u2"
	case rbytes.KindI32:
		return "i4"
	case rbytes.KindU32:
		return "u4"
	case rbytes.KindI64:
		return "i8"
	case rbytes.KindU64:
		return "u8"
	case rbytes.KindF32:
		return "f4"
	case rbytes.KindF64:
		return "f8"
	default:
		return "?"
	}
}

func (d Dtype) Key() string  { return fmt.Sprintf("dtype('>%s')", numpyCode(d.Kind)) }
func (d Dtype) Header() bool { return false }

func (d Dtype) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	arr := c.Array(1, d.Kind)
	if c.Err() != nil {
		return nil, c.Err()
	}
	return elemAt(arr, 0), nil
}

func elemAt(arr any, i int) any {
	switch a := arr.(type) {
	case []bool:
		return a[i]
	case []int8:
		return a[i]
	case []uint8:
		return a[i]
	case []int16:
		return a[i]
	case []uint16:
		return a[i]
	case []int32:
		return a[i]
	case []uint32:
		return a[i]
	case []int64:
		return a[i]
	case []uint64:
		return a[i]
	case []float32:
		return a[i]
	case []float64:
		return a[i]
	default:
		return nil
	}
}
