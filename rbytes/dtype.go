package rbytes

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies one of the fixed-width primitive element types that can
// appear on disk or as a branch's output array element type.
type Kind uint8

const (
	KindBool Kind = iota
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
)

// Size returns the on-the-wire width, in bytes, of one element of kind k.
func (k Kind) Size() int {
	switch k {
	case KindBool, KindI8, KindU8:
		return 1
	case KindI16, KindU16:
		return 2
	case KindI32, KindU32, KindF32:
		return 4
	case KindI64, KindU64, KindF64:
		return 8
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindI8:
		return "int8"
	case KindU8:
		return "uint8"
	case KindI16:
		return "int16"
	case KindU16:
		return "uint16"
	case KindI32:
		return "int32"
	case KindU32:
		return "uint32"
	case KindI64:
		return "int64"
	case KindU64:
		return "uint64"
	case KindF32:
		return "float32"
	case KindF64:
		return "float64"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// decodeU64 reads one big-endian element of kind k at data[0:k.Size()]
// and returns its raw bits, zero-extended to a uint64.
func decodeU64(data []byte, k Kind) uint64 {
	switch k {
	case KindBool, KindI8, KindU8:
		return uint64(data[0])
	case KindI16, KindU16:
		return uint64(binary.BigEndian.Uint16(data))
	case KindI32, KindU32, KindF32:
		return uint64(binary.BigEndian.Uint32(data))
	case KindI64, KindU64, KindF64:
		return binary.BigEndian.Uint64(data)
	default:
		return 0
	}
}

// DecodeArray decodes n big-endian elements of kind from out of data into
// a newly allocated Go slice of the matching native type (e.g. []int32
// for KindI32), returned as interface{}. It does not perform any from->to
// conversion; see Cast.
func DecodeArray(data []byte, n int, from Kind) (any, error) {
	sz := from.Size()
	if sz == 0 {
		return nil, fmt.Errorf("rbytes: unknown kind %v", from)
	}
	if len(data) < n*sz {
		return nil, fmt.Errorf("rbytes: short buffer: need %d bytes for %d elements of %v, have %d", n*sz, n, from, len(data))
	}
	switch from {
	case KindBool:
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			out[i] = data[i] != 0
		}
		return out, nil
	case KindI8:
		out := make([]int8, n)
		for i := 0; i < n; i++ {
			out[i] = int8(data[i])
		}
		return out, nil
	case KindU8:
		out := make([]uint8, n)
		copy(out, data[:n])
		return out, nil
	case KindI16:
		out := make([]int16, n)
		for i := 0; i < n; i++ {
			out[i] = int16(binary.BigEndian.Uint16(data[i*2:]))
		}
		return out, nil
	case KindU16:
		out := make([]uint16, n)
		for i := 0; i < n; i++ {
			out[i] = binary.BigEndian.Uint16(data[i*2:])
		}
		return out, nil
	case KindI32:
		out := make([]int32, n)
		for i := 0; i < n; i++ {
			out[i] = int32(binary.BigEndian.Uint32(data[i*4:]))
		}
		return out, nil
	case KindU32:
		out := make([]uint32, n)
		for i := 0; i < n; i++ {
			out[i] = binary.BigEndian.Uint32(data[i*4:])
		}
		return out, nil
	case KindI64:
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			out[i] = int64(binary.BigEndian.Uint64(data[i*8:]))
		}
		return out, nil
	case KindU64:
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = binary.BigEndian.Uint64(data[i*8:])
		}
		return out, nil
	case KindF32:
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
		}
		return out, nil
	case KindF64:
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(data[i*8:]))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rbytes: unknown kind %v", from)
	}
}

// Cast converts an array produced by DecodeArray (of kind `from`) to a new
// Go slice of kind `to`'s native type, applying a numeric conversion
// per-element. Used by AsDtype interpretations (spec §4.G) where the
// on-disk type and the requested output type differ (e.g. promoting
// int16 counters to int64).
func Cast(arr any, from, to Kind) (any, error) {
	if from == to {
		return arr, nil
	}
	n := arrayLen(arr)
	switch to {
	case KindI8:
		out := make([]int8, n)
		for i := 0; i < n; i++ {
			out[i] = int8(toI64(arr, i))
		}
		return out, nil
	case KindU8:
		out := make([]uint8, n)
		for i := 0; i < n; i++ {
			out[i] = uint8(toI64(arr, i))
		}
		return out, nil
	case KindI16:
		out := make([]int16, n)
		for i := 0; i < n; i++ {
			out[i] = int16(toI64(arr, i))
		}
		return out, nil
	case KindU16:
		out := make([]uint16, n)
		for i := 0; i < n; i++ {
			out[i] = uint16(toI64(arr, i))
		}
		return out, nil
	case KindI32:
		out := make([]int32, n)
		for i := 0; i < n; i++ {
			out[i] = int32(toI64(arr, i))
		}
		return out, nil
	case KindU32:
		out := make([]uint32, n)
		for i := 0; i < n; i++ {
			out[i] = uint32(toI64(arr, i))
		}
		return out, nil
	case KindI64:
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			out[i] = toI64(arr, i)
		}
		return out, nil
	case KindU64:
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = uint64(toI64(arr, i))
		}
		return out, nil
	case KindF32:
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = float32(toF64(arr, i))
		}
		return out, nil
	case KindF64:
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = toF64(arr, i)
		}
		return out, nil
	case KindBool:
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			out[i] = toI64(arr, i) != 0
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rbytes: cast to unknown kind %v", to)
	}
}

func arrayLen(arr any) int {
	switch a := arr.(type) {
	case []bool:
		return len(a)
	case []int8:
		return len(a)
	case []uint8:
		return len(a)
	case []int16:
		return len(a)
	case []uint16:
		return len(a)
	case []int32:
		return len(a)
	case []uint32:
		return len(a)
	case []int64:
		return len(a)
	case []uint64:
		return len(a)
	case []float32:
		return len(a)
	case []float64:
		return len(a)
	default:
		return 0
	}
}

func toI64(arr any, i int) int64 {
	switch a := arr.(type) {
	case []bool:
		if a[i] {
			return 1
		}
		return 0
	case []int8:
		return int64(a[i])
	case []uint8:
		return int64(a[i])
	case []int16:
		return int64(a[i])
	case []uint16:
		return int64(a[i])
	case []int32:
		return int64(a[i])
	case []uint32:
		return int64(a[i])
	case []int64:
		return a[i]
	case []uint64:
		return int64(a[i])
	case []float32:
		return int64(a[i])
	case []float64:
		return int64(a[i])
	default:
		return 0
	}
}

func toF64(arr any, i int) float64 {
	switch a := arr.(type) {
	case []float32:
		return float64(a[i])
	case []float64:
		return a[i]
	default:
		return float64(toI64(arr, i))
	}
}
