package rtree

import (
	"fmt"
	"reflect"
)

// Library turns a branch's assembled BasketArray parts into the
// caller-facing Go value (spec §9 "Output array library"): a flat slice
// for fixed-width branches, or a jagged container for variable-length
// ones.
type Library interface {
	Finalize(parts []BasketArray, branch *Branch) (any, error)
}

// NumpyLikeLibrary is the built-in Library: fixed-width branches finalize
// to a flat Go slice, jagged branches to a JaggedArray{Data, Offsets}
// pair, and struct-of-arrays branches to a map[string]any keyed by member
// name.
type NumpyLikeLibrary struct{}

// JaggedArray is NumpyLikeLibrary's output shape for a variable-length
// branch: Data is the flat concatenation of every entry's elements,
// Offsets gives each entry's [Offsets[i], Offsets[i+1]) slice of it.
type JaggedArray struct {
	Data    any
	Offsets []int32
}

func (NumpyLikeLibrary) Finalize(parts []BasketArray, branch *Branch) (any, error) {
	if len(parts) == 0 {
		return emptyResultFor(branch), nil
	}

	if _, ok := parts[0].Values.(*StridedValues); ok {
		out := make(map[string]any)
		names := parts[0].Values.(*StridedValues).Names()
		for _, name := range names {
			cols := make([]any, 0, len(parts))
			for _, p := range parts {
				sv, ok := p.Values.(*StridedValues)
				if !ok {
					return nil, fmt.Errorf("rtree: branch %q: mismatched basket shapes", branch.Name)
				}
				col, ok := sv.Column(name)
				if !ok {
					return nil, fmt.Errorf("rtree: branch %q: member %q missing from a basket", branch.Name, name)
				}
				cols = append(cols, col)
			}
			joined, err := concatAny(cols)
			if err != nil {
				return nil, err
			}
			out[name] = joined
		}
		return out, nil
	}

	if parts[0].Offsets != nil {
		values := make([]any, len(parts))
		var offs []int32
		base := int32(0)
		for i, p := range parts {
			values[i] = p.Values
			if i == 0 && len(p.Offsets) > 0 {
				offs = append(offs, p.Offsets[0]+base)
			}
			for j := 1; j < len(p.Offsets); j++ {
				offs = append(offs, p.Offsets[j]+base)
			}
			if n := len(p.Offsets); n > 0 {
				base += p.Offsets[n-1]
			}
		}
		data, err := concatAny(values)
		if err != nil {
			return nil, err
		}
		return JaggedArray{Data: data, Offsets: offs}, nil
	}

	values := make([]any, len(parts))
	for i, p := range parts {
		values[i] = p.Values
	}
	return concatAny(values)
}

func emptyResultFor(branch *Branch) any {
	switch branch.interp.(type) {
	case AsJagged:
		return JaggedArray{Offsets: []int32{0}}
	case AsStridedObjects:
		return map[string]any{}
	default:
		return nil
	}
}

// concatAny concatenates same-typed slices carried as `any`, using
// reflect since the concrete element type is only known at interpretation
// time.
func concatAny(parts []any) (any, error) {
	if len(parts) == 0 {
		return nil, nil
	}
	total := 0
	typ := reflect.TypeOf(parts[0])
	for _, p := range parts {
		if reflect.TypeOf(p) != typ {
			return nil, fmt.Errorf("rtree: cannot concatenate mismatched basket value types %v and %v", typ, reflect.TypeOf(p))
		}
		total += reflect.ValueOf(p).Len()
	}
	out := reflect.MakeSlice(typ, 0, total)
	for _, p := range parts {
		out = reflect.AppendSlice(out, reflect.ValueOf(p))
	}
	return out.Interface(), nil
}
