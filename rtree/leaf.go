// Package rtree implements the TTree/TBranch navigator and the basket
// assembly/interpretation pipeline of spec §4.G/§4.I: everything above
// riofs that needs to understand columnar entry storage rather than just
// the generic directory/key layer.
package rtree

import (
	"fmt"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

// leafDescriptor reads one of TLeafO/B/S/I/L/F/D's bodies: the common
// TLeaf fields (themselves grounded on ROOT's TLeaf::Streamer) tagged with
// the primitive Kind this concrete leaf class carries.
type leafDescriptor struct {
	Kind  rbytes.Kind
	Class string
}

func readLeafBase(c *rbytes.Cursor, reg *rdict.Registry) (map[string]any, error) {
	named, err := reg.ReadObject(c, "TNamed")
	if err != nil {
		return nil, fmt.Errorf("rtree: leaf TNamed base: %w", err)
	}
	fields := map[string]any{
		"fName":  named.FieldString("fName"),
		"fTitle": named.FieldString("fTitle"),
	}
	fields["fLen"] = c.ReadI32()
	fields["fLenType"] = c.ReadI32()
	fields["fOffset"] = c.ReadI32()
	fields["fIsRange"] = c.ReadBool()
	fields["fIsUnsigned"] = c.ReadBool()

	leafCount, err := reg.ReadObjectAny(c)
	if err != nil {
		return nil, fmt.Errorf("rtree: leaf fLeafCount: %w", err)
	}
	fields["fLeafCount"] = leafCount

	if c.Err() != nil {
		return nil, c.Err()
	}
	return fields, nil
}

func (d leafDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	fields, err := readLeafBase(c, reg)
	if err != nil {
		return nil, err
	}
	fields["kind"] = d.Kind
	return &rdict.Object{Class: d.Class, Version: version, Fields: fields}, nil
}

// tLeafElementDescriptor reads TLeafElement's body: the common TLeaf base
// plus fID (index into the streamer info's element list) and fType (the
// raw EKind-adjacent code identifying the leaf's primitive shape, needed
// to pick the Double32/Float16 truncated codec at interpretation-inference
// time, spec §4.G).
type tLeafElementDescriptor struct{}

func (tLeafElementDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	fields, err := readLeafBase(c, reg)
	if err != nil {
		return nil, err
	}
	fields["fID"] = c.ReadI32()
	fields["fType"] = c.ReadI32()
	if c.Err() != nil {
		return nil, c.Err()
	}
	return &rdict.Object{Class: "TLeafElement", Version: version, Fields: fields}, nil
}

func registerLeaves(reg *rdict.Registry) {
	reg.RegisterBuiltin("TLeafO", leafDescriptor{Kind: rbytes.KindBool, Class: "TLeafO"})
	reg.RegisterBuiltin("TLeafB", leafDescriptor{Kind: rbytes.KindI8, Class: "TLeafB"})
	reg.RegisterBuiltin("TLeafS", leafDescriptor{Kind: rbytes.KindI16, Class: "TLeafS"})
	reg.RegisterBuiltin("TLeafI", leafDescriptor{Kind: rbytes.KindI32, Class: "TLeafI"})
	reg.RegisterBuiltin("TLeafL", leafDescriptor{Kind: rbytes.KindI64, Class: "TLeafL"})
	reg.RegisterBuiltin("TLeafF", leafDescriptor{Kind: rbytes.KindF32, Class: "TLeafF"})
	reg.RegisterBuiltin("TLeafD", leafDescriptor{Kind: rbytes.KindF64, Class: "TLeafD"})
	reg.RegisterBuiltin("TLeafElement", tLeafElementDescriptor{})
}
