package rbase

import (
	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

const kIsReferenced = 1 << 4 // TObject::kIsReferenced bit in fBits

// tObjectDescriptor reads TObject: fUniqueID, fBits, and (if
// kIsReferenced is set) a two-byte process-unique ID.
type tObjectDescriptor struct{}

func (tObjectDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	uid := c.ReadU32()
	bits := c.ReadU32()
	obj := &rdict.Object{Class: "TObject", Version: version, Fields: map[string]any{
		"fUniqueID": uid,
		"fBits":     bits,
	}}
	if bits&kIsReferenced != 0 {
		obj.Fields["fPID"] = c.ReadU16()
	}
	return obj, nil
}

// tNamedDescriptor reads TNamed: an embedded TObject, then fName and
// fTitle as raw length-prefixed strings (TString has no class-level
// header of its own in this context).
type tNamedDescriptor struct{}

func (tNamedDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	base, err := reg.ReadObject(c, "TObject")
	if err != nil {
		return nil, err
	}
	name := c.String()
	title := c.String()
	return &rdict.Object{
		Class:   "TNamed",
		Version: version,
		Fields:  map[string]any{"fName": name, "fTitle": title},
		Bases:   []*rdict.Object{base},
	}, nil
}

// tStringDescriptor reads a freestanding TString object (spec §4.E): in
// this generic-object context ROOT still frames it with the usual class
// header (the registry already consumed it), so the body is just the raw
// string bytes.
type tStringDescriptor struct{}

func (tStringDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	s := c.String()
	return &rdict.Object{Class: "TString", Version: version, Fields: map[string]any{"val": s}}, nil
}

// tObjStringDescriptor reads TObjString: an embedded TObject, then an
// inline TString value.
type tObjStringDescriptor struct{}

func (tObjStringDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	base, err := reg.ReadObject(c, "TObject")
	if err != nil {
		return nil, err
	}
	val := c.String()
	return &rdict.Object{
		Class:   "TObjString",
		Version: version,
		Fields:  map[string]any{"val": val},
		Bases:   []*rdict.Object{base},
	}, nil
}
