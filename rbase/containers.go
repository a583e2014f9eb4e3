package rbase

import (
	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

// tListDescriptor reads TList (and THashList, same on-disk shape): an
// embedded TObject, the list's own name, an entry count, then that many
// (object, option-string) pairs. Nil slots (a null read_object_any tag)
// are kept as nil entries rather than dropped, so positional lookups
// still line up with ROOT's own indexing.
type tListDescriptor struct{}

func (tListDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	base, err := reg.ReadObject(c, "TObject")
	if err != nil {
		return nil, err
	}
	name := c.String()
	n := int(c.ReadI32())

	entries := make([]any, n)
	options := make([]string, n)
	for i := 0; i < n; i++ {
		obj, err := reg.ReadObjectAny(c)
		if err != nil {
			return nil, err
		}
		entries[i] = obj
		options[i] = c.String()
	}

	return &rdict.Object{
		Class:   "TList",
		Version: version,
		Fields: map[string]any{
			"fName":    name,
			"entries":  entries,
			"options":  options,
		},
		Bases: []*rdict.Object{base},
	}, nil
}

// tObjArrayDescriptor reads TObjArray: an embedded TObject, the array's
// own name, an entry count, a lower bound, then that many object-any
// entries (no per-entry option string).
type tObjArrayDescriptor struct{}

func (tObjArrayDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	base, err := reg.ReadObject(c, "TObject")
	if err != nil {
		return nil, err
	}
	name := c.String()
	n := int(c.ReadI32())
	lowerBound := c.ReadI32()

	entries := make([]any, n)
	for i := 0; i < n; i++ {
		obj, err := reg.ReadObjectAny(c)
		if err != nil {
			return nil, err
		}
		entries[i] = obj
	}

	return &rdict.Object{
		Class:   "TObjArray",
		Version: version,
		Fields: map[string]any{
			"fName":       name,
			"entries":     entries,
			"fLowerBound": lowerBound,
		},
		Bases: []*rdict.Object{base},
	}, nil
}
