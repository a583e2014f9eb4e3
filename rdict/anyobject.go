package rdict

import (
	"fmt"

	"github.com/go-hep/groot/rbytes"
)

// read_object_any tag encoding (spec §4.B / §9 "cyclic pointers -> arena +
// index"): a leading u32 tag. A null tag is followed by nothing; a
// new-class tag by a NUL-terminated class name and then the object body; a
// class-reference tag by the object body; any other tag is a
// back-reference to an earlier object, with nothing after it.
const (
	tagNull     = 0x00000000
	tagNewClass = 0xFFFFFFFF
	tagClassRef = 0x80000000 // set when the low 31 bits name a previously-seen class's tag offset
)

// ReadObjectAny implements rcont.Resolver: it decodes an embedded
// pointer-any, resolving repeated references to the same object or class
// name through the Cursor's arena rather than re-reading them (spec §9).
func (r *Registry) ReadObjectAny(c *rbytes.Cursor) (any, error) {
	return r.readObjectAny(c)
}

func (r *Registry) readObjectAny(c *rbytes.Cursor) (any, error) {
	start := c.AbsPos()
	tag := c.ReadU32()
	if c.Err() != nil {
		return nil, c.Err()
	}

	switch {
	case tag == tagNull:
		return nil, nil

	case tag == tagNewClass:
		class := c.CString()
		if c.Err() != nil {
			return nil, c.Err()
		}
		c.SetClassRef(uint32(start), class)
		obj, err := r.ReadObject(c, class)
		if err != nil {
			return nil, fmt.Errorf("rdict: read_object_any: new class %q: %w", class, err)
		}
		c.SetRef(start, obj)
		return obj, nil

	case tag&tagClassRef != 0:
		refTag := tag &^ tagClassRef
		class, ok := c.ClassRef(refTag)
		if !ok {
			return nil, fmt.Errorf("rdict: read_object_any: unresolved class back-reference tag %#x at offset %d", refTag, start)
		}
		obj, err := r.ReadObject(c, class)
		if err != nil {
			return nil, fmt.Errorf("rdict: read_object_any: repeated class %q: %w", class, err)
		}
		c.SetRef(start, obj)
		return obj, nil

	default:
		// A bare byte-count/offset: this tag is the absolute offset of an
		// already-decoded object in the current top-level read's arena.
		if obj, ok := c.Ref(int64(tag)); ok {
			return obj, nil
		}
		return nil, fmt.Errorf("rdict: read_object_any: unresolved object back-reference at offset %d (tag=%#x)", start, tag)
	}
}
