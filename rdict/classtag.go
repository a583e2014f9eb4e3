package rdict

import (
	"errors"

	"github.com/go-hep/groot/rbytes"
)

var (
	errUnresolvedClassTag = errors.New("rdict: unresolved class back-reference tag")
	errBareBackReference  = errors.New("rdict: bare object back-reference where a class tag was expected")
)

// readClassTag decodes one element's class-name tag from a heterogeneous
// container (TList, TObjArray, or the top-level TStreamerInfo list): the
// same new-class/back-reference/null tag convention read_object_any uses
// (spec §4.B), without resolving the referenced object itself. Returns ""
// for a null tag (a nil slot).
func readClassTag(c *rbytes.Cursor) (string, error) {
	start := c.AbsPos()
	tag := c.ReadU32()
	if c.Err() != nil {
		return "", c.Err()
	}
	switch {
	case tag == tagNull:
		return "", nil
	case tag == tagNewClass:
		class := c.CString()
		if c.Err() != nil {
			return "", c.Err()
		}
		c.SetClassRef(uint32(start), class)
		return class, nil
	case tag&tagClassRef != 0:
		refTag := tag &^ tagClassRef
		class, ok := c.ClassRef(refTag)
		if !ok {
			return "", errUnresolvedClassTag
		}
		return class, nil
	default:
		// A back-reference to an already fully-read element; callers of
		// readClassTag only need this for fresh elements of a streamer
		// list, where repeats of the same element don't occur.
		return "", errBareBackReference
	}
}
