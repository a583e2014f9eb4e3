package rdict

import (
	"fmt"

	"github.com/go-hep/groot/rbytes"
)

// StreamerElement describes one member of a class's on-disk layout (spec
// §4.D). It is itself a bootstrap class: its own wire layout is hand
// decoded here rather than produced by the synthesizer it feeds, since
// nothing can synthesize the synthesizer's own input.
type StreamerElement struct {
	Name, Title string
	Kind        EKind
	TypeName    string // canonicalized C++ typename of the member
	Size        int32  // sizeof one element, as recorded on disk
	ArrayLength int32
	ArrayDim    int32
	MaxIndex    [5]int32

	BaseVersion int32  // Base: version of the named superclass
	CountName   string // BasicPointer: name of the sibling member holding the element count
	STLType     int32  // STL: container kind (vector=1, list=2, deque=3, map=4, multimap=5, set=6, ...)
	ContentType int32  // STL: EKind-raw code of the contained type
}

// readStreamerElement decodes one TStreamerElement (and its subclass's
// extra fields) starting at the cursor's current position. className is
// the element's recorded ROOT class name (e.g. "TStreamerBasicType"),
// already read by the caller from the enclosing TObjArray's class tag.
func readStreamerElement(c *rbytes.Cursor, className string) (*StreamerElement, error) {
	vh := c.ReadVersionHeader()

	// TNamed header: TObject (version+fUniqueID+fBits) then fName, fTitle.
	c.ReadVersionHeader() // TObject version header
	c.Skip(8)             // fUniqueID, fBits
	name := c.String()
	title := c.String()

	se := &StreamerElement{Name: name, Title: title}

	rawType := c.ReadI32()
	se.Size = c.ReadI32()
	se.ArrayLength = c.ReadI32()
	se.ArrayDim = c.ReadI32()
	if vh.Version <= 1 {
		for i := 0; i < 5; i++ {
			se.MaxIndex[i] = c.ReadI32()
		}
	} else {
		n := int(se.ArrayDim)
		if n > 5 {
			n = 5
		}
		for i := 0; i < n; i++ {
			se.MaxIndex[i] = c.ReadI32()
		}
	}
	se.TypeName = canonicalize(c.String())

	isBase := className == "TStreamerBase"
	se.Kind = decodeEKind(rawType, isBase)

	switch className {
	case "TStreamerBase":
		if vh.Version >= 2 {
			se.BaseVersion = c.ReadI32()
		}
	case "TStreamerBasicPointer", "TStreamerLoop":
		se.CountName = c.String()
		c.String() // fCountClass, unused: resolved by name at synthesis time
		c.ReadI32() // fCountVersion
	case "TStreamerSTL":
		se.STLType = c.ReadI32()
		se.ContentType = c.ReadI32()
	}

	if vh.HasByteCount && c.Pos() != vh.End() {
		return nil, fmt.Errorf("rdict: %s %q: expected frame end at %d, cursor at %d", className, name, vh.End(), c.Pos())
	}
	return se, nil
}

// StreamerInfo is one versioned class schema: a class name, version, and
// its ordered member list (spec §4.D / §4.E).
type StreamerInfo struct {
	Name     string
	Version  int32
	Checksum uint32
	Elements []*StreamerElement
}

// readStreamerInfo decodes one TStreamerInfo record: a TNamed header, a
// checksum and class version, then a TObjArray of elements each prefixed
// by its own ROOT class name tag.
func readStreamerInfo(c *rbytes.Cursor) (*StreamerInfo, error) {
	vh := c.ReadVersionHeader()

	c.ReadVersionHeader() // TNamed's TObject header
	c.Skip(8)
	name := c.String()
	c.String() // title, unused

	checksum := c.ReadU32()
	version := c.ReadI32()

	elemsTag, err := readClassTag(c)
	if err != nil {
		return nil, fmt.Errorf("rdict: %s: reading element array tag: %w", name, err)
	}
	_ = elemsTag // expected "TObjArray"

	c.ReadVersionHeader() // TObjArray version header
	c.String()            // fName of the array, unused
	n := int(c.ReadI32())
	c.ReadI32() // fLowerBound

	si := &StreamerInfo{Name: name, Version: version, Checksum: checksum}
	for i := 0; i < n; i++ {
		tag, err := readClassTag(c)
		if err != nil {
			return nil, fmt.Errorf("rdict: %s: element %d: reading class tag: %w", name, i, err)
		}
		if tag == "" {
			continue // a nil slot in the sparse TObjArray
		}
		se, err := readStreamerElement(c, tag)
		if err != nil {
			return nil, fmt.Errorf("rdict: %s: element %d: %w", name, i, err)
		}
		si.Elements = append(si.Elements, se)
	}

	if vh.HasByteCount && c.Pos() != vh.End() {
		return nil, fmt.Errorf("rdict: streamer info %q: expected frame end at %d, cursor at %d", name, vh.End(), c.Pos())
	}
	return si, nil
}

// ReadStreamerInfoList decodes the TList stored at a file's fSeekInfo
// (spec §4.D): TStreamerInfo records interleaved with TLists of
// TObjString holding the file's streamer rules. Only the TStreamerInfo
// records are returned: the rule lists, like any other entry, are decoded
// generically and discarded, so their text is not kept anywhere and no
// rule changes this reader's behavior.
func ReadStreamerInfoList(c *rbytes.Cursor, reg *Registry) ([]*StreamerInfo, error) {
	vh := c.ReadVersionHeader()

	c.ReadVersionHeader() // TList's TObject header
	c.Skip(8)
	c.String() // TList's own fName, unused

	n := int(c.ReadI32())
	var infos []*StreamerInfo
	for i := 0; i < n; i++ {
		tag, err := readClassTag(c)
		if err != nil {
			return nil, fmt.Errorf("rdict: streamer info list: entry %d: %w", i, err)
		}
		switch tag {
		case "":
			// nil slot
		case "TStreamerInfo":
			si, err := readStreamerInfo(c)
			if err != nil {
				return nil, fmt.Errorf("rdict: streamer info list: entry %d: %w", i, err)
			}
			infos = append(infos, si)
		default:
			// A TList of TObjString rules, or any other bootstrap class:
			// read it generically and discard, preserving forward
			// compatibility with files carrying extra sidecar records.
			if _, err := reg.ReadObject(c, tag); err != nil {
				return nil, fmt.Errorf("rdict: streamer info list: entry %d (%s): %w", i, tag, err)
			}
		}
		c.String() // TList's per-entry option string
	}

	if vh.HasByteCount && c.Pos() != vh.End() {
		return nil, fmt.Errorf("rdict: streamer info list: expected frame end at %d, cursor at %d", vh.End(), c.Pos())
	}
	return infos, nil
}
