// Package rcont implements the composable container descriptors of spec
// §4.F: AsString, AsVector, AsSet, AsMap, AsArray, AsPointer, AsDynamic,
// AsFIXME. Each describes how raw bytes become a typed Go value and is
// structurally comparable so identically-shaped descriptors cache to the
// same key (spec §4.F "Equality is structural").
package rcont

import (
	"fmt"

	"github.com/go-hep/groot/rbytes"
)

// Resolver reads an embedded pointer-any (spec §4.B read_object_any);
// implemented by the streamer engine (rdict) and injected so this package
// never needs to import it.
type Resolver interface {
	ReadObjectAny(c *rbytes.Cursor) (any, error)
}

// Descriptor describes how to decode one container value from a Cursor.
// Header reports whether the descriptor's own on-disk form is wrapped in
// a byte-count+version frame (spec §4.F).
type Descriptor interface {
	// Key returns a string uniquely identifying this descriptor's shape,
	// used both for display and for structural-equality caching.
	Key() string
	// Read decodes one value.
	Read(c *rbytes.Cursor, res Resolver) (any, error)
	// Header reports whether this descriptor's encoding is bracketed by a
	// byte-count+version header.
	Header() bool
}

// StringEncoding selects one of AsString's two supported length
// encodings (spec §4.F).
type StringEncoding int

const (
	// StringLen1to5 is the universal short-string encoding (spec §4.B
	// string()): one length byte, or 255 followed by a 4-byte length.
	StringLen1to5 StringEncoding = iota
	// StringLen4 is an unconditional 32-bit length prefix.
	StringLen4
)

// AsString decodes a single string value.
type AsString struct {
	Encoding StringEncoding
}

func (d AsString) Key() string  { return fmt.Sprintf("string(enc=%d)", d.Encoding) }
func (d AsString) Header() bool { return false }

func (d AsString) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	switch d.Encoding {
	case StringLen4:
		n := int(c.ReadU32())
		return c.StringWithLength(n), nil
	default:
		return c.String(), nil
	}
}

// AsVector decodes std::vector<Inner>. Only element-wise (non-memberwise)
// serialization is supported; memberwise vectors are a fatal
// "not implemented" per spec §4.F.
type AsVector struct {
	Inner  Descriptor
	Framed bool
}

func (d AsVector) Key() string  { return fmt.Sprintf("vector<%s>[hdr=%v]", d.Inner.Key(), d.Framed) }
func (d AsVector) Header() bool { return d.Framed }

func (d AsVector) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	return readSequence(c, res, d.Inner, d.Framed)
}

// AsSet decodes std::set<Inner>, same on-disk shape as AsVector.
type AsSet struct {
	Inner  Descriptor
	Framed bool
}

func (d AsSet) Key() string  { return fmt.Sprintf("set<%s>[hdr=%v]", d.Inner.Key(), d.Framed) }
func (d AsSet) Header() bool { return d.Framed }

func (d AsSet) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	return readSequence(c, res, d.Inner, d.Framed)
}

func readSequence(c *rbytes.Cursor, res Resolver, inner Descriptor, framed bool) ([]any, error) {
	end := -1
	if framed {
		vh := c.ReadVersionHeader()
		if !vh.HasByteCount {
			return nil, fmt.Errorf("rcont: expected byte-count header for sequence")
		}
		// kStreamedMemberWise: the container's version carries bit 0x4000.
		const streamedMemberWise = 0x4000
		if vh.Version&streamedMemberWise != 0 {
			return nil, &rbytes.UnsupportedFeature{Feature: "memberwise std::vector/std::set serialization"}
		}
		end = vh.End()
	}
	n := int(c.ReadU32())
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := inner.Read(c, res)
		if err != nil {
			return nil, fmt.Errorf("rcont: sequence element %d: %w", i, err)
		}
		out[i] = v
	}
	if end >= 0 && c.Pos() != end {
		return nil, fmt.Errorf("rcont: sequence frame ended at %d, cursor at %d", end, c.Pos())
	}
	return out, nil
}

// AsMap decodes std::map<Key,Value>. Only the memberwise layout is
// supported (spec §4.F): a 6-byte header, a count, 6 bytes of key
// sub-header (if the key descriptor is itself framed), N keys, 6 bytes of
// value sub-header (if the value descriptor is framed), N values. The
// inline (element-wise pair) form is fatal.
type AsMap struct {
	KeyDesc, ValueDesc Descriptor
	Framed             bool
}

func (d AsMap) Key() string {
	return fmt.Sprintf("map<%s,%s>[hdr=%v]", d.KeyDesc.Key(), d.ValueDesc.Key(), d.Framed)
}
func (d AsMap) Header() bool { return d.Framed }

func (d AsMap) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	if !d.Framed {
		return nil, &rbytes.UnsupportedFeature{Feature: "inline (element-wise) std::map serialization; only memberwise is implemented"}
	}
	// 6-byte outer header: 4-byte byte count (with top bit set) + 2-byte version.
	c.Skip(6)
	n := int(c.ReadU32())

	if d.KeyDesc.Header() {
		c.Skip(6)
	}
	keys := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := d.KeyDesc.Read(c, res)
		if err != nil {
			return nil, fmt.Errorf("rcont: map key %d: %w", i, err)
		}
		keys[i] = v
	}

	if d.ValueDesc.Header() {
		c.Skip(6)
	}
	values := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := d.ValueDesc.Read(c, res)
		if err != nil {
			return nil, fmt.Errorf("rcont: map value %d: %w", i, err)
		}
		values[i] = v
	}

	out := make(map[any]any, n)
	for i := range keys {
		out[keys[i]] = values[i]
	}
	return out, nil
}

// AsArray decodes a fixed-length array of N elements of Inner. The
// no-header form supports a one-byte speedbump before the element
// stream; the with-header form reads until the cursor reaches the frame
// end recorded by the version header, ignoring N.
type AsArray struct {
	Inner     Descriptor
	N         int
	Framed    bool
	Speedbump bool
}

func (d AsArray) Key() string {
	return fmt.Sprintf("array<%s>[%d,hdr=%v,sb=%v]", d.Inner.Key(), d.N, d.Framed, d.Speedbump)
}
func (d AsArray) Header() bool { return d.Framed }

func (d AsArray) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	if d.Framed {
		vh := c.ReadVersionHeader()
		if !vh.HasByteCount {
			return nil, fmt.Errorf("rcont: expected byte-count header for array")
		}
		out := make([]any, 0, d.N)
		for c.Pos() != vh.End() {
			v, err := d.Inner.Read(c, res)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	if d.Speedbump {
		c.Skip(1)
	}
	out := make([]any, d.N)
	for i := 0; i < d.N; i++ {
		v, err := d.Inner.Read(c, res)
		if err != nil {
			return nil, fmt.Errorf("rcont: array element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// AsPointer decodes a pointer-any by deferring to the injected Resolver's
// read_object_any (spec §4.F).
type AsPointer struct {
	Inner Descriptor // nominal referent type, for display only
}

func (d AsPointer) Key() string  { return fmt.Sprintf("pointer<%s>", d.Inner.Key()) }
func (d AsPointer) Header() bool { return true }

func (d AsPointer) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	return res.ReadObjectAny(c)
}

// AsDynamic decodes a value whose concrete type is only known from the
// byte stream itself (an embedded object-any with no fixed nominal type),
// again via read_object_any.
type AsDynamic struct{}

func (d AsDynamic) Key() string  { return "dynamic" }
func (d AsDynamic) Header() bool { return true }

func (d AsDynamic) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	return res.ReadObjectAny(c)
}

// AsFIXME marks a shape this module does not decode: Artificial streamer
// elements (spec §4.D), memberwise vectors/sets, unsupported STL shapes.
// Reading it always fails loudly, never silently skips (spec §4.D).
type AsFIXME struct {
	Reason string
}

func (d AsFIXME) Key() string  { return "FIXME(" + d.Reason + ")" }
func (d AsFIXME) Header() bool { return false }

func (d AsFIXME) Read(c *rbytes.Cursor, res Resolver) (any, error) {
	return nil, &rbytes.UnsupportedFeature{Feature: d.Reason}
}
