package rbytes

// byteCountMask is set in the first 4 bytes of a versioned ROOT record
// when those 4 bytes encode a byte count rather than being the record's
// version directly (spec §4.D "version dispatch").
const byteCountMask uint32 = 0x40000000

// VersionHeader is the (num_bytes, version) pair every versioned ROOT
// record begins with, plus enough bookkeeping to find the record's end.
type VersionHeader struct {
	NumBytes     int32 // bytes following the count field, including the version; only meaningful if HasByteCount
	Version      int16
	HasByteCount bool
	end          int // cursor position marking the end of the frame; -1 if HasByteCount is false
}

// End returns the cursor position at which this record's data ends,
// valid only when HasByteCount is true.
func (vh VersionHeader) End() int { return vh.end }

// ReadVersionHeader consumes the version header at the cursor's current
// position: either a 4-byte byte count (top bit set) followed by a
// 2-byte version, or — when the top bit is clear — just a 2-byte version
// with no byte count (the 4 bytes read are rewound to 2).
func (c *Cursor) ReadVersionHeader() VersionHeader {
	start := c.pos
	raw := c.ReadU32()
	if c.err != nil {
		return VersionHeader{}
	}
	if raw&byteCountMask != 0 {
		nb := int32(raw &^ byteCountMask)
		version := c.ReadI16()
		return VersionHeader{NumBytes: nb, Version: version, HasByteCount: true, end: start + 4 + int(nb)}
	}
	c.MoveTo(start)
	version := c.ReadI16()
	return VersionHeader{Version: version, HasByteCount: false, end: -1}
}

// PeekVersionHeader reads the version header without moving the cursor.
func (c *Cursor) PeekVersionHeader() VersionHeader {
	start := c.pos
	h := c.ReadVersionHeader()
	c.MoveTo(start)
	return h
}
