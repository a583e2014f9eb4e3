package riofs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rcompress"
	"github.com/go-hep/groot/rdict"
)

// Key is the fixed-layout record preceding every object stored in a ROOT
// file (spec §4.H), directly modeled on the teacher's own documented
// layout in rootio/file.go, generalized to the 32/64-bit seek variants.
type Key struct {
	Bytes     int32 // length of the compressed record, including this header
	Version   int16 // key format version; +1000 selects the 64-bit seek variant
	ObjLen    int32 // length of the uncompressed object
	Datetime  time.Time
	KeyLen    int16
	Cycle     int16
	SeekKey   int64
	SeekPdir  int64
	ClassName string
	Name      string
	Title     string

	dataOffset int64 // absolute file offset where the object payload starts

	file *File
}

// datimeToTime converts ROOT's packed 32-bit TDatime value into a
// time.Time: 6 bits year-since-1995, 4 bits month, 5 bits day, 5 bits
// hour, 6 bits minute, 6 bits second, packed from the high bit down in
// that order (TDatime::Set/GetDate/GetTime).
func datimeToTime(raw uint32) time.Time {
	year := int(raw>>26) + 1995
	month := int((raw >> 22) & 0xf)
	day := int((raw >> 17) & 0x1f)
	hh := int((raw >> 12) & 0x1f)
	mm := int((raw >> 6) & 0x3f)
	ss := int(raw & 0x3f)
	return time.Date(year, time.Month(month), day, hh, mm, ss, 0, time.UTC)
}

// ReadKey decodes one Key at the cursor's current position. file is
// attached to the Key so its payload can later be fetched and
// decompressed against the owning file's source.
func ReadKey(c *rbytes.Cursor, file *File) (*Key, error) {
	start := c.AbsPos()
	k := &Key{file: file}

	k.Bytes = c.ReadI32()
	if k.Bytes == 0 {
		return nil, fmt.Errorf("riofs: key at %d has zero byte count (free-space marker)", start)
	}
	k.Version = c.ReadI16()
	k.ObjLen = c.ReadI32()
	k.Datetime = datimeToTime(c.ReadU32())
	k.KeyLen = c.ReadI16()
	k.Cycle = c.ReadI16()

	if k.Version > 1000 {
		k.SeekKey = c.ReadI64()
		k.SeekPdir = c.ReadI64()
	} else {
		k.SeekKey = int64(c.ReadI32())
		k.SeekPdir = int64(c.ReadI32())
	}

	k.ClassName = c.String()
	k.Name = c.String()
	k.Title = c.String()

	k.dataOffset = start + int64(k.KeyLen)

	if c.Err() != nil {
		return nil, c.Err()
	}
	return k, nil
}

// NameCycle returns "name;cycle", the canonical display form.
func (k *Key) NameCycle() string { return fmt.Sprintf("%s;%d", k.Name, k.Cycle) }

// compressedLen is the length of the payload actually stored after the
// key header: Bytes - KeyLen, floored at zero for an empty placeholder.
func (k *Key) compressedLen() int {
	n := int(k.Bytes) - int(k.KeyLen)
	if n < 0 {
		return 0
	}
	return n
}

// payload fetches and, if necessary, decompresses this key's stored
// bytes.
func (k *Key) payload(ctx context.Context) ([]byte, error) {
	clen := k.compressedLen()
	chunk, err := k.file.fetch(ctx, k.dataOffset, k.dataOffset+int64(clen))
	if err != nil {
		return nil, err
	}
	data, err := chunk.Wait()
	if err != nil {
		return nil, err
	}
	if clen == int(k.ObjLen) {
		return data, nil // stored uncompressed
	}
	out, err := rcompress.Decompress(data, clen, int(k.ObjLen), k.dataOffset, k.file.path)
	if err != nil {
		return nil, err
	}
	return out.Wait()
}

// Payload exposes this key's decompressed body to packages above riofs
// (rtree's basket reader) that need to parse it themselves rather than
// through the registry's generic class dispatch.
func (k *Key) Payload(ctx context.Context) ([]byte, error) { return k.payload(ctx) }

// DataOffset returns the absolute file offset where this key's payload
// begins (after its fixed header and class/name/title strings).
func (k *Key) DataOffset() int64 { return k.dataOffset }

// Object decodes this key's payload as a registry-managed class instance
// (spec §4.H), dispatching on ClassName.
func (k *Key) Object(ctx context.Context, reg *rdict.Registry) (*rdict.Object, error) {
	data, err := k.payload(ctx)
	if err != nil {
		return nil, err
	}
	c := rbytes.NewCursor(data, k.dataOffset, k.file.path)
	return reg.ReadObject(c, k.ClassName)
}
