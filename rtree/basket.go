package rtree

import (
	"context"
	"fmt"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/riofs"
)

// basket is one decompressed TBasket: the entry range it covers, its raw
// data bytes, and, for variable-length content, the per-entry byte offsets
// into that data (spec §4.G step 3).
type basket struct {
	num     int
	entries int64 // number of entries this basket covers
	data    []byte
	offsets []int32 // zero-based; nil when the branch's element is fixed width
}

// tBasketExtraSize is TBasket's own trailer, written immediately after the
// generic Key header's class/name/title strings and before the
// (optionally compressed) data: fVersion (i16), fBufferSize, fNevBufSize,
// fNevBuf, fLast (each i32), and a one-byte flag. The wire's own fKeylen
// already accounts for these bytes, so Key.DataOffset is correct without
// adjustment; they are parsed here only to recover fLast (the
// data/offsets split point).
const tBasketExtraSize = 2 + 4*4 + 1

type basketExtra struct {
	version    int16
	bufSize    int32
	nevBufSize int32
	nevBuf     int32
	last       int32
	flag       byte
}

func readBasketExtra(c *rbytes.Cursor) (basketExtra, error) {
	var e basketExtra
	e.version = c.ReadI16()
	e.bufSize = c.ReadI32()
	e.nevBufSize = c.ReadI32()
	e.nevBuf = c.ReadI32()
	e.last = c.ReadI32()
	e.flag = c.ReadU8()
	if c.Err() != nil {
		return e, c.Err()
	}
	return e, nil
}

// readBasket fetches and decodes the basket stored as a TBasket-flavored
// Key at seek. entries is the number of entries this basket covers,
// supplied by the caller from the branch's basket-entry boundaries since a
// basket's own header does not redundantly restate it in a form this
// reader needs beyond fNevBuf (decoded but not used or checked).
func readBasket(ctx context.Context, file *riofs.File, seek int64, num int, entries int64) (*basket, error) {
	const headroom = 256
	chunk, err := file.Fetch(ctx, seek, seek+headroom)
	if err != nil {
		return nil, err
	}
	buf, err := chunk.Wait()
	if err != nil {
		return nil, err
	}

	c := rbytes.NewCursor(buf, seek, file.Path())
	key, err := riofs.ReadKey(c, file)
	if err != nil {
		return nil, fmt.Errorf("rtree: reading basket %d key: %w", num, err)
	}
	extra, err := readBasketExtra(c)
	if err != nil {
		return nil, fmt.Errorf("rtree: reading basket %d trailer: %w", num, err)
	}

	payload, err := key.Payload(ctx)
	if err != nil {
		return nil, fmt.Errorf("rtree: reading basket %d payload: %w", num, err)
	}

	return decodeBasketPayload(num, entries, key.KeyLen, extra.last, payload)
}

// decodeBasketPayload splits a basket's decompressed payload into its data
// region and, for variable-length content, its per-entry byte offsets
// (spec §4.G step 3). border is fLast rebased to the start of the payload
// (fLast counts from the start of the whole key record, which begins
// keyLen bytes before the payload).
func decodeBasketPayload(num int, entries int64, keyLen int16, last int32, payload []byte) (*basket, error) {
	border := int(last) - int(keyLen)
	if border <= 0 || border > len(payload) {
		border = len(payload)
	}

	b := &basket{num: num, entries: entries, data: payload[:border]}
	if border >= len(payload) {
		return b, nil
	}

	total := (len(payload) - border) / 4
	if total == 0 {
		return b, nil
	}
	raw, err := rbytes.DecodeArray(payload[border:border+total*4], total, rbytes.KindI32)
	if err != nil {
		return nil, fmt.Errorf("rtree: basket %d entry offsets: %w", num, err)
	}
	all := raw.([]int32)
	// all[0] is ROOT's own placeholder entry, not a real boundary; the
	// usable offsets are all[1:], rebased by fKeylen.
	offsets := make([]int32, total-1)
	for i := 1; i < total; i++ {
		offsets[i-1] = all[i] - int32(keyLen)
	}
	if len(offsets) > 0 {
		offsets[len(offsets)-1] = int32(border) // ROOT's trailing sentinel, normalized
	}
	b.offsets = offsets
	return b, nil
}
